// cmd/web/main.go
//
// Landing-page platform – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (server-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Optional Vault client; config values prefixed `vault:` resolve
//     through it.
//
//  4. Load typed config (yaml + SUB_ env overrides) and open Postgres.
//
//  5. Open the GeoLite2 database (best-effort) and warm nothing else; the
//     version metadata cache fills lazily on first hit.
//
//  6. Construct the domain services (registry, extractor, builder, asset
//     server, gateway client, AI responder) and the components that expose
//     them, then mount everything on one chi router.
//
//  7. Start the outbound queue drainer, then serve.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/ai"
	"github.com/indoai-web/web-sub001/internal/assets"
	"github.com/indoai-web/web-sub001/internal/component"
	"github.com/indoai-web/web-sub001/internal/config"
	"github.com/indoai-web/web-sub001/internal/database"
	"github.com/indoai-web/web-sub001/internal/logger"
	"github.com/indoai-web/web-sub001/internal/member"
	"github.com/indoai-web/web-sub001/internal/middleware"
	"github.com/indoai-web/web-sub001/internal/profile"
	"github.com/indoai-web/web-sub001/internal/queue"
	"github.com/indoai-web/web-sub001/internal/requestinfo"
	"github.com/indoai-web/web-sub001/internal/server"
	"github.com/indoai-web/web-sub001/internal/settings"
	"github.com/indoai-web/web-sub001/internal/vault"
	"github.com/indoai-web/web-sub001/internal/version"
	"github.com/indoai-web/web-sub001/internal/wa"

	cmpeditor "github.com/indoai-web/web-sub001/components/editor"
	cmpmember "github.com/indoai-web/web-sub001/components/member"
	cmppages "github.com/indoai-web/web-sub001/components/pages"
	cmpversions "github.com/indoai-web/web-sub001/components/versions"
	cmpwa "github.com/indoai-web/web-sub001/components/wa"
)

const (
	serverEnvPath    = "/usr/local/etc/web-sub001/global.env"
	drainInterval    = 15 * time.Second
	rewriteCacheSize = 64
)

// loadEnv prefers the server-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	ctx := context.Background()

	//
	// ── 1.  Vault (optional) ────────────────────────────────────────────
	//
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx, logOut.Infof)
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		config.SetSecretResolver(vc.Resolver(5 * time.Minute))
	}

	//
	// ── 2.  Config + DB ─────────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()
	logOut.Info("database online")

	requestinfo.InitGeo(cfg.Geo.DBPath)

	//
	// ── 3.  Domain services ─────────────────────────────────────────────
	//
	registry := version.NewRegistry(db, cfg.VersionsRoot())
	extractor := version.NewExtractor(cfg.VersionsRoot(), cfg.TempUploadsRoot())
	builder := version.NewBuilder(cfg.Build.InstallCmd, cfg.Build.BuildCmd,
		cfg.Build.Timeout, cfg.VersionsRoot(), cfg.TempUploadsRoot())
	infos := version.NewInfoCache(cfg.VersionsRoot(), version.InfoIdleTTL, version.InfoMaxEntries)
	assetSrv := assets.NewServer(rewriteCacheSize)

	settingsStore := settings.NewStore(db)
	gateway := wa.NewClient(settingsStore, cfg.Gateway.BaseURL)
	responder := ai.NewResponder(settingsStore)
	profiles := profile.NewRepository(db)
	members := member.NewRepository(db)

	// Early sanity check, mirrors the registered-version count.
	if recs, err := registry.List(ctx); err == nil {
		logOut.Infof("%d landing-page version(s) registered", len(recs))
	}

	//
	// ── 4.  Components ──────────────────────────────────────────────────
	//
	// Registration order is mount order; pages mounts "/" and goes last.
	component.Register(cmpversions.New(registry, extractor, builder, infos))
	component.Register(cmpeditor.New(registry, infos))
	component.Register(cmpwa.New(gateway, settingsStore, responder, db))
	component.Register(cmpmember.New(profiles, members))
	component.Register(cmppages.New(registry, infos, assetSrv, members))

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)
	if cfg.HTTP.AllowAllOrigins {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	for _, c := range component.All() {
		r.Mount(c.MountPath(), c.Routes())
		logOut.Infow("component mounted", "name", c.Name(), "path", c.MountPath())
	}

	var handler http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	//
	// ── 6.  Queue drainer + serve ───────────────────────────────────────
	//
	drainCtx, stopDrain := context.WithCancel(ctx)
	defer stopDrain()
	go queue.NewDrainer(db, gateway).Run(drainCtx, drainInterval)

	srv := server.New(cfg.HTTP.ListenAddr, handler)
	logOut.Infof("listening on %s", cfg.HTTP.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		zap.S().Fatalw("http server stopped", "err", err)
	}
}
