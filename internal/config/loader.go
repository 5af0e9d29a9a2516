// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file — first `<root>/conf/.env`, then jail-wide fallback.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `SUB_`, where `__` maps to “.”
     (e.g., `SUB_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` simply calls `Load()`
again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Values prefixed `vault:` are resolved before unmarshal when a Vault
    client has been installed via `SetSecretResolver`.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

var current atomic.Pointer[Config]

// secretResolver turns `vault:secret/data/app#key` strings into plain
// values.  Installed from cmd/web once the Vault client is up; nil means
// vault-prefixed values pass through untouched (dev mode).
var secretResolver atomic.Pointer[func(string) (string, error)]

// SetSecretResolver installs fn as the vault-prefix resolver.
func SetSecretResolver(fn func(string) (string, error)) {
	secretResolver.Store(&fn)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SUB_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("SUB_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, validates, and caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: SUB_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("SUB_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	// Resolve vault: URIs in the flat key map before unmarshal.
	if err := resolveSecrets(k); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"versions_dir", cfg.VersionsRoot(),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets rewrites every string key that carries the `vault:` prefix.
func resolveSecrets(k *koanf.Koanf) error {
	fn := secretResolver.Load()
	if fn == nil {
		return nil
	}
	for _, key := range k.Keys() {
		s, ok := k.Get(key).(string)
		if !ok || !strings.HasPrefix(s, "vault:") {
			continue
		}
		plain, err := (*fn)(strings.TrimPrefix(s, "vault:"))
		if err != nil {
			return err
		}
		if err := k.Set(key, plain); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults fills the blanks YAML is allowed to omit.
func applyDefaults(cfg *Config) {
	if cfg.Content.VersionsDir == "" {
		cfg.Content.VersionsDir = "versions"
	}
	if cfg.Content.TempDir == "" {
		cfg.Content.TempDir = ".temp_uploads"
	}
	if cfg.Build.InstallCmd == "" {
		cfg.Build.InstallCmd = "npm install"
	}
	if cfg.Build.BuildCmd == "" {
		cfg.Build.BuildCmd = "npm run build"
	}
	if cfg.Build.Timeout == 0 {
		cfg.Build.Timeout = 5 * time.Minute
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
