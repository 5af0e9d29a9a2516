// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                        – dotenv values,
//   • `conf/global.yaml`                     – primary static file,
//   • `SUB_`-prefixed environment overrides  – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs—only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS      bool   `koanf:"force_https"`
	AllowAllOrigins bool   `koanf:"allow_all_origins"` // dev-mode CORS
}

//
// Database section
//

// Database holds the Postgres DSN.  The secret portion is stored in Vault
// and injected at runtime via the `vault:` prefix, keeping credentials out
// of flat files and git history.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Session section
//

// Session configures the signed-cookie session layer.  The secret signs
// every cookie with HMAC-SHA256; rotating it invalidates all sessions.
type Session struct {
	Secret string `koanf:"secret" validate:"required,min=16"`
}

//
// Content section
//

// Content describes where landing-page versions live on disk.  Both
// directories are resolved relative to Paths.Root when not absolute.
type Content struct {
	VersionsDir string `koanf:"versions_dir"` // default "versions"
	TempDir     string `koanf:"temp_dir"`     // default ".temp_uploads"
}

//
// Build section
//

// Build configures the external builder invocation for raw-source uploads.
// Timeout bounds the whole install+build sequence; a stuck npm cannot hold
// a request open forever.
type Build struct {
	InstallCmd string        `koanf:"install_cmd"` // default "npm install"
	BuildCmd   string        `koanf:"build_cmd"`   // default "npm run build"
	Timeout    time.Duration `koanf:"timeout"`     // default 5m
}

//
// Gateway section
//

// Gateway points at the third-party WhatsApp HTTP gateway.  The API token
// is NOT configured here; it lives in the module_settings table so admins
// can rotate it from the dashboard.
type Gateway struct {
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
}

//
// Geo section
//

// Geo locates the optional GeoLite2 database used to enrich visit logs.
// Empty path disables geo lookups; visit counting still works.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or SUB_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // SUB_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Session  Session  `koanf:"session"`
	Content  Content  `koanf:"content"`
	Build    Build    `koanf:"build"`
	Gateway  Gateway  `koanf:"gateway"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// VersionsRoot returns the absolute directory that holds one subdirectory
// per landing-page version.
func (c *Config) VersionsRoot() string {
	return c.absPath(c.Content.VersionsDir)
}

// TempUploadsRoot returns the absolute staging directory for raw-source
// zips awaiting a build.
func (c *Config) TempUploadsRoot() string {
	return c.absPath(c.Content.TempDir)
}

func (c *Config) absPath(p string) string {
	if p == "" || p[0] == '/' {
		return p
	}
	return c.Paths.Root + "/" + p
}
