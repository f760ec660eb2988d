// internal/config/model.go
//
// Typed configuration model for Adept Booking.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `ADEPT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal and defaults; the app
// fails fast if required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • Durations accept Go syntax ("800ms", "1.5s").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"fmt"
	"strings"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host,
// port, or flags without touching Vault.  The *secret* portion
// (`Password`) usually arrives as a `vault:` reference.  An empty DSN
// runs the service without persistence or a live service catalog.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"dsn_template"`
	Password string `koanf:"password"`
	MaxOpen  int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle  int    `koanf:"max_idle" validate:"gte=0"`
}

// ResolvedDSN splices the password into the %s slot when there is one.
func (d Database) ResolvedDSN() string {
	if strings.Contains(d.DSN, "%s") {
		return fmt.Sprintf(d.DSN, d.Password)
	}
	return d.DSN
}

//
// Booking section
//

// Booking tunes the booking form and its process endpoint.
type Booking struct {
	Form           string        `koanf:"form"             validate:"required"`
	Endpoint       string        `koanf:"endpoint"         validate:"required,startswith=/"`
	RedirectURL    string        `koanf:"redirect_url"     validate:"required"`
	DispatchDelay  time.Duration `koanf:"dispatch_delay"   validate:"gte=0"`
	RedirectDelay  time.Duration `koanf:"redirect_delay"   validate:"gte=0"`
	ToastLifetime  time.Duration `koanf:"toast_lifetime"   validate:"gt=0"`
	ToastExitDelay time.Duration `koanf:"toast_exit_delay" validate:"gte=0"`
	MinFillTime    time.Duration `koanf:"min_fill_time"    validate:"gte=0"`
	CatalogTTL     time.Duration `koanf:"catalog_ttl"      validate:"gte=0"`
	CSRFKey        string        `koanf:"csrf_key"`
	FormsDir       string        `koanf:"forms_dir"`
	NotifyTo       []string      `koanf:"notify_to"        validate:"dive,email"`
}

//
// Mail section
//

// Mail carries SMTP settings.  An empty Host logs email instead of
// sending it.
type Mail struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"     validate:"omitempty,min=1,max=65535"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	SSL      bool          `koanf:"ssl"`
	From     string        `koanf:"from"     validate:"omitempty,email"`
	Timeout  time.Duration `koanf:"timeout"  validate:"gte=0"`
}

//
// Log section
//

// Log tunes the file logger.  Dir is relative to the root unless absolute.
type Log struct {
	Dir        string `koanf:"dir"`
	Level      string `koanf:"level"        validate:"omitempty,oneof=debug info warn error"`
	MaxSizeMB  int    `koanf:"max_size_mb"  validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups"  validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
}

//
// Geo section
//

// Geo points at an optional GeoLite2-City database.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or ADEPT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // ADEPT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Booking  Booking  `koanf:"booking"`
	Mail     Mail     `koanf:"mail"`
	Log      Log      `koanf:"log"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

//
// Defaults
//

// Booking timings used when the YAML leaves them out.
const (
	DefaultDispatchDelay  = 800 * time.Millisecond
	DefaultRedirectDelay  = 1500 * time.Millisecond
	DefaultToastLifetime  = 5 * time.Second
	DefaultToastExitDelay = 400 * time.Millisecond
	DefaultMinFillTime    = 2 * time.Second
)

// applyDefaults fills zero values so an empty `booking:` section works.
func applyDefaults(c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.MaxOpen == 0 {
		c.Database.MaxOpen = 15
	}
	if c.Database.MaxIdle == 0 {
		c.Database.MaxIdle = 5
	}

	b := &c.Booking
	if b.Form == "" {
		b.Form = "booking/full"
	}
	if b.Endpoint == "" {
		b.Endpoint = "/process"
	}
	if b.RedirectURL == "" {
		b.RedirectURL = "/thank-you"
	}
	if b.DispatchDelay == 0 {
		b.DispatchDelay = DefaultDispatchDelay
	}
	if b.RedirectDelay == 0 {
		b.RedirectDelay = DefaultRedirectDelay
	}
	if b.ToastLifetime == 0 {
		b.ToastLifetime = DefaultToastLifetime
	}
	if b.ToastExitDelay == 0 {
		b.ToastExitDelay = DefaultToastExitDelay
	}
	if b.MinFillTime == 0 {
		b.MinFillTime = DefaultMinFillTime
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
}
