// cmd/web/main.go
//
// Adept Booking – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load configuration (.env → conf/global.yaml → ADEPT_ env → Vault).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Open the GeoLite2 reader when a path is configured.
//
//  4. Open the database when a DSN is configured, and apply component
//     migrations.  Without a DSN the service runs without persistence.
//
//  5. Init every registered component.
//
//  6. Build the chi root router:
//
//     • request id, real IP, and panic recovery  – chi middleware
//     • UA and geo enrichment                    – requestinfo.Enrich
//     • security headers                         – middleware.Security
//     • HTTPS redirect when configured           – middleware.ForceHTTPS
//     • /metrics and /healthz, then every component at “/”
//
//  7. Serve until SIGINT or SIGTERM, then drain and close components.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/adept-booking/internal/component"
	"github.com/yanizio/adept-booking/internal/config"
	"github.com/yanizio/adept-booking/internal/database"
	"github.com/yanizio/adept-booking/internal/logger"
	"github.com/yanizio/adept-booking/internal/middleware"
	"github.com/yanizio/adept-booking/internal/requestinfo"
	"github.com/yanizio/adept-booking/internal/server"

	_ "github.com/yanizio/adept-booking/components/booking" // booking page + process endpoint
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logOut, err := logger.New(logger.Options{
		Dir:        cfg.Log.Dir,
		Level:      cfg.Log.Level,
		Tee:        runningInTTY(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logOut); err != nil {
		logOut.Errorw("adept-booking stopped", "err", err)
		logOut.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logOut *zap.SugaredLogger) error {
	//
	// ── 3.  GeoIP (optional) ────────────────────────────────────────────
	//
	if cfg.Geo.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
			logOut.Warnw("geoip disabled", "path", cfg.Geo.DBPath, "err", err)
		} else {
			defer requestinfo.CloseGeo()
		}
	}

	//
	// ── 4.  Database (optional) ─────────────────────────────────────────
	//
	comps := component.All()
	var db *sqlx.DB
	if cfg.Database.DSN != "" {
		opt := database.DefaultOptions
		opt.MaxOpen = cfg.Database.MaxOpen
		opt.MaxIdle = cfg.Database.MaxIdle

		logOut.Infow("connecting to database")
		var err error
		if db, err = database.OpenWithOptions(ctx, cfg.Database.ResolvedDSN(), opt); err != nil {
			return err
		}
		defer db.Close()

		if err := component.Migrate(ctx, db, comps); err != nil {
			return err
		}
		logOut.Infow("database online", "components", len(comps))
	} else {
		logOut.Warnw("no database configured; submissions will not be stored")
	}

	//
	// ── 5.  Components ──────────────────────────────────────────────────
	//
	env := component.Env{Config: cfg, DB: db, Log: logOut}
	for _, c := range comps {
		if err := c.Init(env); err != nil {
			return err
		}
	}
	defer func() {
		for _, c := range comps {
			if cl, ok := c.(interface{ Close() }); ok {
				cl.Close()
			}
		}
	}()

	//
	// ── 6.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(requestinfo.Enrich, middleware.Security)
	if cfg.HTTP.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthz(comps))
	for _, c := range comps {
		n, err := mount(r, c.Routes())
		if err != nil {
			return err
		}
		logOut.Infow("component mounted", "component", c.Name(), "routes", n)
	}

	//
	// ── 7.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r)
	return server.Run(ctx, srv, cfg.HTTP.ShutdownTimeout)
}

// mount copies every route of sub onto r.  Components all live at “/”, so
// chi's Mount, which claims the whole subtree, would allow only one.
func mount(r chi.Router, sub chi.Routes) (int, error) {
	n := 0
	err := chi.Walk(sub, func(method, route string, h http.Handler, mws ...func(http.Handler) http.Handler) error {
		r.Method(method, route, chi.Chain(mws...).Handler(h))
		n++
		return nil
	})
	return n, err
}

// healthz reports 503 when any component that can be pinged fails.
func healthz(comps []component.Component) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, c := range comps {
			p, ok := c.(interface{ Ping(context.Context) error })
			if !ok {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				zap.S().Warnw("health check failed", "component", c.Name(), "err", err)
				http.Error(w, c.Name()+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}
