// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web mounts every
// component’s Routes() at “/” and, before serving, invokes Init() with the
// process-wide Env, then applies Migrations() when a database is present.

package component

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/adept-booking/internal/config"
)

// Env exposes process resources to Components during Init.
type Env struct {
	Config *config.Config
	DB     *sqlx.DB // nil when no DSN is configured
	Log    *zap.SugaredLogger
}

// Initializer is called once, after config and database are ready and
// before Routes() is mounted.
type Initializer interface {
	Init(Env) error
}

// Component contract.
//
// Migrations() may return nil if the component has no schema changes.
// Statements must be idempotent (CREATE TABLE IF NOT EXISTS …).
// Routes() should mount BOTH page and API endpoints, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/booking", c.handlePage)
//	r.Post("/process", c.handleProcess)
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
	Migrations() []string
	Initializer // embed so every Component is initialised the same way
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// Lookup returns the component registered under name.
func Lookup(name string) (Component, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// All returns every registered component sorted by name, so mount order
// and migration order are stable across runs.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Migrate runs every statement of every component in order.  The first
// failure aborts with the component name attached.
func Migrate(ctx context.Context, db *sqlx.DB, comps []Component) error {
	for _, c := range comps {
		for i, stmt := range c.Migrations() {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("component %s: migration %d: %w", c.Name(), i, err)
			}
		}
	}
	return nil
}
