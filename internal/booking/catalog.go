// internal/booking/catalog.go
//
// Service catalog: the options behind the booking form's service select.
//
// Context
// -------
// Services live in the `service` table so staff can add or retire them
// without a deploy.  Every page render and every submission needs the
// list, so it is cached for a TTL and reloaded lazily.  Concurrent misses
// collapse into one query through singleflight.
//
// A Catalog without a database is empty.  Callers then fall back to the
// options declared in the form YAML.
package booking

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/metrics"
)

// DefaultCatalogTTL bounds how stale the cached list may get.
const DefaultCatalogTTL = 5 * time.Minute

// Service is one selectable service.
type Service struct {
	Slug string `db:"slug"`
	Name string `db:"name"`
}

// Catalog caches the active services.
type Catalog struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
	sfg singleflight.Group

	mu       sync.RWMutex
	items    []Service
	loadedAt time.Time
}

// NewCatalog returns a Catalog reading from db.  A nil db yields an empty
// catalog; ttl <= 0 selects DefaultCatalogTTL.
func NewCatalog(db *sqlx.DB, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &Catalog{db: db, ttl: ttl, now: time.Now}
}

// Services returns the cached list, reloading it when the TTL has passed.
// On a reload error the previous list is returned with the error so a
// database blip does not blank the form.
func (c *Catalog) Services(ctx context.Context) ([]Service, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}

	c.mu.RLock()
	items, fresh := c.items, !c.loadedAt.IsZero() && c.now().Sub(c.loadedAt) < c.ttl
	c.mu.RUnlock()
	if fresh {
		return items, nil
	}

	v, err, _ := c.sfg.Do("services", func() (any, error) {
		const q = `SELECT slug, name
		             FROM service
		            WHERE active = TRUE
		         ORDER BY sort_order, name`

		var rows []Service
		if err := c.db.SelectContext(ctx, &rows, q); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items, c.loadedAt = rows, c.now()
		c.mu.Unlock()

		metrics.CatalogRefreshTotal.Inc()
		metrics.CatalogSize.Set(float64(len(rows)))
		return rows, nil
	})
	if err != nil {
		zap.S().Warnw("service catalog reload failed", "err", err)
		return items, err
	}
	return v.([]Service), nil
}

// Options converts the services for form.RenderOptions.  Errors are logged
// by Services; a failed first load returns nil so the YAML options apply.
func (c *Catalog) Options(ctx context.Context) []form.Option {
	items, _ := c.Services(ctx)
	if len(items) == 0 {
		return nil
	}
	out := make([]form.Option, 0, len(items))
	for _, s := range items {
		out = append(out, form.Option{Value: s.Slug, Label: s.Name})
	}
	return out
}

// Allowed reports whether value is a selectable service for fd.  The
// catalog wins when it has entries, then the YAML options; with neither,
// any non-empty value passes.
func (c *Catalog) Allowed(ctx context.Context, fd *form.FormDef, value string) bool {
	if value == "" {
		return false
	}
	if opts := c.Options(ctx); len(opts) > 0 {
		for _, o := range opts {
			if o.Value == value {
				return true
			}
		}
		return false
	}
	if fd != nil {
		if f, ok := fd.Field(form.FieldService); ok && len(f.Options) > 0 {
			for _, o := range f.Options {
				if o == value {
					return true
				}
			}
			return false
		}
	}
	return true
}
