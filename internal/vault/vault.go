// internal/vault/vault.go
//
// Secret references for configuration.
//
// Context
// -------
// Config values may name a secret instead of carrying it, written as
// `vault:<mount>/<path>#<key>` (database password, SMTP password, CSRF
// key).  The config loader hands each one to Client.Resolve, which reads
// the KV-v2 secret and caches the value for a few minutes so a reload does
// not hit Vault again.
//
// Connection
// ----------
// New reads VAULT_ADDR, VAULT_TOKEN, and the other standard VAULT_*
// variables.  While ctx lives, a background loop keeps the token renewed
// with the SDK's lifetime watcher.
//
// Notes
// -----
// • Only string values are returned.  Anything else is an error.
// • Oxford commas, two spaces after periods.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/yanizio/adept-booking/internal/cache"
)

// RefPrefix marks a config value that names a secret.
const RefPrefix = "vault:"

// ErrBadRef is returned for a reference that does not parse.
var ErrBadRef = errors.New("vault: reference must look like vault:<mount>/<path>#<key>")

const (
	defaultTTL   = 5 * time.Minute
	cacheEntries = 64
)

// Client resolves references.  Safe for concurrent use.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger
	ttl time.Duration
	now func() time.Time

	secrets *cache.LRU[string, secret]
}

type secret struct {
	val     string
	expires time.Time
}

// New connects using the VAULT_* environment and keeps the token renewed
// until ctx is cancelled.
func New(ctx context.Context, log *zap.SugaredLogger) (*Client, error) {
	cfg := vault.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault: config: %w", cfg.Error)
	}
	c, err := newClient(cfg, "", log)
	if err != nil {
		return nil, err
	}
	go c.keepRenewed(ctx)
	return c, nil
}

// newClient builds a Client without the renewal loop.  An empty token keeps
// whatever the SDK picked up from the environment.
func newClient(cfg *vault.Config, token string, log *zap.SugaredLogger) (*Client, error) {
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault: client: %w", err)
	}
	if token != "" {
		api.SetToken(token)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		api:     api,
		log:     log,
		ttl:     defaultTTL,
		now:     time.Now,
		secrets: cache.New[string, secret](cacheEntries),
	}, nil
}

// ParseRef splits "vault:<mount>/<path>#<key>" into path and key.
func ParseRef(ref string) (secretPath, key string, err error) {
	body, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return "", "", ErrBadRef
	}
	i := strings.LastIndexByte(body, '#')
	if i <= 0 || i == len(body)-1 {
		return "", "", ErrBadRef
	}
	secretPath, key = body[:i], body[i+1:]
	if mount, rel := splitMount(secretPath); mount == "" || rel == "" {
		return "", "", ErrBadRef
	}
	return secretPath, key, nil
}

// Resolve returns the secret a `vault:` reference names.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	p, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	id := p + "#" + key
	if s, ok := c.secrets.Get(id); ok && c.now().Before(s.expires) {
		return s.val, nil
	}

	mount, rel := splitMount(p)
	kv, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault: read %s: %w", p, err)
	}
	raw, ok := kv.Data[key]
	if !ok {
		return "", fmt.Errorf("vault: %s has no key %q", p, key)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: %s is %T, not a string", id, raw)
	}
	c.secrets.Put(id, secret{val: val, expires: c.now().Add(c.ttl)})
	c.log.Debugw("vault secret read", "path", p)
	return val, nil
}

//
// token renewal
//

func (c *Client) keepRenewed(ctx context.Context) {
	for ctx.Err() == nil {
		sleep(ctx, c.watchToken(ctx))
	}
}

// watchToken renews the token until the watcher gives up and returns how
// long to wait before trying again.
func (c *Client) watchToken(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		c.log.Warnw("vault token renew failed", "err", err)
		return 30 * time.Second
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.log.Infow("vault token is not renewable")
		return time.Hour
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		c.log.Warnw("vault watcher init failed", "err", err)
		return 30 * time.Second
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warnw("vault token renewal stopped", "err", err)
			}
			return 15 * time.Second
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
