// internal/form/csrf.go
//
// Adept Booking – Forms subsystem: stateless CSRF token utilities.
//
// Context
//   The booking page embeds a hidden `csrf_token` input generated at render
//   time.  The process endpoint verifies this token to ensure the request
//   originated from a form it rendered.  We implement a *stateless* token:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.  Prevents replay across visitors.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – calculated with the configured secret.  Verifies authenticity.
//
//   Validation checks the signature and ensures the timestamp is within
//   MaxAge.  No server-side sessions are required, keeping the system cache-
//   friendly and multi-instance safe.
//
// Workflow
//   •  NewCSRF(key)    → signer bound to a base64url key (or a random one).
//   •  c.Generate()    → returns token string for renderer.
//   •  c.Verify(tok)   → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	csrfMaxAge = 2 * time.Hour        // token valid window
	clockSkew  = time.Minute
)

// CSRF signs and verifies form tokens.
type CSRF struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCSRF binds a signer to key, a base64url string of at least 32 bytes.
// When key is empty or malformed a random key is generated and a warning
// logged; tokens then reset on restart.
func NewCSRF(key string) *CSRF {
	c := &CSRF{maxAge: csrfMaxAge, now: time.Now}
	if key != "" {
		if b, err := base64.RawURLEncoding.DecodeString(key); err == nil && len(b) >= 32 {
			c.secret = b
			return c
		}
	}
	c.secret = make([]byte, 32)
	_, _ = rand.Read(c.secret)
	zap.S().Warnw("csrf key not set or too short, using random key")
	return c
}

// Generate creates a new CSRF token.  Call once per form render.
func (c *CSRF) Generate() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok passes HMAC and age checks.
func (c *CSRF) Verify(tok string) bool {
	if tok == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Future timestamp (clock skew) or older than maxAge.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := c.now()
	if now.Sub(issued) > c.maxAge || issued.Sub(now) > clockSkew {
		return false
	}

	return hmac.Equal(sig, c.sign(nonce, tsBytes))
}

func (c *CSRF) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
