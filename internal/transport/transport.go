// internal/transport/transport.go
//
// JSON-over-HTTP delivery of a booking submission.
//
// Context
// -------
// The workflow hands over a form.Submission and expects one of three
// outcomes back:
//
//   - Succeeded  2xx, well-formed JSON, `success` is boolean true.
//   - Rejected   2xx, well-formed JSON, anything else.  The server's
//                `message` is kept for logs.
//   - Failed     transport error, non-2xx status, or a body that is not
//                JSON at all.
//
// Only the `success` and `message` keys are read, with tidwall/gjson, so
// no schema beyond that is imposed on the server.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/workflow"
)

var _ workflow.Transport = (*HTTP)(nil)

// Sentinel errors carried in form.Result.Err.
var (
	ErrStatus  = errors.New("transport: non-2xx response")
	ErrBadBody = errors.New("transport: response is not JSON")
)

const maxBody = 1 << 20

// HTTP posts submissions to one endpoint.
type HTTP struct {
	endpoint string
	client   *http.Client
}

// NewHTTP returns a transport for endpoint.  A nil client gets a 30 s
// timeout.
func NewHTTP(endpoint string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{endpoint: endpoint, client: client}
}

// Endpoint returns the target URL.
func (h *HTTP) Endpoint() string { return h.endpoint }

// Send implements workflow.Transport.
func (h *HTTP) Send(ctx context.Context, s form.Submission) form.Result {
	body, err := s.MarshalJSON()
	if err != nil {
		return form.Failed(fmt.Errorf("transport: encode: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return form.Failed(fmt.Errorf("transport: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return form.Failed(fmt.Errorf("transport: post %s: %w", h.endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return form.Failed(fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return form.Failed(fmt.Errorf("transport: read body: %w", err))
	}
	return Classify(raw)
}

// Classify maps a 2xx response body to an outcome.
func Classify(raw []byte) form.Result {
	if !gjson.ValidBytes(raw) {
		return form.Failed(ErrBadBody)
	}
	if gjson.GetBytes(raw, "success").Type == gjson.True {
		return form.Succeeded()
	}
	return form.Rejected(gjson.GetBytes(raw, "message").String())
}
