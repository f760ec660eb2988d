// internal/message/webhook.go
//
// Asynchronous webhook delivery.

package message

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-booking/internal/metrics"
)

// Webhooks posts requests in the background.
type Webhooks struct {
	client  *http.Client
	timeout time.Duration
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

// NewWebhooks returns a sender using client (http.DefaultClient when nil).
func NewWebhooks(client *http.Client, timeout time.Duration, log *zap.SugaredLogger) *Webhooks {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhooks{client: client, timeout: timeout, log: log}
}

// EnqueueWebhook schedules req and returns immediately.  The request is
// detached from the caller's cancellation and bounded by the webhook
// timeout instead.
//
// Caller constructs the *http.Request with full context (headers, JSON body).
func (w *Webhooks) EnqueueWebhook(ctx context.Context, req *http.Request) error {
	if req == nil || req.URL == nil {
		return fmt.Errorf("webhook: nil request")
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
		defer cancel()

		if err := w.do(req.WithContext(dctx)); err != nil {
			metrics.ActionErrorsTotal.WithLabelValues("webhook").Inc()
			w.log.Errorw("webhook failed", "method", req.Method, "url", req.URL.String(), "error", err)
			return
		}
		w.log.Infow("webhook delivered", "method", req.Method, "url", req.URL.String())
	}()
	return nil
}

func (w *Webhooks) do(req *http.Request) error {
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: status %d", resp.StatusCode)
	}
	return nil
}

// Wait blocks until every queued webhook has finished.
func (w *Webhooks) Wait() { w.wg.Wait() }
