package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/adept-booking/internal/component"
)

type stubComp struct {
	name    string
	path    string
	pingErr error
}

func (s *stubComp) Name() string               { return s.name }
func (s *stubComp) Migrations() []string       { return nil }
func (s *stubComp) Init(component.Env) error   { return nil }
func (s *stubComp) Ping(context.Context) error { return s.pingErr }
func (s *stubComp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get(s.path, func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(s.name)) })
	return r
}

func TestMountKeepsEveryComponent(t *testing.T) {
	r := chi.NewRouter()
	for _, c := range []*stubComp{{name: "a", path: "/a"}, {name: "b", path: "/b"}} {
		n, err := mount(r, c.Routes())
		if err != nil || n != 1 {
			t.Fatalf("mount %s = %d, %v", c.name, n, err)
		}
	}
	for _, p := range []string{"/a", "/b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK || w.Body.String() != p[1:] {
			t.Fatalf("GET %s = %d %q", p, w.Code, w.Body.String())
		}
	}
}

func TestHealthz(t *testing.T) {
	ok := &stubComp{name: "ok"}
	bad := &stubComp{name: "bad", pingErr: errors.New("db down")}

	w := httptest.NewRecorder()
	healthz([]component.Component{ok})(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthy = %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	healthz([]component.Component{ok, bad})(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy = %d, want 503", w.Code)
	}
}
