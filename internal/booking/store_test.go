// internal/booking/store_test.go
//
// Unit-tests for the booking store and service catalog using sqlmock.
//
// Run: go test ./internal/booking -v

package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/adept-booking/internal/form"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestSaveSubmission(t *testing.T) {
	db, mock := newMock(t)
	s := NewStore(db)
	fixed := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	data := map[string]string{
		"name":       "Jane Doe",
		"email":      "jane@example.com",
		"message":    "Hello there, booking please.",
		"consent":    "yes",
		"form_id":    "booking/quick",
		KeyCountry:   "NZ",
		KeyUserAgent: "Mozilla/5.0",
	}
	payload := `{"consent":"yes","country":"NZ","email":"jane@example.com","form_id":"booking/quick",` +
		`"message":"Hello there, booking please.","name":"Jane Doe","user_agent":"Mozilla/5.0"}`

	mock.ExpectExec(`INSERT INTO booking_request \(form_id, name, email`).
		WithArgs("booking/quick", "Jane Doe", "jane@example.com", "", "",
			"Hello there, booking please.", true, "NZ", "Mozilla/5.0", payload, fixed).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.SaveSubmission(context.Background(), DefaultTable, "booking/quick", data); err != nil {
		t.Fatalf("SaveSubmission error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSaveSubmissionError(t *testing.T) {
	db, mock := newMock(t)
	s := NewStore(db)

	mock.ExpectExec(`INSERT INTO archive`).WillReturnError(errors.New("disk full"))

	err := s.SaveSubmission(context.Background(), "archive", "booking/full", map[string]string{})
	if err == nil {
		t.Fatalf("SaveSubmission error = nil, want failure")
	}
}

func TestCatalogCachesUntilTTL(t *testing.T) {
	db, mock := newMock(t)
	c := NewCatalog(db, time.Minute)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"slug", "name"}).
			AddRow("massage", "Massage").
			AddRow("facial", "Facial")
	}
	mock.ExpectQuery(`SELECT slug, name\s+FROM service`).WillReturnRows(rows())

	ctx := context.Background()
	got, err := c.Services(ctx)
	if err != nil {
		t.Fatalf("Services error: %v", err)
	}
	if len(got) != 2 || got[0].Slug != "massage" || got[1].Name != "Facial" {
		t.Fatalf("unexpected result: %#v", got)
	}

	// Within the TTL no query runs.
	now = now.Add(30 * time.Second)
	if _, err := c.Services(ctx); err != nil {
		t.Fatalf("cached Services error: %v", err)
	}

	// After the TTL the list reloads.
	now = now.Add(time.Minute)
	mock.ExpectQuery(`SELECT slug, name\s+FROM service`).
		WillReturnRows(sqlmock.NewRows([]string{"slug", "name"}).AddRow("yoga", "Yoga"))
	got, err = c.Services(ctx)
	if err != nil || len(got) != 1 || got[0].Slug != "yoga" {
		t.Fatalf("reload = %#v, %v", got, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCatalogKeepsStaleListOnError(t *testing.T) {
	db, mock := newMock(t)
	c := NewCatalog(db, time.Minute)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	mock.ExpectQuery(`SELECT slug, name`).
		WillReturnRows(sqlmock.NewRows([]string{"slug", "name"}).AddRow("massage", "Massage"))
	mock.ExpectQuery(`SELECT slug, name`).WillReturnError(errors.New("connection reset"))

	ctx := context.Background()
	if _, err := c.Services(ctx); err != nil {
		t.Fatalf("first load: %v", err)
	}
	now = now.Add(2 * time.Minute)
	got, err := c.Services(ctx)
	if err == nil {
		t.Fatalf("reload error = nil, want failure")
	}
	if len(got) != 1 || got[0].Slug != "massage" {
		t.Fatalf("stale list = %#v, want previous entries", got)
	}
}

func TestCatalogAllowed(t *testing.T) {
	fd := &form.FormDef{ID: "x", Fields: []form.FieldDef{
		{Name: form.FieldService, Label: "Service", Type: "select", Options: []string{"a", "b"}},
	}}

	// No database: the YAML options decide.
	var empty *Catalog
	if !empty.Allowed(context.Background(), fd, "a") {
		t.Fatalf("YAML option rejected")
	}
	if empty.Allowed(context.Background(), fd, "z") {
		t.Fatalf("unlisted option accepted")
	}
	if !empty.Allowed(context.Background(), &form.FormDef{ID: "y"}, "anything") {
		t.Fatalf("free value rejected without catalog or options")
	}
	if empty.Allowed(context.Background(), fd, "") {
		t.Fatalf("empty value accepted")
	}

	// A populated catalog overrides the YAML options.
	db, mock := newMock(t)
	c := NewCatalog(db, time.Minute)
	mock.ExpectQuery(`SELECT slug, name`).
		WillReturnRows(sqlmock.NewRows([]string{"slug", "name"}).AddRow("z", "Zed"))
	if !c.Allowed(context.Background(), fd, "z") {
		t.Fatalf("catalog entry rejected")
	}
	if c.Allowed(context.Background(), fd, "a") {
		t.Fatalf("YAML option accepted while catalog is populated")
	}
}
