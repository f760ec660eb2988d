// internal/booking/store.go
//
// Persistence for accepted booking requests.
//
// Context
// -------
// The `store` form action hands a validated, cleaned map to
// Store.SaveSubmission.  Known fields land in their own columns so staff
// can query them directly; the complete map is kept as a JSON payload so
// enrichment keys added later never require a migration.
//
//	booking_request (id PK, form_id, name, email, phone, service, message,
//	                 consent, country, user_agent, payload, created_at)
//
// Notes
// -----
//   - The table name comes from YAML and is checked by the form package
//     before it reaches this file.  It is never taken from the request.
//   - Oxford commas, two spaces after periods.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/adept-booking/internal/form"
)

// DefaultTable receives submissions when the action names no table.
const DefaultTable = "booking_request"

// Record is one booking_request row.
type Record struct {
	FormID    string    `db:"form_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Service   string    `db:"service"`
	Message   string    `db:"message"`
	Consent   bool      `db:"consent"`
	Country   string    `db:"country"`
	UserAgent string    `db:"user_agent"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

// Store writes Records through sqlx.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore binds a Store to db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SaveSubmission implements form.Storer.
func (s *Store) SaveSubmission(ctx context.Context, table, formID string, data map[string]string) error {
	rec, err := s.record(formID, data)
	if err != nil {
		return err
	}
	q := `INSERT INTO ` + table + ` (form_id, name, email, phone, service, message,
	        consent, country, user_agent, payload, created_at)
	      VALUES (:form_id, :name, :email, :phone, :service, :message,
	        :consent, :country, :user_agent, :payload, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("booking: insert %s: %w", table, err)
	}
	return nil
}

// record maps the flat submission onto the row shape.
func (s *Store) record(formID string, data map[string]string) (Record, error) {
	pairs := make([]form.Pair, 0, len(data))
	for _, k := range sortedKeys(data) {
		pairs = append(pairs, form.Pair{Name: k, Value: data[k]})
	}
	payload, err := form.Submission{Pairs: pairs}.MarshalJSON()
	if err != nil {
		return Record{}, fmt.Errorf("booking: payload: %w", err)
	}
	return Record{
		FormID:    formID,
		Name:      data[form.FieldName.Key()],
		Email:     data[form.FieldEmail.Key()],
		Phone:     data[form.FieldPhone.Key()],
		Service:   data[form.FieldService.Key()],
		Message:   data[form.FieldMessage.Key()],
		Consent:   data[form.FieldConsent.Key()] != "",
		Country:   data[KeyCountry],
		UserAgent: data[KeyUserAgent],
		Payload:   string(payload),
		CreatedAt: s.now().UTC(),
	}, nil
}
