// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance and applies
// defaults.  Any tag mismatch or validation error aborts startup, ensuring
// the binary never runs with partial, malformed, or missing configuration.
//
// Besides the built-in tags two booking rules are registered here:
//
//   • `dsn_template` – a DSN may carry at most one %s verb, the slot the
//     password is spliced into.
//   • a struct-level rule on Database – a DSN with a %s slot needs a
//     password, otherwise the driver would dial with the literal "%s".
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.
//   • Section dividers use the simple comment style requested.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("dsn_template", func(fl validator.FieldLevel) bool {
		return strings.Count(fl.Field().String(), "%s") <= 1
	})
	val.RegisterStructValidation(func(sl validator.StructLevel) {
		db := sl.Current().Interface().(Database)
		if strings.Contains(db.DSN, "%s") && db.Password == "" {
			sl.ReportError(db.Password, "Password", "password", "required_with_dsn_slot", "")
		}
	}, Database{})
	return val
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
