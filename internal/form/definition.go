// internal/form/definition.go
//
// Adept Booking – Forms subsystem: YAML definition loader.
//
// Context
//   Each booking form variant is declared in a YAML file.  The file names
//   the variant, lists which of the fixed fields it carries (with labels,
//   control types, and placeholders), and declares post-submit actions.
//   Rules are NOT part of the YAML; a field's identity selects its rule.
//   At start-up we parse every “*.yaml” under “components/<comp>/forms/”
//   (disk) or an embedded forms directory and keep the resulting FormDef in
//   an in-memory registry keyed by ID.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef / ActionDef.
//   •  LoadFormDef / ParseFormDef parse a single YAML document and validate
//      structural rules.
//   •  RegisterForms walks base directories; RegisterFormsFS walks an fs.FS.
//      Earlier directories take precedence over later ones.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
// Style
//   Comments follow Adept’s guide: full sentences, two spaces after periods,
//   Oxford commas, and clear roles.  Helper comments use short noun phrases.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnknownForm is returned when a form ID is not registered.
var ErrUnknownForm = errors.New("form: unknown form")

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form variant loaded from YAML.
//
// The form is uniquely identified by ID which should be namespaced by
// component, e.g. “booking/full”.  Actions are executed after successful
// server-side validation.
type FormDef struct {
	ID       string      `yaml:"id"`       // Component-scoped identifier.
	Title    string      `yaml:"title"`    // Display title, optional.
	Endpoint string      `yaml:"endpoint"` // Process URL, defaults to config.
	Submit   string      `yaml:"submit"`   // Button label, defaults to "Submit".
	Fields   []FieldDef  `yaml:"fields"`   // Fields in rendering order.
	Actions  []ActionDef `yaml:"actions"`  // Post-submit actions.  May be empty.
}

// FieldDef describes one control.  Name must be a known FieldID.
type FieldDef struct {
	Name        FieldID  `yaml:"name"`        // Identity and submission key.
	Label       string   `yaml:"label"`       // Human-readable label.
	Type        string   `yaml:"type"`        // text, email, tel, select, textarea, checkbox.
	Placeholder string   `yaml:"placeholder"` // Optional placeholder text.
	Options     []string `yaml:"options"`     // Static select options; the catalog overrides.
}

// ActionDef configures an automated action executed after validation.
//
// Action types are loosely typed so new kinds can be introduced without schema
// churn.  Unknown keys are tolerated here; executor code will validate later.
type ActionDef struct {
	Type   string         `yaml:"type"`    // email, store, webhook.
	Params map[string]any `yaml:",inline"` // Provider-specific fields inline.
}

// Has reports whether the definition declares id.
func (fd *FormDef) Has(id FieldID) bool {
	_, ok := fd.Field(id)
	return ok
}

// Field returns the definition for id.
func (fd *FormDef) Field(id FieldID) (FieldDef, bool) {
	for _, f := range fd.Fields {
		if f.Name == id {
			return f, true
		}
	}
	return FieldDef{}, false
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// registry maps compositeID (“comp/form”) → *FormDef.  Guarded by mutex.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by composite ID (“component/form”).
// The boolean is false when the ID is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// FormIDs lists registered IDs.
func FormIDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}

// Register inserts fd unless a definition with the same ID already exists.
// It reports whether fd was stored.  Caller must ensure fd passed
// validation.
func Register(fd *FormDef) bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[fd.ID]; dup {
		return false
	}
	registry[fd.ID] = fd
	return true
}

// resetRegistry is used by tests.
func resetRegistry() {
	registryMu.Lock()
	registry = make(map[string]*FormDef)
	registryMu.Unlock()
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// LoadFormDef parses one YAML file, validates its structure, and returns a
// populated FormDef.  It NEVER mutates the global registry.
func LoadFormDef(path string) (*FormDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseFormDef(raw, path)
}

// ParseFormDef is LoadFormDef for bytes already in memory.  src names the
// document in errors.
func ParseFormDef(raw []byte, src string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := validateFormDef(&fd, src); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterForms walks one or more base directories and loads every “*.yaml”
// under “components/*/forms/”.  The dirs slice must be ordered by precedence,
// with override directories BEFORE the default directory.
//
// Example:
//
//	err := form.RegisterForms([]string{
//	    "/etc/adept-booking/override", // local overrides
//	    "/srv/adept-booking",          // defaults
//	})
func RegisterForms(baseDirs []string) error {
	if len(baseDirs) == 0 {
		return errors.New("RegisterForms: no base directories provided")
	}

	for _, base := range baseDirs {
		formsRoot := filepath.Join(base, "components")
		err := filepath.WalkDir(formsRoot, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
				return nil // skip non-YAML
			}
			if filepath.Base(filepath.Dir(p)) != "forms" {
				return nil
			}

			fd, err := LoadFormDef(p)
			if err != nil {
				return err // fail fast so issues surface loudly.
			}
			Register(fd)
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err // propagate IO or parse errors.
		}
	}

	return nil
}

// RegisterFormsFS loads every “*.yaml” directly under dir in fsys.  Forms
// already registered (from disk overrides) win.
func RegisterFormsFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read forms dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, e.Name())
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", p, err)
		}
		fd, err := ParseFormDef(raw, p)
		if err != nil {
			return err
		}
		Register(fd)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone.  It returns a descriptive error referencing the offending file.
func validateFormDef(fd *FormDef, src string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", src)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", src)
	}

	seen := make(map[FieldID]struct{})
	for i := range fd.Fields {
		if err := validateField(&fd.Fields[i], src); err != nil {
			return err
		}
		if _, dup := seen[fd.Fields[i].Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", src, fd.Fields[i].Name)
		}
		seen[fd.Fields[i].Name] = struct{}{}
	}

	// Unknown action types are allowed for forward compatibility but emit a
	// warning so developers notice.
	validActions := map[string]bool{
		"email":   true,
		"store":   true,
		"webhook": true,
	}
	for _, ac := range fd.Actions {
		if !validActions[ac.Type] {
			zap.S().Warnw("unrecognized form action", "form", fd.ID, "action", ac.Type)
		}
	}

	return nil
}

// defaultType maps each identity to the control a page uses for it.
var defaultType = map[FieldID]string{
	FieldName:     "text",
	FieldEmail:    "email",
	FieldPhone:    "tel",
	FieldService:  "select",
	FieldMessage:  "textarea",
	FieldConsent:  "checkbox",
	FieldHoneypot: "text",
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, src string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", src)
	}
	if !f.Name.Known() {
		return fmt.Errorf("form %s: unknown field '%s'", src, f.Name)
	}
	if f.Type == "" {
		f.Type = defaultType[f.Name]
	}
	if f.Label == "" && f.Name != FieldHoneypot {
		return fmt.Errorf("form %s: field '%s' missing 'label'", src, f.Name)
	}
	switch f.Type {
	case "text", "email", "tel", "select", "textarea", "checkbox":
	default:
		return fmt.Errorf("form %s: field '%s' unsupported type %q", src, f.Name, f.Type)
	}
	return nil
}
