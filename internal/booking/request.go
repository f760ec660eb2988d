// internal/booking/request.go
//
// Typed view of a cleaned submission plus its struct validation.
//
// Context
// -------
// form.CheckSubmission has already applied the field rules the page
// applies.  Request adds what only the server can know: column length
// caps, a well-formed country code, and membership of the chosen service
// in the live catalog.  The custom tags reuse the form predicates so the
// two layers can never disagree about what a valid name is.
//
// Notes
// -----
//   - Tags are keyed by json name through RegisterTagNameFunc, so the error
//     map uses the same keys the page uses for its fields.
//   - Oxford commas, two spaces after periods.
package booking

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/adept-booking/internal/form"
)

// Request is the server-side model of one booking.
type Request struct {
	FormID    string `json:"form_id"    validate:"required,max=64"`
	Name      string `json:"name"       validate:"required,booking_name"`
	Email     string `json:"email"      validate:"required,max=254,booking_email"`
	Phone     string `json:"phone"      validate:"omitempty,booking_phone"`
	Service   string `json:"service"    validate:"omitempty,max=64,booking_service"`
	Message   string `json:"message"    validate:"required,max=5000,booking_message"`
	Consent   bool   `json:"consent"`
	Country   string `json:"country"    validate:"omitempty,len=2,alpha"`
	UserAgent string `json:"user_agent" validate:"max=512"`
}

// NewRequest lifts the clean map into a Request.
func NewRequest(data map[string]string) Request {
	return Request{
		FormID:    data[form.MetaFormID],
		Name:      data[form.FieldName.Key()],
		Email:     data[form.FieldEmail.Key()],
		Phone:     data[form.FieldPhone.Key()],
		Service:   data[form.FieldService.Key()],
		Message:   data[form.FieldMessage.Key()],
		Consent:   data[form.FieldConsent.Key()] != "",
		Country:   data[KeyCountry],
		UserAgent: data[KeyUserAgent],
	}
}

//
// validator wiring
//

// ServiceCheck decides catalog membership for the booking_service tag.
type ServiceCheck func(slug string) bool

type serviceCheckKey struct{}

// WithServiceCheck attaches fn for the next ValidateRequest call.
func WithServiceCheck(ctx context.Context, fn ServiceCheck) context.Context {
	return context.WithValue(ctx, serviceCheckKey{}, fn)
}

// NewValidate returns a validator with the booking tags registered.
func NewValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("booking_name", stringRule(form.ValidName))
	_ = v.RegisterValidation("booking_email", stringRule(form.ValidEmail))
	_ = v.RegisterValidation("booking_phone", stringRule(form.ValidPhone))
	_ = v.RegisterValidation("booking_message", stringRule(form.ValidMessage))
	_ = v.RegisterValidationCtx("booking_service", func(ctx context.Context, fl validator.FieldLevel) bool {
		fn, _ := ctx.Value(serviceCheckKey{}).(ServiceCheck)
		if fn == nil {
			return true
		}
		return fn(fl.Field().String())
	})
	return v
}

func stringRule(pred func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pred(fl.Field().String())
	}
}

// ValidateRequest runs v against req and converts failures into a form
// validation error keyed by field name.
func ValidateRequest(ctx context.Context, v *validator.Validate, req Request) error {
	err := v.StructCtx(ctx, req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]form.ErrorField, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, form.ErrorField{Name: fe.Field(), Message: messageFor(fe)})
	}
	return form.NewValidationError(fields)
}

// messageFor reuses the page's wording where a field has one.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "This value is too long"
	case "booking_service":
		return "Please select a service from the list"
	}
	switch form.FieldID(fe.Field()) {
	case form.FieldName:
		return form.MsgName
	case form.FieldEmail:
		return form.MsgEmail
	case form.FieldPhone:
		return form.MsgPhone
	case form.FieldService:
		return form.MsgService
	case form.FieldMessage:
		return form.MsgMessage
	}
	return "This value is invalid"
}
