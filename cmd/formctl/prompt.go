package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/yanizio/adept-booking/internal/driver"
	"github.com/yanizio/adept-booking/internal/form"
)

var errAborted = errors.New("formctl: prompt aborted")

// prompt asks for every field the page's form has, offering flag values as
// defaults.  The honeypot is never asked for.
func prompt(ctx context.Context, url, ua string, preset map[form.FieldID]string) (map[form.FieldID]string, error) {
	_, f, err := driver.Load(ctx, url, ua)
	if err != nil {
		return nil, err
	}

	out := make(map[form.FieldID]string, len(preset))
	for k, v := range preset {
		out[k] = v
	}
	for _, id := range form.AllFields {
		if id == form.FieldHoneypot || !f.Has(id) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := ask(id, f.Options(id), out[id])
		if err != nil {
			return nil, translateSurveyErr(err)
		}
		out[id] = v
	}
	return out, nil
}

func ask(id form.FieldID, opts []form.Option, def string) (string, error) {
	var out string
	switch id {
	case form.FieldConsent:
		var ok bool
		err := survey.AskOne(&survey.Confirm{
			Message: "I agree to the privacy policy",
			Default: def != "",
		}, &ok)
		return onOff(ok), err

	case form.FieldMessage:
		err := survey.AskOne(&survey.Multiline{
			Message: "Message",
			Default: def,
		}, &out, survey.WithValidator(ruleValidator(id)))
		return out, err

	case form.FieldService:
		labels := make([]string, 0, len(opts))
		values := make(map[string]string, len(opts))
		for _, o := range opts {
			if o.Value == "" {
				continue // placeholder
			}
			labels = append(labels, o.Label)
			values[o.Label] = o.Value
		}
		if len(labels) == 0 {
			break
		}
		p := &survey.Select{Message: "Service", Options: labels}
		for _, o := range opts {
			if o.Value != "" && o.Value == def {
				p.Default = o.Label
			}
		}
		var label string
		err := survey.AskOne(p, &label)
		return values[label], err
	}

	err := survey.AskOne(&survey.Input{
		Message: fieldLabel(id),
		Default: def,
	}, &out, survey.WithValidator(ruleValidator(id)))
	return out, err
}

// ruleValidator checks an answer with the same rule the page applies.
func ruleValidator(id form.FieldID) survey.Validator {
	var rule *form.Rule
	for _, r := range form.DefaultRules() {
		if r.Field == id {
			rule = &r
			break
		}
	}
	return func(ans any) error {
		s, _ := ans.(string)
		if rule == nil || rule.Check(form.StaticField{Val: s}) {
			return nil
		}
		return errors.New(rule.Message)
	}
}

func fieldLabel(id form.FieldID) string {
	switch id {
	case form.FieldName:
		return "Full name"
	case form.FieldEmail:
		return "Email address"
	case form.FieldPhone:
		return "Phone number"
	default:
		return string(id)
	}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return fmt.Errorf("formctl: prompt: %w", err)
}
