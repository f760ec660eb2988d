package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanizio/adept-booking/internal/driver"
	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/workflow"
)

// fieldFlags holds one flag per known field.  Only flags the user set are
// typed into the form.
type fieldFlags struct {
	values      map[form.FieldID]*string
	consent     bool
	interactive bool
	timeout     time.Duration
	follow      bool
}

func (ff *fieldFlags) bind(cmd *cobra.Command) {
	ff.values = make(map[form.FieldID]*string)
	for _, id := range []form.FieldID{
		form.FieldName, form.FieldEmail, form.FieldPhone,
		form.FieldService, form.FieldMessage,
	} {
		ff.values[id] = cmd.Flags().String(string(id), "", "value for the "+string(id)+" field")
	}
	cmd.Flags().BoolVar(&ff.consent, "consent", false, "tick the consent checkbox")
	cmd.Flags().BoolVarP(&ff.interactive, "interactive", "i", false, "prompt for every field the page has")
	cmd.Flags().DurationVar(&ff.timeout, "timeout", 30*time.Second, "overall deadline")
}

// collect returns the values to type: set flags only.
func (ff *fieldFlags) collect(cmd *cobra.Command) map[form.FieldID]string {
	out := make(map[form.FieldID]string)
	for id, v := range ff.values {
		if cmd.Flags().Changed(string(id)) {
			out[id] = *v
		}
	}
	if cmd.Flags().Changed("consent") {
		out[form.FieldConsent] = onOff(ff.consent)
	}
	return out
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return ""
}

func init() {
	rootCmd.AddCommand(newSubmitCmd(), newValidateCmd())
}

func newSubmitCmd() *cobra.Command {
	ff := &fieldFlags{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Fill the booking form and submit it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ff, false)
		},
	}
	ff.bind(cmd)
	cmd.Flags().BoolVar(&ff.follow, "follow", true, "fetch the page the form redirects to")
	return cmd
}

func newValidateCmd() *cobra.Command {
	ff := &fieldFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Fill the booking form and report inline errors without submitting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ff, true)
		},
	}
	ff.bind(cmd)
	return cmd
}

func run(cmd *cobra.Command, ff *fieldFlags, validateOnly bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, ff.timeout)
	defer cancel()

	log := newLogger()
	defer log.Sync()

	values := ff.collect(cmd)
	if ff.interactive {
		var err error
		if values, err = prompt(ctx, pageURL, userAgent, values); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	term := newConsole(out)
	rep, err := driver.Run(ctx, driver.Options{
		URL:          pageURL,
		Values:       values,
		UserAgent:    userAgent,
		Log:          log,
		ValidateOnly: validateOnly,
		Follow:       ff.follow,
		Surface:      term,
		OnState: func(from, to workflow.State) {
			log.Debugw("workflow", "from", from, "to", to)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprint(out, term.report(rep))
	if validateOnly {
		if !rep.Verdict.Valid {
			return errOutcome
		}
		return nil
	}
	if rep.Outcome() != form.OutcomeSucceeded {
		return errOutcome
	}
	return nil
}
