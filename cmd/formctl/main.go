// cmd/formctl/main.go
//
// formctl – drive the booking page from a terminal.
//
// Context
// -------
// formctl loads a booking page, fills the first form, and runs the same
// submit workflow a browser runs: inline validation on blur, a delayed
// JSON POST, a toast for the outcome, and the redirect on success.  It is
// used for smoke tests against a deployed site and for checking form
// definitions without opening a browser.
//
//	formctl submit   --url https://example.com/booking --name "Jane Doe" ...
//	formctl submit   --url https://example.com/booking --interactive
//	formctl validate --url https://example.com/booking --email nope
//
// Exit status is 0 on success, 1 on a usage or page error, and 2 when the
// workflow ended in any outcome other than success.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/adept-booking/internal/logger"
)

// errOutcome marks a run that completed but did not succeed.
var errOutcome = errors.New("formctl: submission did not succeed")

var (
	pageURL   string
	userAgent string
	quiet     bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "formctl",
	Short:         "formctl drives an Adept booking form headlessly",
	Long:          `Load a booking page, fill its form, and submit it through the same workflow the page script runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&pageURL, "url", "http://localhost:8080/booking", "booking page URL")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "User-Agent header (default: desktop Chrome)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log warnings and errors only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug detail")
}

// newLogger builds the stderr logger selected by --quiet and --verbose.
func newLogger() *zap.SugaredLogger {
	level := zapcore.InfoLevel
	switch {
	case quiet:
		level = zapcore.WarnLevel
	case verbose:
		level = zapcore.DebugLevel
	}
	return logger.NewConsole(os.Stderr, level)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errOutcome) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
