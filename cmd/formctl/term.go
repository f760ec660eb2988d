package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/yanizio/adept-booking/internal/driver"
	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/notify"
)

var (
	toastBase = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	toastSuccess = toastBase.
			BorderForeground(lipgloss.Color("#2E9E5B")).
			Foreground(lipgloss.Color("#2E9E5B"))
	toastDanger = toastBase.
			BorderForeground(lipgloss.Color("#D9534F")).
			Foreground(lipgloss.Color("#D9534F"))

	heading  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Width(10)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// console is a notify.Surface that prints each toast as it appears.
// Exits and removals are not drawn; the report lists what is left.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

var _ notify.Surface = (*console)(nil)

func newConsole(w io.Writer) *console { return &console{w: w} }

func (t *console) Append(toast notify.Toast) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, renderToast(toast.Severity, toast.Text))
}

func (t *console) Exit(notify.ID)   {}
func (t *console) Remove(notify.ID) {}

func renderToast(sev notify.Severity, text string) string {
	if sev == notify.Success {
		return toastSuccess.Render("✓ " + text)
	}
	return toastDanger.Render("✗ " + text)
}

// report renders the final summary.
func (t *console) report(rep *driver.Report) string {
	var b strings.Builder
	b.WriteString(heading.Render("booking form "+rep.FormID) + "\n")

	line := func(k, v string) {
		if v != "" {
			b.WriteString(keyStyle.Render(k) + v + "\n")
		}
	}
	outcome := rep.Outcome().String()
	if rep.Outcome() == form.OutcomeNone && rep.Verdict.Valid {
		outcome = "valid"
	}
	line("outcome", outcome)
	if rep.Result.Message != "" {
		line("server", rep.Result.Message)
	}
	if rep.Result.Err != nil {
		line("error", rep.Result.Err.Error())
	}
	line("redirect", rep.Location)
	line("landing", rep.Landing)

	ids := make([]string, 0, len(rep.Errors))
	for id := range rep.Errors {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		b.WriteString(keyStyle.Render(id) + errStyle.Render(rep.Errors[form.FieldID(id)]) + "\n")
	}
	return b.String()
}
