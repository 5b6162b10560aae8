package ui

import (
	"fmt"
	"io"
	"strings"
)

// Reporter prints check results at three severities and remembers whether any
// failure was reported. Passes are only printed in verbose mode; warnings and
// failures are always printed.
type Reporter struct {
	w       io.Writer
	verbose bool

	passes   int
	warnings []string
	failures []string
}

// NewReporter returns a Reporter writing to w.
func NewReporter(w io.Writer, verbose bool) *Reporter {
	return &Reporter{w: w, verbose: verbose}
}

// Verbose reports whether passes and details are printed.
func (r *Reporter) Verbose() bool {
	return r.verbose
}

// Section starts a titled group of results.
func (r *Reporter) Section(title string) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, SectionHeader(title))
}

// Pass records a successful check.
func (r *Reporter) Pass(format string, args ...any) {
	r.passes++
	if r.verbose {
		fmt.Fprintln(r.w, SuccessLine(fmt.Sprintf(format, args...)))
	}
}

// Warn records a surprising but survivable condition.
func (r *Reporter) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.warnings = append(r.warnings, msg)
	fmt.Fprintln(r.w, WarningLine(msg))
}

// Fail records an inconsistency; the run will exit non-zero.
func (r *Reporter) Fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.failures = append(r.failures, msg)
	fmt.Fprintln(r.w, ErrorLine(msg))
}

// Info prints a neutral line.
func (r *Reporter) Info(format string, args ...any) {
	fmt.Fprintln(r.w, InfoLine(fmt.Sprintf(format, args...)))
}

// Detail prints indented supporting text in verbose mode only.
func (r *Reporter) Detail(text string) {
	if !r.verbose || text == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintln(r.w, "      "+line)
	}
}

// Failed reports whether any failure was recorded.
func (r *Reporter) Failed() bool {
	return len(r.failures) > 0
}

// Counts returns the pass, warning and failure tallies.
func (r *Reporter) Counts() (passes, warnings, failures int) {
	return r.passes, len(r.warnings), len(r.failures)
}

// Warnings returns the recorded warning messages in order.
func (r *Reporter) Warnings() []string {
	return append([]string(nil), r.warnings...)
}

// Failures returns the recorded failure messages in order.
func (r *Reporter) Failures() []string {
	return append([]string(nil), r.failures...)
}

// Summary prints the final tallies.
func (r *Reporter) Summary() {
	passes, warnings, failures := r.Counts()
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "  "+Divider(40))
	line := fmt.Sprintf("%d passed, %d warnings, %d failures", passes, warnings, failures)
	switch {
	case failures > 0:
		fmt.Fprintf(r.w, "  %s %s\n", StatusError(), RenderError(line))
	case warnings > 0:
		fmt.Fprintf(r.w, "  %s %s\n", StatusWarn(), RenderWarning(line))
	default:
		fmt.Fprintf(r.w, "  %s %s\n", StatusOK(), RenderSuccess(line))
	}
}
