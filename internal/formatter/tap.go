package formatter

import (
	"strconv"
	"strings"
)

// TAPVersion is the protocol version line written by Begin.
const TAPVersion = "TAP version 13"

// TAP renders results as TAP version 13.
//
//	TAP version 13
//	1..2
//	ok 1 - adds
//	not ok 2 - subtracts
//	# field "x": expected 1, got 2
//
// Failure diagnostics go to the Failure channel; everything else to Primary.
type TAP struct {
	count int
}

// NewTAP returns a Formatter using TAP hooks.
func NewTAP() *Formatter {
	return New(&TAP{})
}

// Begin writes the version line and, for Tests or SkipAll, the plan line.
func (t *TAP) Begin(f *Formatter, plan Plan) error {
	t.count = 0
	if err := f.Print(Primary, TAPVersion, "\n"); err != nil {
		return err
	}
	switch plan.Kind {
	case PlanTests:
		return f.Print(Primary, "1..", plan.Tests, "\n")
	case PlanSkipAll:
		if plan.Reason == "" {
			return f.Print(Primary, "1..0 # SKIP\n")
		}
		return f.Print(Primary, "1..0 # SKIP ", plan.Reason, "\n")
	}
	return nil
}

// Result writes one result line, numbering results that carry no Number.
func (t *TAP) Result(f *Formatter, r *Result) error {
	t.count++
	n := r.Number
	if n == 0 {
		n = t.count
	}

	var line strings.Builder
	if !r.Pass {
		line.WriteString("not ")
	}
	line.WriteString("ok ")
	line.WriteString(strconv.Itoa(n))
	if r.Name != "" {
		line.WriteString(" - ")
		line.WriteString(escapeName(r.Name))
	}
	if r.Directive != "" {
		line.WriteString(" # ")
		line.WriteString(strings.ToUpper(r.Directive))
		if r.Reason != "" {
			line.WriteString(" ")
			line.WriteString(r.Reason)
		}
	}
	line.WriteString("\n")
	if err := f.Print(Primary, line.String()); err != nil {
		return err
	}

	// A failing TODO is expected; its diagnostics are informational.
	ch := Failure
	if r.Pass || strings.EqualFold(r.Directive, "TODO") {
		ch = Primary
	}
	for _, d := range r.Diagnostics {
		if err := f.Print(ch, comment(d)); err != nil {
			return err
		}
	}
	return nil
}

// End writes a deferred plan line when given Tests.
func (t *TAP) End(f *Formatter, plan Plan) error {
	if plan.Kind == PlanTests {
		return f.Print(Primary, "1..", plan.Tests, "\n")
	}
	return nil
}

// Count returns the number of results rendered since Begin.
func (t *TAP) Count() int {
	return t.count
}

// escapeName escapes '#' so a name cannot start a directive.
func escapeName(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	name = strings.ReplaceAll(name, "#", `\#`)
	return strings.ReplaceAll(name, "\n", " ")
}

// comment renders text as "# " lines.
func comment(text string) string {
	var buf strings.Builder
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		buf.WriteString("# ")
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	return buf.String()
}
