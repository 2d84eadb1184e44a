package check

import (
	"github.com/roach88/tapcheck/internal/ir"
)

// Emitter receives the single event an assertion reports.
// *capture.Emitter implements it.
type Emitter interface {
	EmitAt(typ ir.EventType, fields ir.IRObject, site ir.Site)
}

// Assert runs seq against events and reports the verdict as one ok event
// named name, with the diagnostics attached under "diag". The event is
// attributed to the caller of Assert. It returns the verdict.
func Assert(e Emitter, name string, events []ir.Event, seq *Sequence) bool {
	res := seq.Run(events)

	diag := make(ir.IRArray, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		diag[i] = ir.IRString(d)
	}
	e.EmitAt(ir.EventOk, ir.IRObject{
		"name": ir.IRString(name),
		"pass": ir.IRBool(res.Pass),
		"diag": diag,
	}, ir.CallerSite(1))
	return res.Pass
}
