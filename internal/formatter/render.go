package formatter

import (
	"fmt"
	"strconv"

	"github.com/roach88/tapcheck/internal/ir"
)

// ResultFromEvent maps an ok or subtest event to a Result. It reports false
// for any other event type.
func ResultFromEvent(ev ir.Event) (*Result, bool) {
	if ev.Type != ir.EventOk && ev.Type != ir.EventSubtest {
		return nil, false
	}
	r := &Result{}
	if v, ok := ev.Fields["pass"].(ir.IRBool); ok {
		r.Pass = bool(v)
	}
	if v, ok := ev.Field("name"); ok {
		r.Name = ir.Text(v)
	}
	if v, ok := ev.Field("directive"); ok {
		r.Directive = ir.Text(v)
	}
	if v, ok := ev.Field("reason"); ok {
		r.Reason = ir.Text(v)
	}
	if diags, ok := ev.Fields["diag"].(ir.IRArray); ok {
		for _, d := range diags {
			r.Diagnostics = append(r.Diagnostics, ir.Text(d))
		}
	}
	if ev.Type == ir.EventSubtest && !r.Pass {
		total, _ := ir.Numeric(ev.Fields["total"])
		failed, _ := ir.Numeric(ev.Fields["failed"])
		r.Diagnostics = append(r.Diagnostics, fmt.Sprintf("subtest failed %s of %s",
			strconv.FormatFloat(failed, 'f', -1, 64), strconv.FormatFloat(total, 'f', -1, 64)))
	}
	return r, true
}

// Render replays a recorded event stream through f.
//
// A leading plan event becomes the Begin option; without one, or when the
// plan carries neither count nor skip, the run is begun with no plan and
// closed with a deferred Tests count. note and diag
// events are written as comments on Primary and Failure, and a bail event is
// written to Error.
func Render(f *Formatter, events []ir.Event) error {
	var (
		begun   bool
		planned bool
		results int
	)
	begin := func(opts ...Option) error {
		begun = true
		return f.Begin(opts...)
	}

	for _, ev := range events {
		if !begun {
			if ev.Type == ir.EventPlan {
				var opt Option
				opt, planned = planOption(ev)
				if err := begin(opt); err != nil {
					return err
				}
				continue
			}
			if err := begin(); err != nil {
				return err
			}
		}

		switch ev.Type {
		case ir.EventOk, ir.EventSubtest:
			r, _ := ResultFromEvent(ev)
			results++
			if err := f.Result(r); err != nil {
				return err
			}
		case ir.EventNote:
			if err := f.Print(Primary, comment(fieldText(ev, "text"))); err != nil {
				return err
			}
		case ir.EventDiag:
			if err := f.Print(Failure, comment(fieldText(ev, "text"))); err != nil {
				return err
			}
		case ir.EventBail:
			if err := f.Print(Error, "Bail out! ", fieldText(ev, "reason"), "\n"); err != nil {
				return err
			}
			return nil
		}
	}

	if !begun {
		if err := begin(); err != nil {
			return err
		}
	}
	if planned {
		return f.End()
	}
	return f.End(Tests(results))
}

// planOption reports false when the plan event declares nothing.
func planOption(ev ir.Event) (Option, bool) {
	if v, ok := ev.Field("skip"); ok {
		return SkipAll(ir.Text(v)), true
	}
	if n, ok := ir.Numeric(ev.Fields["count"]); ok {
		return Tests(int(n)), true
	}
	return NoPlan(), false
}

func fieldText(ev ir.Event, name string) string {
	v, ok := ev.Field(name)
	if !ok {
		return ""
	}
	return ir.Text(v)
}
