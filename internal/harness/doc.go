// Package harness runs scenario files against recorded event streams.
//
// A scenario (see package compiler for the file format) names an event file
// and an expect list. The harness loads both, evaluates the compiled check
// sequence and reports a Result whose diagnostics point at scenario lines:
//
//	sc, err := harness.Load("scenarios/math.yaml")
//	if err != nil {
//	    return err
//	}
//	events, err := harness.LoadEvents(sc)
//	if err != nil {
//	    return err
//	}
//	res, err := harness.Run(ctx, sc, events)
//
// # Suites
//
// RunSuite evaluates every .yaml, .yml and .cue file under a directory.
// Files under a golden/ directory are ignored.
//
// # Golden Snapshots
//
// A Result serializes to canonical JSON, so identical runs produce
// identical bytes. Tests compare with RunWithGolden or AssertGolden
// (testdata/golden, regenerated with -update); the CLI compares with
// CompareGolden.
package harness
