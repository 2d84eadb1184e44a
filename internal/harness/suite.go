package harness

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/roach88/tapcheck/internal/compiler"
)

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total   int            `json:"total"`
	Passed  int            `json:"passed"`
	Failed  int            `json:"failed"`
	Errored int            `json:"errored"`
	Results []*Result      `json:"results"`
	Errors  []SuiteFailure `json:"errors,omitempty"`
}

// SuiteFailure is a scenario that could not be evaluated.
type SuiteFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Pass reports whether every scenario ran and passed.
func (s *SuiteResult) Pass() bool {
	return s.Failed == 0 && s.Errored == 0
}

// Discover lists scenario files under dir in lexical order. filter is a
// glob matched against the file name without its extension; empty matches
// everything.
func Discover(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !compiler.IsScenarioFile(path) {
			return nil
		}
		if filter != "" {
			base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
			if ok, _ := filepath.Match(filter, base); !ok {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite runs every scenario under dir that matches filter.
//
// Scenarios that fail to load or compile are counted as errored and the
// suite continues. Duplicate scenario names are reported as errors for
// every occurrence after the first.
func RunSuite(ctx context.Context, dir, filter string) (*SuiteResult, error) {
	paths, err := Discover(dir, filter)
	if err != nil {
		return nil, err
	}

	log := clog.FromContext(ctx)
	suite := &SuiteResult{Results: []*Result{}}
	var loaded []*compiler.Scenario

	for _, path := range paths {
		suite.Total++

		sc, err := Load(path)
		if err != nil {
			suite.errored(path, err)
			continue
		}
		if dup := compiler.ValidateSuite(append(loaded, sc)); len(dup) > 0 {
			suite.errored(path, dup[0])
			continue
		}
		loaded = append(loaded, sc)

		events, err := LoadEvents(sc)
		if err != nil {
			suite.errored(path, err)
			continue
		}
		res, err := Run(ctx, sc, events)
		if err != nil {
			suite.errored(path, err)
			continue
		}

		suite.Results = append(suite.Results, res)
		if res.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
	}

	log.Info("suite finished",
		"dir", dir,
		"total", suite.Total,
		"passed", suite.Passed,
		"failed", suite.Failed,
		"errored", suite.Errored,
	)
	return suite, nil
}

func (s *SuiteResult) errored(path string, err error) {
	s.Errored++
	s.Errors = append(s.Errors, SuiteFailure{Path: path, Error: err.Error()})
}
