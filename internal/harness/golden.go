package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/edc/internal/session"
)

// TraceSnapshot is the golden form of a scenario run: the counters and
// every notice in emission order.
type TraceSnapshot struct {
	Scenario  string           `json:"scenario"`
	Records   int64            `json:"records"`
	Malformed int              `json:"malformed"`
	Faults    int64            `json:"faults"`
	Notices   []session.Notice `json:"notices"`
}

// MarshalTrace renders the snapshot as indented JSON with a trailing
// newline.
func MarshalTrace(name string, res *Result) ([]byte, error) {
	snap := TraceSnapshot{
		Scenario:  name,
		Records:   res.Records,
		Malformed: res.Malformed,
		Faults:    res.Faults,
		Notices:   res.Notices,
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// RunWithGolden runs the scenario and compares its trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not run. Assertion failures are
// in the result; a trace mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	res, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, res); err != nil {
		return nil, err
	}
	return res, nil
}

// AssertGolden compares an existing result's trace with a golden file.
func AssertGolden(t *testing.T, name string, res *Result) error {
	t.Helper()

	trace, err := MarshalTrace(name, res)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, trace)
	return nil
}
