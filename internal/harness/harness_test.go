package harness

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edc/internal/engine"
	"github.com/roach88/edc/internal/testutil"
)

type fixedPlanets map[string]int64

func (p fixedPlanets) Estimate(class string, _, _, _ bool) (int64, bool) {
	v, ok := p[class]
	return v, ok
}

func raw(s string) *string { return &s }

func TestRun_ScenarioFiles(t *testing.T) {
	for _, name := range []string{"arrival", "fleet"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			res, err := Run(s)
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
		})
	}
}

func TestRun_CountsRecordsAndMalformedLines(t *testing.T) {
	s := &Scenario{
		Name:        "counts",
		Description: "counts",
		Journal: []Step{
			{Event: "Commander", Fields: map[string]any{"Name": "Jameson"}},
			{Raw: raw("{not json")},
			{Raw: raw("   ")},
			{Raw: raw(`{"timestamp":"2025-05-01T13:00:00Z","event":"Location","StarSystem":"Sol"}`)},
			{Raw: raw(`{"StarSystem":"no event"}`)},
		},
		Assertions: []Assertion{{Type: AssertFaults}},
	}

	res, err := Run(s)
	require.NoError(t, err)
	assert.True(t, res.Pass)
	assert.Equal(t, int64(2), res.Records)
	assert.Equal(t, 2, res.Malformed)
	require.Len(t, res.Notices, 2)
	assert.True(t, testutil.Epoch.Equal(res.Notices[0].At))
	assert.Equal(t, "Location: Sol", res.Notices[1].Text)
	assert.True(t, testutil.Epoch.Add(time.Hour).Equal(res.Notices[1].At))
	assert.Equal(t, "Sol", res.State.System.Name)
}

func TestRun_ExplicitTimestampDoesNotAdvanceStamps(t *testing.T) {
	s := &Scenario{
		Name:        "stamps",
		Description: "stamps",
		Journal: []Step{
			{Event: "Location", Fields: map[string]any{"StarSystem": "Sol", "timestamp": "2025-06-01T00:00:00Z"}},
			{Event: "FSDJump", Fields: map[string]any{"StarSystem": "Lave"}},
		},
		Assertions: []Assertion{{Type: AssertNoticeContains, Text: "Arrived: Lave"}},
	}

	res, err := Run(s)
	require.NoError(t, err)
	require.Len(t, res.Notices, 2)
	assert.Equal(t, time.June, res.Notices[0].At.Month())
	assert.True(t, testutil.Epoch.Equal(res.Notices[1].At))
}

func TestRun_Thresholds(t *testing.T) {
	s := &Scenario{
		Name:        "thresholds",
		Description: "a scan over the planet threshold raises a high value notice",
		Thresholds:  &Thresholds{PlanetValue: 500000},
		Journal: []Step{
			{Event: "FSDJump", Fields: map[string]any{"StarSystem": "Lave", "SystemAddress": 1}},
			{Event: "Scan", Fields: map[string]any{"BodyName": "Lave 2", "BodyID": 3, "PlanetClass": "Water world"}},
			{Event: "Scan", Fields: map[string]any{"BodyName": "Lave 3", "BodyID": 4, "PlanetClass": "Icy body"}},
		},
		Assertions: []Assertion{
			{Type: AssertNoticeContains, Text: "High value: Lave 2 (Water world) ~700,000 cr"},
			{Type: AssertNoticeAbsent, Text: "Lave 3"},
			{Type: AssertFinalState, Expect: map[string]any{"activity.last_body": "Lave 3"}},
		},
	}

	res, err := Run(s, WithTables(engine.Tables{Planets: fixedPlanets{"Water world": 700000, "Icy body": 500}}))
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)

	res, err = Run(s)
	require.NoError(t, err)
	assert.False(t, res.Pass, "no planet table, no estimate")
	require.Len(t, res.Errors, 1)
}

func TestRun_FailedAssertionsAreCollected(t *testing.T) {
	s := &Scenario{
		Name:        "failing",
		Description: "every assertion fails",
		Journal: []Step{
			{Event: "Commander", Fields: map[string]any{"Name": "Jameson"}},
		},
		Assertions: []Assertion{
			{Type: AssertNoticeContains, Text: "Arrived"},
			{Type: AssertNoticeAbsent, Text: "Jameson"},
			{Type: AssertNoticeCount, Text: "Commander", Count: 2},
			{Type: AssertFinalState, Expect: map[string]any{"commander.name": "Bob"}},
			{Type: AssertFaults, Count: 1},
		},
	}

	res, err := Run(s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Errors, 5)

	var ae *AssertionError
	require.ErrorAs(t, res.Errors[3], &ae)
	assert.Equal(t, AssertFinalState, ae.Type)
	assert.Contains(t, ae.Actual, `commander.name: got "Jameson", want "Bob"`)
	assert.True(t, strings.Contains(ae.Error(), "[1] Commander: Jameson"))
}

func TestRun_NilScenario(t *testing.T) {
	_, err := Run(nil)
	assert.Error(t, err)
}

func TestRun_EmptyStateWhenNothingFolded(t *testing.T) {
	s := &Scenario{
		Name:        "junk",
		Description: "only junk",
		Journal:     []Step{{Raw: raw("garbage")}},
		Assertions:  []Assertion{{Type: AssertFinalState, Expect: map[string]any{"commander.name": nil}}},
	}

	res, err := Run(s)
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
	require.NotNil(t, res.State)
	assert.Zero(t, res.Records)
	assert.Equal(t, 1, res.Malformed)
}
