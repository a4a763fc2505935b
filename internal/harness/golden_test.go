package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"arrival", "fleet"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			res, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
		})
	}
}

func TestRunWithGolden_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/arrival.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalTrace(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalTrace(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMarshalTrace_Shape(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/fleet.yaml")
	require.NoError(t, err)
	res, err := Run(s)
	require.NoError(t, err)

	b, err := MarshalTrace("fleet", res)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), b[len(b)-1])

	var snap TraceSnapshot
	require.NoError(t, json.Unmarshal(b, &snap))
	assert.Equal(t, "fleet", snap.Scenario)
	assert.Equal(t, int64(5), snap.Records)
	require.Len(t, snap.Notices, 3)
	assert.Equal(t, int64(2), snap.Notices[0].Seq, "Loadout folds silently at seq 1")
}
