package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edc/internal/refdata"
)

const planetRows = `[
  {"planet_type": "Water World", "terraformable": true,
   "values": {"fss": 1000, "fss_dss": 3000, "fss_fd": 2500, "fss_fd_dss": 1234567}}
]`

func TestLookupPlanet(t *testing.T) {
	env := newTestEnv(t, nil)
	writeData(t, env, refdata.PlanetValuesFile, planetRows)

	out, err := execute(t, "lookup", "planet", "water world", "--terraformable", "--config", env.ConfigPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(terraformable)")
	assert.Contains(t, out, "1,234,567 cr")

	out, err = execute(t, "lookup", "planet", "Water World", "--terraformable", "--config", env.ConfigPath, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data PlanetResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Terraformable)
	assert.Equal(t, int64(3000), resp.Data.Values["fss_dss"])
	assert.Len(t, resp.Data.Values, 4)
}

func TestLookupPlanet_NoRow(t *testing.T) {
	env := newTestEnv(t, nil)
	writeData(t, env, refdata.PlanetValuesFile, planetRows)

	_, err := execute(t, "lookup", "planet", "Water World", "--config", env.ConfigPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.NotContains(t, err.Error(), "not loaded")
}

func TestLookupOrganism(t *testing.T) {
	env := newTestEnv(t, nil)
	writeData(t, env, refdata.OrganismValuesFile,
		`{"species": {"Bacterium Aurasus": {"genus": "Bacterium", "base_value": 1000000}}}`)

	out, err := execute(t, "lookup", "organism", "Bacterium", "Aurasus", "--config", env.ConfigPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Bacterium Aurasus (Bacterium): 1,000,000 cr")
}

func TestLookup_TableNotLoaded(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := execute(t, "lookup", "organism", "Bacterium Aurasus", "--config", env.ConfigPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "not loaded")
}

func TestLookup_TableUnusable(t *testing.T) {
	env := newTestEnv(t, nil)
	writeData(t, env, refdata.OrganismValuesFile, `{not json`)

	_, err := execute(t, "lookup", "organism", "Bacterium Aurasus", "--config", env.ConfigPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "0", groupDigits(0))
	assert.Equal(t, "999", groupDigits(999))
	assert.Equal(t, "1,000", groupDigits(1000))
	assert.Equal(t, "-12,345,678", groupDigits(-12345678))
}
