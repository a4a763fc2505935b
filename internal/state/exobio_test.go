package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_ProgressMonotonic(t *testing.T) {
	var r ExoRecord
	steps := []struct {
		scan ScanType
		at   string
		want int
	}{
		{ScanLog, "t1", 1},
		{ScanLog, "t2", 1},
		{ScanSample, "t3", 2},
		{ScanLog, "t4", 2},
		{ScanSample, "t5", 3},
		{ScanSample, "t6", 3},
	}
	prev := 0
	for _, st := range steps {
		r.Apply(st.scan, st.at)
		assert.Equal(t, st.want, r.Samples, "after %s@%s", st.scan, st.at)
		assert.GreaterOrEqual(t, r.Samples, prev)
		prev = r.Samples
	}
	assert.True(t, r.Complete)
}

func TestApply_SampleWithoutLogStartsAtOne(t *testing.T) {
	var r ExoRecord
	r.Apply(ScanSample, "t1")
	assert.Equal(t, 1, r.Samples)
	assert.False(t, r.Complete)
}

func TestApply_AnalyseForcesCompletion(t *testing.T) {
	var r ExoRecord
	r.Apply(ScanLog, "t1")
	r.Apply(ScanAnalyse, "t2")
	assert.Equal(t, CompleteSamples, r.Samples)
	assert.True(t, r.Complete)
}

func TestApply_ReplayedScanIgnored(t *testing.T) {
	var r ExoRecord
	require.True(t, r.Apply(ScanSample, "2025-01-01T10:00:00Z"))
	assert.False(t, r.Apply(ScanSample, "2025-01-01T10:00:00Z"))
	assert.Equal(t, 1, r.Samples)

	// Same timestamp, different stage, is a distinct record.
	assert.True(t, r.Apply(ScanAnalyse, "2025-01-01T10:00:00Z"))
}

func TestParseScanType(t *testing.T) {
	assert.Equal(t, ScanLog, ParseScanType(" log "))
	assert.Equal(t, ScanAnalyse, ParseScanType("ANALYSE"))
	assert.Equal(t, ScanType("Other"), ParseScanType("Other"))
}

func TestPlaceholderSupersededBySample(t *testing.T) {
	var e Exobio
	e.Reset()
	ph := e.Record(ExoKey{BodyID: 7, Genus: "Stratum"})
	ph.LastScanType = ScanCodex
	assert.False(t, e.HasSample(7, "Stratum", "Stratum Tectonicas"))

	e.Record(ExoKey{BodyID: 7, Genus: "Stratum", Species: "Stratum Tectonicas"}).Apply(ScanLog, "t")
	assert.True(t, e.HasSample(7, "Stratum", "Stratum Tectonicas"))
	assert.True(t, e.DropPlaceholder(7, "Stratum", "Stratum Tectonicas"))
	assert.False(t, e.DropPlaceholder(7, "Stratum", "Stratum Tectonicas"))
	assert.Len(t, e.Records, 1)
}

func TestPlaceholder_MultiWordGenus(t *testing.T) {
	var e Exobio
	e.Reset()
	// A codex hint only knows the full name, so the placeholder is keyed on
	// its first word.
	ph := e.Record(ExoKey{BodyID: 5, Genus: "Roseum"})
	ph.Species = "Roseum Sinuous Tubers"
	ph.LastScanType = ScanCodex

	sampled := ExoKey{BodyID: 5, Genus: "Sinuous Tubers", Species: "Roseum Sinuous Tubers"}
	assert.False(t, e.HasSample(5, "Sinuous Tubers", "Roseum Sinuous Tubers"))
	assert.False(t, e.DropPlaceholder(6, "Sinuous Tubers", "Roseum Sinuous Tubers"), "other body")
	assert.False(t, e.DropPlaceholder(5, "Bacterium", "Bacterium Aurasus"), "other organism")

	e.Record(sampled).Apply(ScanLog, "t")
	assert.True(t, e.DropPlaceholder(5, "Sinuous Tubers", "Roseum Sinuous Tubers"))
	require.Len(t, e.Records, 1)
	assert.NotNil(t, e.Records[sampled])

	// The codex side asks with its own genus guess.
	assert.True(t, e.HasSample(5, "Roseum", "Roseum Sinuous Tubers"))
	assert.False(t, e.HasSample(5, "Roseum", "Roseum Other"))
}

func TestParseLegacyExoKey(t *testing.T) {
	tests := []struct {
		in      string
		key     ExoKey
		variant string
		wantErr bool
	}{
		{in: "12|Bacterium|Bacterium Aurasus", key: ExoKey{12, "Bacterium", "Bacterium Aurasus"}},
		{in: "12|Bacterium|Bacterium Aurasus|Teal", key: ExoKey{12, "Bacterium", "Bacterium Aurasus"}, variant: "Teal"},
		{in: "12|Stratum|CODEX", key: ExoKey{12, "Stratum", ""}},
		{in: "12|Stratum|CODEX|Stratum Tectonicas - Lime", key: ExoKey{12, "Stratum", ""}},
		{in: "x|Stratum|CODEX", wantErr: true},
		{in: "12|Stratum", wantErr: true},
		{in: "12| |Species", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, variant, err := ParseLegacyExoKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.variant, variant)
		})
	}
}

func TestMigrateExo_MergesPerField(t *testing.T) {
	legacy := map[string]ExoRecord{
		"12|Bacterium|Bacterium Aurasus": {
			Samples:   1,
			BaseValue: 1000000,
		},
		"12|Bacterium|Bacterium Aurasus|Teal": {
			Samples:  2,
			Variant:  "Teal",
			Complete: false,
		},
		"12|Bacterium|Bacterium Aurasus|Lime": {
			Samples:   1,
			Variant:   "Lime",
			BaseValue: 5,
			Complete:  true,
		},
		"12|Bacterium|CODEX":        {Species: "Bacterium Aurasus", Samples: 2},
		"13|Stratum|CODEX|anything": {Species: "Stratum Tectonicas", PotentialValue: 19010800},
		"bogus":                     {},
	}

	recs, skipped := MigrateExo(legacy)
	assert.Equal(t, []string{"bogus"}, skipped)
	require.Len(t, recs, 2)

	got := recs[ExoKey{12, "Bacterium", "Bacterium Aurasus"}]
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Samples, "samples take the max")
	assert.True(t, got.Complete, "completion is sticky")
	assert.Equal(t, int64(1000000), got.BaseValue, "canonical key contributes first")
	// Sorted order visits "...|Lime" before "...|Teal".
	assert.Equal(t, "Lime", got.Variant, "first non-empty variant wins")

	_, ok := recs[ExoKey{12, "Bacterium", ""}]
	assert.False(t, ok, "placeholder superseded by a real record")

	ph := recs[ExoKey{13, "Stratum", ""}]
	require.NotNil(t, ph)
	assert.Equal(t, ScanCodex, ph.LastScanType)
	assert.Equal(t, 0, ph.Samples)
	assert.Equal(t, int64(19010800), ph.PotentialValue)
}

func TestImport_ReplacesRecords(t *testing.T) {
	var e Exobio
	e.Reset()
	e.Record(ExoKey{BodyID: 1, Genus: "Old", Species: "Old"})

	skipped := e.Import(map[string]ExoRecord{"4|Tussock|Tussock Pennata": {Samples: 3, Complete: true}})
	assert.Empty(t, skipped)
	require.Len(t, e.Records, 1)
	assert.True(t, e.Records[ExoKey{4, "Tussock", "Tussock Pennata"}].Complete)
}
