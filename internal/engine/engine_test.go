package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/refdata"
	"github.com/roach88/edc/internal/state"
	"github.com/roach88/edc/internal/testutil"
)

const (
	planetValuesDoc = `[
  {"planet_type": "Water World", "terraformable": false,
   "values": {"fss": 100000, "fss_dss": 300000, "fss_fd": 250000, "fss_fd_dss": 700000}},
  {"planet_type": "High Metal Content Planet", "terraformable": true,
   "values": {"fss": 400000, "fss_dss": 1200000, "fss_fd": 1000000, "fss_fd_dss": 2900000}}
]`
	organismValuesDoc = `{"species": {
  "Stratum Tectonicas": {"genus": "Stratum", "base_value": 19010800},
  "Bacterium Aurasus": {"genus": "Bacterium", "base_value": 1000000}
}}`
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeRefdata creates a reference directory holding the value tables.
func writeRefdata(t *testing.T) *refdata.Set {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, refdata.PlanetValuesFile), []byte(planetValuesDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, refdata.OrganismValuesFile), []byte(organismValuesDoc), 0o644))
	return refdata.Open(dir)
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithLogger(quietLogger()),
		WithTables(TablesFrom(writeRefdata(t))),
	}
	return New(append(base, opts...)...)
}

func rec(t *testing.T, kind journal.Kind, f testutil.Fields) journal.Record {
	t.Helper()
	return testutil.Record(t, kind, f)
}

// fold applies records in order and returns every notice produced.
func fold(e *Engine, s *state.Session, recs ...journal.Record) []string {
	var out []string
	for _, r := range recs {
		out = append(out, e.Process(s, r).Notices...)
	}
	return out
}

func TestProcess_UnclaimedKindIgnored(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()

	res := e.Process(s, rec(t, "Music", testutil.Fields{"MusicTrack": "Exploration"}))

	assert.Equal(t, int64(1), res.Seq)
	assert.Equal(t, "", res.Handler)
	assert.Empty(t, res.Notices)
	assert.NoError(t, res.Err)
	assert.Equal(t, "Music", s.Activity.LastEvent)
	assert.Equal(t, int64(1), s.Activity.Seq)
	assert.False(t, e.Handles("Music"))
}

func TestProcess_CreditsUpdatedForAnyKind(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()

	e.Process(s, rec(t, "Music", testutil.Fields{"Credits": 1234567}))
	require.NotNil(t, s.Commander.Credits)
	assert.Equal(t, int64(1234567), *s.Commander.Credits)

	// A non-numeric Credits field is absent, not an error.
	res := e.Process(s, rec(t, journal.KindLoadGame, testutil.Fields{"Commander": "Jameson", "Credits": "lots"}))
	assert.NoError(t, res.Err)
	assert.Equal(t, int64(1234567), *s.Commander.Credits)
	assert.Equal(t, "Jameson", s.Commander.Name)
}

func TestProcess_SequenceStartsAtOne(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()
	assert.Zero(t, e.LastSeq())

	// Unclaimed kinds are numbered too.
	first := e.Process(s, rec(t, "Music", testutil.Fields{"MusicTrack": "Exploration"}))
	second := e.Process(s, rec(t, journal.KindCommander, testutil.Fields{"Name": "Jameson"}))
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, int64(2), e.LastSeq())
	assert.Equal(t, int64(2), s.Activity.Seq)
}

func TestProcess_SequenceResumesAfterStart(t *testing.T) {
	e := newTestEngine(t, WithStartSeq(41))
	s := state.New()

	res := e.Process(s, rec(t, journal.KindCommander, testutil.Fields{"Name": "Jameson"}))
	assert.Equal(t, int64(42), res.Seq)
	assert.Equal(t, "inventory", res.Handler)
	assert.Equal(t, []string{"Commander: Jameson"}, res.Notices)
	assert.Equal(t, int64(42), e.LastSeq())
}

// panickyPlanets faults on every estimate.
type panickyPlanets struct{}

func (panickyPlanets) Estimate(string, bool, bool, bool) (int64, bool) {
	panic("value table exploded")
}

func TestProcess_HandlerFaultContained(t *testing.T) {
	e := New(WithLogger(quietLogger()), WithTables(Tables{Planets: panickyPlanets{}}))
	s := state.New()

	res := e.Process(s, rec(t, journal.KindScan, testutil.Fields{
		"BodyName": "Sol 3", "BodyID": 3, "PlanetClass": "Earthlike body",
	}))

	require.Error(t, res.Err)
	assert.True(t, IsHandlerError(res.Err))
	var he *HandlerError
	require.ErrorAs(t, res.Err, &he)
	assert.Equal(t, journal.KindScan, he.Kind)
	assert.Equal(t, "exploration", he.Handler)
	assert.Equal(t, int64(1), he.Seq)
	assert.Contains(t, he.Error(), "value table exploded")

	// The partial update before the fault is kept.
	b, ok := s.Discovery.Lookup("Sol 3")
	require.True(t, ok)
	assert.True(t, b.Scanned)

	// The next record is processed normally.
	res = e.Process(s, rec(t, journal.KindCommander, testutil.Fields{"Name": "Jameson"}))
	assert.NoError(t, res.Err)
	assert.Equal(t, "Jameson", s.Commander.Name)
}

func TestBuildRoutes_FirstClaimWins(t *testing.T) {
	var hit string
	first := domain{name: "first", kinds: map[journal.Kind]foldFunc{
		journal.KindScan: func(*Engine, *state.Session, journal.Record, *notices) { hit = "first" },
	}}
	second := domain{name: "second", kinds: map[journal.Kind]foldFunc{
		journal.KindScan:    func(*Engine, *state.Session, journal.Record, *notices) { hit = "second" },
		journal.KindFSDJump: func(*Engine, *state.Session, journal.Record, *notices) { hit = "second" },
	}}

	routes := buildRoutes([]domain{first, second})
	require.Len(t, routes, 2)
	assert.Equal(t, "first", routes[journal.KindScan].domain)
	assert.Equal(t, "second", routes[journal.KindFSDJump].domain)

	routes[journal.KindScan].fold(nil, nil, journal.Record{}, nil)
	assert.Equal(t, "first", hit)
}

func TestDomains_ClaimEveryHandledKind(t *testing.T) {
	e := newTestEngine(t)
	kinds := []journal.Kind{
		journal.KindCommander, journal.KindLoadGame, journal.KindLoadout, journal.KindShipyardSwap,
		journal.KindMaterials, journal.KindMaterialCollected, journal.KindMaterialDiscarded,
		journal.KindShipLocker, journal.KindCargo, journal.KindModuleBuy,
		journal.KindLocation, journal.KindFSDJump, journal.KindCarrierJump, journal.KindStartJump,
		journal.KindScan, journal.KindSAAScanComplete, journal.KindFSSDiscoveryScan,
		journal.KindFSSAllBodiesFound, journal.KindFSSSignalDiscovered, journal.KindFSSBodySignals,
		journal.KindSAASignalsFound, journal.KindMultiSellExplorationData, journal.KindSellExplorationData,
		journal.KindScanOrganic, journal.KindCodexEntry, journal.KindSellOrganicData,
		journal.KindPowerplay, journal.KindPowerplayJoin, journal.KindPowerplayLeave,
		journal.KindPowerplayDefect, journal.KindPowerplayRank, journal.KindPowerplayMerits,
		journal.KindShipTargeted, journal.KindRedeemVoucher, journal.KindCommunityGoal,
		journal.KindCommunityGoalJoin, journal.KindCommunityGoalReward, journal.KindCommunityGoalDiscard,
	}
	for _, k := range kinds {
		assert.True(t, e.Handles(k), "kind %s", k)
	}
}

// keyedRecords returns one record for each kind that creates or updates a
// keyed record.
func keyedRecords(t *testing.T) []journal.Record {
	return []journal.Record{
		rec(t, journal.KindLocation, testutil.Fields{"StarSystem": "Sol", "SystemAddress": 10477373803}),
		rec(t, journal.KindScan, testutil.Fields{
			"BodyName": "Sol 3", "BodyID": 3, "PlanetClass": "Water world",
			"WasDiscovered": false, "DistanceFromArrivalLS": 499.0,
			"Materials": []any{map[string]any{"Name": "iron", "Percent": 18.5}},
		}),
		rec(t, journal.KindSAAScanComplete, testutil.Fields{"BodyName": "Sol 3", "BodyID": 3}),
		rec(t, journal.KindSAASignalsFound, testutil.Fields{
			"BodyName": "Sol 3", "BodyID": 3,
			"Signals": []any{map[string]any{"Type": "$SAA_SignalType_Biological;", "Count": 2}},
			"Genuses": []any{map[string]any{"Genus": "$Codex_Ent_Stratum_Genus_Name;", "Genus_Localised": "Stratum"}},
		}),
		rec(t, journal.KindScanOrganic, testutil.Fields{
			"ScanType": "Sample", "Body": 3,
			"Genus_Localised": "Stratum", "Species_Localised": "Stratum Tectonicas",
			"Variant_Localised": "Stratum Tectonicas - Lime",
		}),
		rec(t, journal.KindFSSSignalDiscovered, testutil.Fields{
			"SignalName": "Notable stellar phenomena", "SignalType": "Generic",
		}),
		rec(t, journal.KindShipTargeted, testutil.Fields{
			"TargetLocked": true, "ScanStage": 3, "Ship": "anaconda",
			"PilotName": "Rex", "PilotRank": "Elite", "Faction": "Pirates", "Power": "Aisling Duval",
		}),
		rec(t, journal.KindCommunityGoal, testutil.Fields{
			"CurrentGoals": []any{map[string]any{"CGID": 726, "Title": "Gather ore", "CurrentTotal": 1000}},
		}),
	}
}

func TestProcess_IdempotentForKeyedRecords(t *testing.T) {
	for _, r := range keyedRecords(t) {
		t.Run(string(r.Kind()), func(t *testing.T) {
			e1, e2 := newTestEngine(t), newTestEngine(t)
			once, twice := state.New(), state.New()

			e1.Process(once, r)
			e2.Process(twice, r)
			e2.Process(twice, r)

			once.Activity.Seq, twice.Activity.Seq = 0, 0
			assert.Equal(t, once, twice)
		})
	}
}

func TestProcess_SequenceIdempotent(t *testing.T) {
	e1, e2 := newTestEngine(t), newTestEngine(t)
	once, twice := state.New(), state.New()

	for _, r := range keyedRecords(t) {
		e1.Process(once, r)
		e2.Process(twice, r)
		e2.Process(twice, r)
	}

	once.Activity.Seq, twice.Activity.Seq = 0, 0
	assert.Equal(t, once, twice)
	assert.Len(t, twice.Discovery.Bodies, 1)
	assert.Len(t, twice.Exobio.Records, 1)
	assert.Len(t, twice.Combat.Contacts, 1)
	assert.Len(t, twice.Ledger.Goals, 1)
}

func TestSystemChange_ClearsPerSystemOnly(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()

	fold(e, s, keyedRecords(t)...)
	fold(e, s,
		rec(t, journal.KindMaterials, testutil.Fields{
			"Raw": []any{map[string]any{"Name": "iron", "Count": 12}},
		}),
		rec(t, journal.KindRedeemVoucher, testutil.Fields{"Type": "bounty", "Amount": 50000}),
		rec(t, journal.KindFSDJump, testutil.Fields{
			"StarSystem": "Sol", "SystemAllegiance": "Federation",
		}),
	)
	require.NotEmpty(t, s.Discovery.Bodies)
	require.NotEmpty(t, s.Exobio.Records)
	require.NotEmpty(t, s.Discovery.Signals)
	require.NotEmpty(t, s.Combat.Contacts)
	require.Equal(t, "Federation", s.System.Allegiance)

	inventory := s.Snapshot().Inventory
	ledger := s.Snapshot().Ledger

	notices := fold(e, s, rec(t, journal.KindFSDJump, testutil.Fields{
		"StarSystem": "Achenar", "SystemAddress": 164098653, "JumpDist": 12.5,
	}))

	assert.Equal(t, []string{"Arrived: Achenar (12.50 ly)"}, notices)
	assert.Equal(t, "Achenar", s.System.Name)
	assert.Empty(t, s.System.Allegiance)
	assert.Empty(t, s.Discovery.Bodies)
	assert.Empty(t, s.Discovery.BodyNames)
	assert.Empty(t, s.Discovery.Signals)
	assert.Empty(t, s.Discovery.BioSignals)
	assert.Empty(t, s.Exobio.Records)
	assert.Empty(t, s.Combat.Contacts)
	assert.Empty(t, s.Combat.Current)
	assert.Empty(t, s.Intel.POIs)

	assert.Equal(t, inventory, s.Inventory)
	assert.Equal(t, ledger, s.Ledger)
	assert.True(t, s.Activity.Visited["Sol"])
	assert.True(t, s.Activity.Visited["Achenar"])
}

func TestStartJump_KeepsStateUntilArrival(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()

	fold(e, s, keyedRecords(t)[:2]...)
	notices := fold(e, s, rec(t, journal.KindStartJump, testutil.Fields{
		"JumpType": "Hyperspace", "StarSystem": "Achenar", "StarClass": "B",
	}))

	assert.Equal(t, []string{"Jumping to: Achenar (B)"}, notices)
	assert.True(t, s.System.InHyperspace)
	assert.Equal(t, "Sol", s.System.Name)
	assert.NotEmpty(t, s.Discovery.Bodies)

	fold(e, s, rec(t, journal.KindFSDJump, testutil.Fields{"StarSystem": "Achenar"}))
	assert.False(t, s.System.InHyperspace)
	assert.Equal(t, "B", s.System.StarClass)
	assert.Empty(t, s.Discovery.Bodies)
	assert.Empty(t, s.Activity.PendingSystem)
}

func TestStartJump_SupercruiseIgnored(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()

	notices := fold(e, s, rec(t, journal.KindStartJump, testutil.Fields{"JumpType": "Supercruise"}))
	assert.Empty(t, notices)
	assert.False(t, s.System.InHyperspace)
	assert.Equal(t, "Supercruise", s.Activity.PendingJumpType)
}

func TestLocation_SameSystemKeepsState(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()

	fold(e, s, keyedRecords(t)...)
	fold(e, s, rec(t, journal.KindLocation, testutil.Fields{"StarSystem": "Sol"}))

	assert.Len(t, s.Discovery.Bodies, 1)
	assert.Len(t, s.Exobio.Records, 1)
}

func TestArrive_AdoptsSystemMeta(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()

	fold(e, s, rec(t, journal.KindFSDJump, testutil.Fields{
		"StarSystem":                "Shinrarta Dezhra",
		"SystemAddress":             3932277478106,
		"StarClass":                 "K",
		"SystemAllegiance":          "PilotsFederation",
		"SystemEconomy":             "$economy_HighTech;",
		"SystemEconomy_Localised":   "High Tech",
		"SystemGovernment":          "$government_Democracy;",
		"SystemSecurity":            "$SYSTEM_SECURITY_high;",
		"Population":                85206935,
		"SystemFaction":             map[string]any{"Name": "The Pilots Federation"},
		"ControllingPower":          "Zemina Torval",
		"PowerplayState":            "Stronghold",
		"Powers":                    []any{"Zemina Torval", "Edmund Mahon"},
		"PowerplayConflictProgress": []any{map[string]any{"Power": "Edmund Mahon", "ConflictProgress": 0.25}},
		"Factions": []any{
			map[string]any{"Name": "The Pilots Federation", "Influence": 0.6, "FactionState": "Boom", "MyReputation": 100.0},
			map[string]any{"Name": "", "Influence": 0.4},
		},
	}))

	sys := s.System
	assert.Equal(t, int64(3932277478106), sys.Address)
	assert.Equal(t, "K", sys.StarClass)
	assert.Equal(t, "High Tech", sys.Economy)
	assert.Equal(t, "Democracy", sys.Government)
	assert.Equal(t, "High", sys.Security)
	assert.Equal(t, int64(85206935), sys.Population)
	assert.Equal(t, "The Pilots Federation", sys.ControllingFaction)
	assert.Equal(t, "Zemina Torval", sys.ControllingPower)
	assert.Equal(t, []string{"Zemina Torval", "Edmund Mahon"}, sys.Powers)
	assert.Equal(t, map[string]float64{"Edmund Mahon": 0.25}, sys.ConflictProgress)
	require.Len(t, sys.Factions, 1)
	assert.Equal(t, "Boom", sys.Factions[0].State)
	assert.Equal(t, 100.0, sys.Factions[0].Reputation)
}

func TestArrive_LegacyFactionString(t *testing.T) {
	e := newTestEngine(t)
	s := state.New()

	fold(e, s, rec(t, journal.KindLocation, testutil.Fields{"StarSystem": "Lave", "SystemFaction": "Lave Radio"}))
	assert.Equal(t, "Lave Radio", s.System.ControllingFaction)
}

// fixedIntel serves one POI and two farm sites for Sol.
type fixedIntel struct{}

func (fixedIntel) Lookup(system string, _ int64) []refdata.POI {
	if system != "Sol" {
		return nil
	}
	return []refdata.POI{{Title: "Abandoned base", Category: "Settlement", Body: "Mars"}}
}

func (fixedIntel) ForSystem(system string) []refdata.FarmSite {
	if system != "Sol" {
		return nil
	}
	return []refdata.FarmSite{{Name: "a"}, {Name: "b"}}
}

func TestArrive_RefreshesAdvisoryIntel(t *testing.T) {
	e := New(WithLogger(quietLogger()), WithTables(Tables{POIs: fixedIntel{}, Farming: fixedIntel{}}))
	s := state.New()

	notices := fold(e, s, rec(t, journal.KindLocation, testutil.Fields{"StarSystem": "Sol"}))
	assert.Equal(t, []string{
		"POI: Abandoned base (Settlement, Mars)",
		"Farming sites in system: 2",
		"Location: Sol",
	}, notices)
	require.Len(t, s.Intel.POIs, 1)
	assert.Equal(t, 2, s.Intel.FarmSites)

	fold(e, s, rec(t, journal.KindFSDJump, testutil.Fields{"StarSystem": "Achenar"}))
	assert.Empty(t, s.Intel.POIs)
	assert.Zero(t, s.Intel.FarmSites)
}

func TestCleanToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"$government_Democracy;", "Democracy"},
		{"$SYSTEM_SECURITY_medium;", "Medium"},
		{"$system_security_low;", "Low"},
		{"$economy_Extraction;", "Extraction"},
		{"$SAA_SignalType_Biological;", "Biological"},
		{"$USS_Type_Salvage;", "Salvage"},
		{"$Fed_faction_state_boom;", "Fed faction state boom"},
		{"NATO_CONTROL", "NATO CONTROL"},
		{"  plain   text ", "Plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanToken(tt.in))
		})
	}
}

func TestCredits_GroupsThousands(t *testing.T) {
	f := newFormatter()
	assert.Equal(t, "1,234,567 cr", f.credits(1234567))
	assert.Equal(t, "0 cr", f.credits(0))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Iron", displayName("iron"))
	assert.Equal(t, "Heat Exchangers", displayName("heat_exchangers"))
}

func ExampleCleanToken() {
	fmt.Println(CleanToken("$government_Corporate;"))
	fmt.Println(CleanToken("$SYSTEM_SECURITY_high;"))
	// Output:
	// Corporate
	// High
}
