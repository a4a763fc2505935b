package journal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Basic(t *testing.T) {
	rec, err := Decode([]byte(`{"timestamp":"2025-01-02T03:04:05Z","event":"FSDJump","StarSystem":"Sol","SystemAddress":10477373803}`))
	require.NoError(t, err)

	assert.Equal(t, KindFSDJump, rec.Kind())
	assert.Equal(t, "2025-01-02T03:04:05Z", rec.Timestamp())

	addr, ok := rec.Int("SystemAddress")
	require.True(t, ok)
	assert.Equal(t, int64(10477373803), addr)

	ts, ok := rec.Time()
	require.True(t, ok)
	assert.Equal(t, 2025, ts.Year())
}

func TestDecode_BlankLine(t *testing.T) {
	_, err := Decode([]byte("   \r\n"))
	assert.ErrorIs(t, err, ErrBlankLine)
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"truncated":   `{"event":"Scan","BodyName":"A 1`,
		"not object":  `[1,2,3]`,
		"no kind":     `{"timestamp":"2025-01-02T03:04:05Z"}`,
		"kind number": `{"event":42}`,
		"trailing":    `{"event":"Scan"} {"event":"Scan"}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(line))
			require.Error(t, err)
			var de *DecodeError
			assert.True(t, errors.As(err, &de), "want DecodeError, got %T", err)
		})
	}
}

func TestDecode_NoKindIsSentinel(t *testing.T) {
	_, err := Decode([]byte(`{"event":"  "}`))
	assert.ErrorIs(t, err, ErrNoKind)
}

func TestObject_WrongTypesAreAbsent(t *testing.T) {
	rec, err := Decode([]byte(`{"event":"Scan","BodyID":"7","Landable":"yes","Materials":{"iron":20.5},"Signals":"none","Count":2.5}`))
	require.NoError(t, err)

	_, ok := rec.Int("BodyID")
	assert.False(t, ok, "string id is not an int")

	_, ok = rec.Bool("Landable")
	assert.False(t, ok)

	_, ok = rec.Objects("Signals")
	assert.False(t, ok)

	_, ok = rec.Int("Count")
	assert.False(t, ok, "fractional number is not an int")

	f, ok := rec.Float("Count")
	require.True(t, ok)
	assert.InDelta(t, 2.5, f, 1e-9)

	_, ok = rec.Int("Missing")
	assert.False(t, ok)
}

func TestObject_IntegralFloat(t *testing.T) {
	rec, err := Decode([]byte(`{"event":"Cargo","Count":3.0}`))
	require.NoError(t, err)
	n, ok := rec.Int("Count")
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
}

func TestObject_Localised(t *testing.T) {
	rec, err := Decode([]byte(`{"event":"Location","SystemEconomy":"$economy_Extraction;","SystemEconomy_Localised":"  Extraction  ","Ship":"  krait_mkii "}`))
	require.NoError(t, err)

	assert.Equal(t, "Extraction", rec.Localised("SystemEconomy"))
	assert.Equal(t, "krait_mkii", rec.Localised("Ship"))
	assert.Equal(t, "", rec.Localised("Nope"))
}

func TestObject_ObjectsSkipsNonObjects(t *testing.T) {
	rec, err := Decode([]byte(`{"event":"Materials","Raw":[{"Name":"iron","Count":3},7,"x",{"Name":"nickel","Count":1}]}`))
	require.NoError(t, err)

	items, ok := rec.Objects("Raw")
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "iron", items[0].Text("Name"))
	assert.Equal(t, "nickel", items[1].Text("Name"))
}

func TestObject_Strings(t *testing.T) {
	rec, err := Decode([]byte(`{"event":"Location","Powers":["A. Lavigny-Duval"," ",3,"Zemina Torval"]}`))
	require.NoError(t, err)
	powers, ok := rec.Strings("Powers")
	require.True(t, ok)
	assert.Equal(t, []string{"A. Lavigny-Duval", "Zemina Torval"}, powers)
}

func TestFromMap(t *testing.T) {
	rec, err := FromMap(map[string]any{"event": "RedeemVoucher", "Amount": 1500})
	require.NoError(t, err)
	assert.Equal(t, KindRedeemVoucher, rec.Kind())
	n, ok := rec.Int("Amount")
	require.True(t, ok)
	assert.Equal(t, int64(1500), n)
}

func TestIsSystemBoundary(t *testing.T) {
	assert.True(t, IsSystemBoundary(KindLocation))
	assert.True(t, IsSystemBoundary(KindFSDJump))
	assert.True(t, IsSystemBoundary(KindCarrierJump))
	assert.False(t, IsSystemBoundary(KindStartJump))
	assert.False(t, IsSystemBoundary(Kind("Music")))
}
