package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/structix/internal/util"
	"github.com/teranos/structix/structure"
)

// CoordinateTolerance is the agreement expected between the fixture files,
// which print coordinates with four decimals.
const CoordinateTolerance = 1e-3

// Fixture3TR returns the ten-atom reference structure shared by the format
// fixtures (testdata/3TR_model.*): a tetrazole ring N1..N4,C5 with a
// methylene on N3.
func Fixture3TR() *structure.Record {
	r := &structure.Record{
		Atoms: []structure.Atom{
			{Element: "N", Coordinates: [3]float64{0.0000, 1.1500, 0.0000}},
			{Element: "N", Coordinates: [3]float64{-1.0937, 0.3554, 0.0000}},
			{Element: "N", Coordinates: [3]float64{-0.6760, -0.9304, 0.0000}},
			{Element: "N", Coordinates: [3]float64{0.6760, -0.9304, 0.0000}},
			{Element: "C", Coordinates: [3]float64{1.0937, 0.3554, 0.0000}},
			{Element: "C", Coordinates: [3]float64{-1.5400, -2.1196, 0.0000}},
			{Element: "H", Coordinates: [3]float64{0.0000, 2.1600, 0.0000}},
			{Element: "H", Coordinates: [3]float64{2.1209, 0.6891, 0.0000}},
			{Element: "H", Coordinates: [3]float64{-1.9097, -2.6285, 0.8890}},
			{Element: "H", Coordinates: [3]float64{-1.9097, -2.6285, -0.8890}},
		},
		Metadata: structure.Metadata{Name: "3TR_model"},
	}
	for _, b := range []struct {
		i, j  int
		order structure.BondOrder
	}{
		{1, 2, structure.BondSingle},
		{1, 5, structure.BondSingle},
		{1, 7, structure.BondSingle},
		{2, 3, structure.BondDouble},
		{3, 4, structure.BondSingle},
		{3, 6, structure.BondSingle},
		{4, 5, structure.BondDouble},
		{5, 8, structure.BondSingle},
		{6, 9, structure.BondSingle},
		{6, 10, structure.BondSingle},
	} {
		r.AddBond(b.i, b.j, b.order)
	}
	return r
}

// AssertSameAtoms checks element sequence and coordinates against want.
func AssertSameAtoms(t *testing.T, want, got *structure.Record) {
	t.Helper()
	require.Equal(t, want.Elements(), got.Elements(), "element sequence")
	for i := range want.Atoms {
		for k := 0; k < 3; k++ {
			w, g := want.Atoms[i].Coordinates[k], got.Atoms[i].Coordinates[k]
			assert.Truef(t, util.NearlyEqual(w, g, CoordinateTolerance),
				"atom %d coordinate %d: want %.4f, got %.4f", i+1, k, w, g)
		}
	}
}

// AssertSameConnectivity checks that got bonds exactly the pairs of want,
// ignoring orders.
func AssertSameConnectivity(t *testing.T, want, got *structure.Record) {
	t.Helper()
	require.Len(t, got.Bonds, len(want.Bonds), "bond count")
	for _, b := range want.Bonds {
		assert.Truef(t, got.HasBond(b.I, b.J, ""), "missing bond %d-%d", b.I, b.J)
	}
}

// AssertSameBonds checks connectivity and bond orders.
func AssertSameBonds(t *testing.T, want, got *structure.Record) {
	t.Helper()
	AssertSameConnectivity(t, want, got)
	for _, b := range want.Bonds {
		assert.Truef(t, got.HasBond(b.I, b.J, b.Order), "bond %d-%d: want %s", b.I, b.J, b.Order)
	}
}
