package mop

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qtest "github.com/teranos/structix/internal/testing"
)

func TestReadFixture(t *testing.T) {
	recs, err := New(Options{}).Read(context.Background(), filepath.Join("testdata", "3TR_model.mop"))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	want := qtest.Fixture3TR()
	qtest.AssertSameAtoms(t, want, rec)
	qtest.AssertSameConnectivity(t, want, rec)

	assert.Equal(t, "3TR_model", rec.Metadata.Name)
	assert.Equal(t, "from structix fixtures", rec.Metadata.Comment)
	require.NotNil(t, rec.Metadata.Charge)
	assert.Equal(t, 0, *rec.Metadata.Charge)
	require.NotNil(t, rec.Metadata.Multiplicity)
	assert.Equal(t, 1, *rec.Metadata.Multiplicity)
	assert.Equal(t, "PM7 CHARGE=0 SINGLET", rec.Metadata.Properties["keywords"])
}

func angle(a, b, c [3]float64) float64 {
	u, v := normalize(sub(a, b)), normalize(sub(c, b))
	dot := u[0]*v[0] + u[1]*v[1] + u[2]*v[2]
	return math.Acos(dot) * 180 / math.Pi
}

func TestDecodeZMatrix(t *testing.T) {
	text := `PM7 CHARGE=1 DOUBLET
methyl cation fragment
internal coordinates
 C   0.000 0    0.000 0    0.000 0  0 0 0
 H   1.090 1    0.000 0    0.000 0  1 0 0
 H   1.090 1  109.470 1    0.000 0  1 2 0
 XX  1.000 0   90.000 0  180.000 0  1 2 3
 H   1.090 1  109.470 1  120.000 1  1 2 3
`
	rec, err := New(Options{}).Decode(strings.Split(text, "\n"))
	require.NoError(t, err)

	require.Equal(t, []string{"C", "H", "H", "H"}, rec.Elements(), "dummy atom dropped")
	c := rec.Atoms[0].Coordinates
	for k := 1; k < 4; k++ {
		assert.InDelta(t, 1.09, norm(sub(rec.Atoms[k].Coordinates, c)), 1e-6, "C-H %d", k)
	}
	assert.InDelta(t, 109.47, angle(rec.Atoms[1].Coordinates, c, rec.Atoms[2].Coordinates), 1e-6)
	assert.InDelta(t, 109.47, angle(rec.Atoms[1].Coordinates, c, rec.Atoms[3].Coordinates), 1e-6)
	assert.Len(t, rec.Bonds, 3)

	assert.Equal(t, 1, *rec.Metadata.Charge)
	assert.Equal(t, 2, *rec.Metadata.Multiplicity)
}

func TestDecodeDefaultReferences(t *testing.T) {
	text := "PM7\nwater\n\n O 0 0 0 0 0 0 0 0 0\n H 0.96 1 0 0 0 0 0 0 0\n H 0.96 1 104.5 1 0 0 0 0 0\n"
	rec, err := New(Options{}).Decode(strings.Split(text, "\n"))
	require.NoError(t, err)

	// atom 3 defaults to bonding atom 2 with an angle to atom 1
	h1, h2 := rec.Atoms[1].Coordinates, rec.Atoms[2].Coordinates
	assert.InDelta(t, 0.96, norm(sub(h2, h1)), 1e-6)
	assert.InDelta(t, 104.5, angle(rec.Atoms[0].Coordinates, h1, h2), 1e-6)
}

func TestDecodeContinuationLines(t *testing.T) {
	text := "PM7 &\nCHARGE=-1\nonly a title\n F 0 0 0\n"
	rec, err := New(Options{}).Decode(strings.Split(text, "\n"))
	require.NoError(t, err)

	assert.Equal(t, -1, *rec.Metadata.Charge)
	assert.Equal(t, "only a title", rec.Metadata.Name)
	assert.Equal(t, []string{"F"}, rec.Elements())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		errMsg string
	}{
		{"empty", "", "no geometry"},
		{"no geometry", "PM7\ntitle\ncomment\n\n", "no geometry"},
		{"bad label", "PM7\nt\nc\n Qq 0 0 0\n", `unknown atom label "Qq"`},
		{"bad coordinate", "PM7\nt\nc\n C 0 x 0\n", `bad coordinate "x"`},
		{"forward reference", "PM7\nt\nc\n C 0 0 0 0 0 0 0 0 0\n H 1.0 1 0 0 0 0 2 0 0\n", "bad reference atom"},
		{"only dummies", "PM7\nt\nc\n XX 0 0 0\n", "only dummy atoms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{}).Decode(strings.Split(tt.text, "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCheck(t *testing.T) {
	fixture, err := os.ReadFile(filepath.Join("testdata", "3TR_model.mop"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		sample string
		want   bool
	}{
		{"fixture", string(fixture), true},
		{"arguments", "pm6-d3h4 CHARGE=-2 T=1D GNORM=0.1 C.I.=(2,1)\ntitle\n", true},
		{"continuation", "PM7 EF &\nCHARGE=1\n", true},
		{"xyz", "10\n3TR_model\n", false},
		{"sdf name line", "3TR_model\n  structix          3D\n", false},
		{"prose mentioning a keyword", "run PM7 later\n", false},
		{"blank first line", "\nPM7\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check([]byte(tt.sample)))
		})
	}
}
