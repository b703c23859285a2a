package sdf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/structix/errors"
	qtest "github.com/teranos/structix/internal/testing"
	"github.com/teranos/structix/internal/util"
	"github.com/teranos/structix/structure"
)

func TestReadFixture(t *testing.T) {
	recs, err := Reader{}.Read(context.Background(), filepath.Join("testdata", "3TR_model.sdf"))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	want := qtest.Fixture3TR()
	qtest.AssertSameAtoms(t, want, recs[0])
	qtest.AssertSameBonds(t, want, recs[0])
	assert.Equal(t, "3TR_model", recs[0].Metadata.Name)
	assert.Equal(t, "structix fixtures", recs[0].Metadata.Properties["source"])
	assert.Nil(t, recs[0].Metadata.Charge)
}

func TestReadMultipleRecords(t *testing.T) {
	recs, err := Reader{}.Read(context.Background(), filepath.Join("testdata", "ten_frames.sdf"))
	require.NoError(t, err)
	require.Len(t, recs, 10)
	assert.Equal(t, "frame 1", recs[0].Metadata.Name)
	assert.Equal(t, "frame 10", recs[9].Metadata.Name)
	assert.InDelta(t, 90.0, recs[9].Atoms[0].Coordinates[0], 1e-6)
	assert.True(t, recs[4].HasBond(1, 3, structure.BondSingle))
}

const acetate = `acetate
  structix
hand written
  4  3  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.1000    1.0000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
    2.1000   -1.0000    0.0000 O   0  5  0  0  0  0  0  0  0  0  0  0
  1  2  1  0  0  0  0
  2  3  2  0  0  0  0
  2  4  1  0  0  0  0
M  CHG  1   4  -1
M  END
> <CAS>
71-50-1

$$$$
`

func TestDecodeCharges(t *testing.T) {
	recs, err := Decode(context.Background(), strings.Split(acetate, "\n"))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, -1.0, rec.Atoms[3].Charge)
	require.NotNil(t, rec.Metadata.Charge)
	assert.Equal(t, -1, *rec.Metadata.Charge)
	assert.Equal(t, "hand written", rec.Metadata.Comment)
	assert.Equal(t, "71-50-1", rec.Metadata.Properties["CAS"])
	assert.True(t, rec.HasBond(2, 3, structure.BondDouble))
}

func TestDecodeAtomBlockCharge(t *testing.T) {
	// without M  CHG the charge field of the atom block is used (5 = -1)
	text := strings.Replace(acetate, "M  CHG  1   4  -1\n", "", 1)
	recs, err := Decode(context.Background(), strings.Split(text, "\n"))
	require.NoError(t, err)
	assert.Equal(t, -1.0, recs[0].Atoms[3].Charge)
}

func TestDecodeBlankName(t *testing.T) {
	text := "\n  prog\n\n  1  0  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 Ar  0  0  0  0  0  0  0  0  0  0  0  0\nM  END\n"
	recs, err := Decode(context.Background(), strings.Split(text, "\n"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "", recs[0].Metadata.Name)
	assert.Equal(t, []string{"Ar"}, recs[0].Elements())
}

func TestDecodeV3000(t *testing.T) {
	text := "name\n  prog\n\n  0  0  0     0  0            999 V3000\nM  V30 BEGIN CTAB\n"
	_, err := Decode(context.Background(), strings.Split(text, "\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrV3000))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		errMsg string
	}{
		{"truncated header", "name\nprog\n", "header is truncated"},
		{"bad counts", "name\nprog\n\nxx yy\n", "line 4: bad atom count"},
		{"missing atoms", "name\nprog\n\n  2  0  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 C   0  0", "line 4: counts line announces 2 atoms and 0 bonds, only 1 lines follow"},
		{"unknown element", "name\nprog\n\n  1  0  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 Qq  0  0\nM  END\n", `unknown element "Qq"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(context.Background(), strings.Split(tt.text, "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	rec := qtest.Fixture3TR()
	rec.Atoms[2].Charge = 1
	rec.Metadata.Charge = util.Ptr(1)
	rec.Metadata.Properties = map[string]string{"origin": "unit test"}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []*structure.Record{rec, qtest.Fixture3TR()}))
	assert.Contains(t, buf.String(), "M  CHG  1   3   1")

	path := filepath.Join(t.TempDir(), "out.sdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	recs, err := Reader{}.Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	qtest.AssertSameAtoms(t, rec, recs[0])
	qtest.AssertSameBonds(t, rec, recs[0])
	assert.Equal(t, 1.0, recs[0].Atoms[2].Charge)
	assert.Equal(t, "unit test", recs[0].Metadata.Properties["origin"])
	assert.Equal(t, 0.0, recs[1].Atoms[2].Charge)
}

func TestWriteTooLarge(t *testing.T) {
	rec := &structure.Record{Atoms: make([]structure.Atom, 1000)}
	assert.Error(t, Write(&bytes.Buffer{}, []*structure.Record{rec}))
}

func TestCheck(t *testing.T) {
	fixture, err := os.ReadFile(filepath.Join("testdata", "3TR_model.sdf"))
	require.NoError(t, err)

	assert.True(t, Check(fixture))
	assert.True(t, Check([]byte(acetate)))
	assert.True(t, Check([]byte("x\n\n\n  0  0  0     0  0            999 V3000\n")))
	assert.True(t, Check([]byte("garbage\nM  END\n")))
	assert.False(t, Check([]byte("3\nwater\nO 0 0 0\n")))
	assert.False(t, Check([]byte("@<TRIPOS>MOLECULE\n")))
}

func TestDescriptors(t *testing.T) {
	assert.Equal(t, ".sdf", Descriptor().ID)
	assert.False(t, Descriptor().Metadata.SingleStructure)
	assert.Equal(t, ".mol", MolDescriptor().ID)
	assert.True(t, MolDescriptor().Metadata.SingleStructure)
	assert.Nil(t, MolDescriptor().Checker)
}
