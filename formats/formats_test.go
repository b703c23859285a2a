package formats

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats/obabel"
	qtest "github.com/teranos/structix/internal/testing"
)

func newDispatcher(t *testing.T) *format.Dispatcher {
	t.Helper()
	reg, err := NewRegistry("1.0.0", Options{})
	require.NoError(t, err)
	return format.NewDispatcher(reg, nil, nil)
}

func TestRegisterBuiltinOrder(t *testing.T) {
	reg, err := NewRegistry("1.0.0", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{".mol2", ".sdf", ".mol", ".pdb", ".ent", ".xyz", ".mop"}, reg.IDs())

	var checkers []string
	for _, d := range reg.Checkers() {
		checkers = append(checkers, d.ID)
	}
	assert.Equal(t, []string{".mol2", ".sdf", ".pdb", ".xyz", ".mop"}, checkers)

	mol, err := reg.Lookup(".mol")
	require.NoError(t, err)
	assert.True(t, mol.Metadata.SingleStructure)
}

func TestRegisterBuiltinTwice(t *testing.T) {
	reg := format.NewRegistry("1.0.0")
	require.NoError(t, RegisterBuiltin(reg, Options{}))

	err := RegisterBuiltin(reg, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateFormat))
}

func TestFixtureThroughEveryFormat(t *testing.T) {
	d := newDispatcher(t)
	want := qtest.Fixture3TR()

	tests := []struct {
		file      string
		id        string
		sameBonds bool
	}{
		{"3TR_model.mol2", ".mol2", true},
		{"3TR_model.xyz", ".xyz", false},
		{"3TR_model.pdb", ".pdb", true},
		{"3TR_model.sdf", ".sdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			res, recs, err := d.ReadFile(context.Background(), filepath.Join("testdata", tt.file), format.FromExtension)
			require.NoError(t, err)
			assert.Equal(t, tt.id, res.ID)
			assert.Equal(t, format.ProvenanceExtension, res.Provenance)
			require.Len(t, recs, 1)

			got := recs[0]
			qtest.AssertSameAtoms(t, want, got)
			// XYZ carries no bonds; perception recovers the connectivity
			// but may place double bonds differently in the ring.
			if tt.sameBonds {
				qtest.AssertSameBonds(t, want, got)
			} else {
				qtest.AssertSameConnectivity(t, want, got)
			}
			assert.Equal(t, tt.id, got.Metadata.Format)
			assert.Equal(t, "C2H4N4", got.Formula())
		})
	}
}

func TestFixtureSniffedWithoutExtension(t *testing.T) {
	d := newDispatcher(t)
	dir := t.TempDir()

	for _, id := range []string{".mol2", ".xyz", ".pdb", ".sdf"} {
		t.Run(id, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", "3TR_model"+id))
			require.NoError(t, err)
			path := filepath.Join(dir, "upload_"+id[1:])
			require.NoError(t, os.WriteFile(path, data, 0o644))

			res, recs, err := d.ReadFile(context.Background(), path, "")
			require.NoError(t, err)
			assert.Equal(t, id, res.ID)
			assert.Equal(t, format.ProvenanceContent, res.Provenance)
			require.Len(t, recs, 1)
			assert.Equal(t, 10, recs[0].NAtoms())
		})
	}
}

func TestExplicitFormatOverridesExtension(t *testing.T) {
	d := newDispatcher(t)
	dir := t.TempDir()

	data, err := os.ReadFile(filepath.Join("testdata", "3TR_model.xyz"))
	require.NoError(t, err)
	path := filepath.Join(dir, "structure.txt")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	res, recs, err := d.ReadFile(context.Background(), path, "xyz -- XYZ")
	require.NoError(t, err)
	assert.Equal(t, ".xyz", res.ID)
	assert.Equal(t, format.ProvenanceExplicit, res.Provenance)
	assert.Len(t, recs, 1)
}

func TestRegisterConverters(t *testing.T) {
	m, err := obabel.DecodeManifest("[[converter]]\nid = \".cml\"\nmarker = \"<molecule\"\n")
	require.NoError(t, err)

	reg, err := NewRegistry("1.0.0", Options{Converters: m})
	require.NoError(t, err)
	assert.Equal(t, ".cml", reg.IDs()[len(reg.IDs())-1])
}

func TestConverterCannotShadowBuiltin(t *testing.T) {
	m, err := obabel.DecodeManifest("[[converter]]\nid = \".pdb\"\n")
	require.NoError(t, err)

	_, err = NewRegistry("1.0.0", Options{Converters: m})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateFormat))
	assert.Contains(t, err.Error(), "register converter .pdb")
}
