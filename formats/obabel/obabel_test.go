package obabel

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/structix/errors"
	qtest "github.com/teranos/structix/internal/testing"
	"github.com/teranos/structix/internal/util"
	"github.com/teranos/structix/structure"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error

	argv  []string
	stdin []byte
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, []byte, error) {
	f.argv = argv
	if stdin != nil {
		f.stdin, _ = io.ReadAll(stdin)
	}
	return f.stdout, f.stderr, f.err
}

func fixtureSDF(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "sdf", "testdata", "3TR_model.sdf"))
	require.NoError(t, err)
	return data
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(filepath.Join("testdata", "converters.toml"))
	require.NoError(t, err)

	assert.Equal(t, "obabel", m.Executable)
	require.Len(t, m.Converters, 2)
	assert.Equal(t, DefaultCommand, m.Converters[0].Command)
	assert.Equal(t, "<molecule", m.Converters[0].Marker)
	assert.True(t, m.Converters[1].SingleStructure)
	assert.Equal(t, ">= 0.1.0", m.Converters[1].Requires)
}

func TestDecodeManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown key", "[[converter]]\nid = \".cml\"\nmarkr = \"x\"\n", "unknown keys: converter.markr"},
		{"missing id", "[[converter]]\ndescription = \"nothing\"\n", "converter 1 has no id"},
		{"bad toml", "executable = \n", "decode toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeManifest(tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDescriptors(t *testing.T) {
	m, err := LoadManifest(filepath.Join("testdata", "converters.toml"))
	require.NoError(t, err)

	ds := m.Descriptors(&fakeRunner{})
	require.Len(t, ds, 2)

	assert.Equal(t, ".cml", ds[0].ID)
	require.NotNil(t, ds[0].Checker)
	assert.True(t, ds[0].Checker.Check([]byte(`<?xml version="1.0"?><molecule id="m1">`)))
	assert.False(t, ds[0].Checker.Check([]byte("3\nwater\nO 0 0 0\n")))

	assert.Equal(t, ".cif", ds[1].ID)
	assert.Nil(t, ds[1].Checker)
	assert.True(t, ds[1].Metadata.SingleStructure)
}

func TestCommandKeepsPathsWhole(t *testing.T) {
	r := NewReader("obabel", Converter{ID: ".CIF", Command: "{exe} -i{format} '{input}' -osdf"}, nil)

	argv, err := r.Command("/data/my crystals/quartz.cif")
	require.NoError(t, err)
	assert.Equal(t, []string{"obabel", "-icif", "/data/my crystals/quartz.cif", "-osdf"}, argv)
}

func TestCommandErrors(t *testing.T) {
	_, err := NewReader("obabel", Converter{ID: ".cif", Command: `{exe} "unterminated`}, nil).Command("x.cif")
	require.Error(t, err)

	_, err = NewReader("obabel", Converter{ID: ".cif", Command: "   "}, nil).Command("x.cif")
	require.Error(t, err)
}

func TestReadParsesConverterOutput(t *testing.T) {
	runner := &fakeRunner{stdout: fixtureSDF(t), stderr: []byte("1 molecule converted\n")}
	r := NewReader("obabel", Converter{ID: ".cml"}, runner)

	recs, err := r.Read(context.Background(), "3TR_model.cml")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"obabel", "-icml", "3TR_model.cml", "-osdf"}, runner.argv)

	want := qtest.Fixture3TR()
	qtest.AssertSameAtoms(t, want, recs[0])
	qtest.AssertSameBonds(t, want, recs[0])
}

func TestReadNothingConverted(t *testing.T) {
	runner := &fakeRunner{stderr: []byte("==============================\n*** Open Babel Error in ReadMolecule\n0 molecules converted\n")}
	r := NewReader("obabel", Converter{ID: ".cml"}, runner)

	_, err := r.Read(context.Background(), "broken.cml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConversion))
	assert.Contains(t, err.Error(), "0 molecules converted")
}

func TestReadProcessFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: []byte("cannot open input")}
	r := NewReader("obabel", Converter{ID: ".cml"}, runner)

	_, err := r.Read(context.Background(), "missing.cml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run obabel -icml missing.cml -osdf")
	assert.Contains(t, errors.FlattenDetails(err), "cannot open input")
}

func TestReadWithRealProcess(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	r := NewReader("cat", Converter{ID: ".sdtext", Command: "{exe} {input}"}, nil)

	recs, err := r.Read(context.Background(), filepath.Join("..", "sdf", "testdata", "ten_frames.sdf"))
	require.NoError(t, err)
	assert.Len(t, recs, 10)
}

func TestAddHydrogens(t *testing.T) {
	runner := &fakeRunner{stdout: fixtureSDF(t)}
	adder := NewHydrogenAdder("", runner)

	heavy := qtest.Fixture3TR()
	heavy.Atoms = heavy.Atoms[:6]
	heavy.Bonds = []structure.Bond{
		{I: 1, J: 2, Order: structure.BondSingle},
		{I: 1, J: 5, Order: structure.BondSingle},
		{I: 2, J: 3, Order: structure.BondDouble},
		{I: 3, J: 4, Order: structure.BondSingle},
		{I: 3, J: 6, Order: structure.BondSingle},
		{I: 4, J: 5, Order: structure.BondDouble},
	}
	heavy.Metadata.Charge = util.Ptr(0)

	out, err := adder.AddHydrogens(context.Background(), heavy)
	require.NoError(t, err)

	assert.Equal(t, []string{"obabel", "-isdf", "-osdf", "-h"}, runner.argv)
	assert.Contains(t, string(runner.stdin), "V2000")
	assert.Equal(t, 10, out.NAtoms())
	assert.Equal(t, "3TR_model", out.Metadata.Name)
	require.NotNil(t, out.Metadata.Charge)
	assert.Equal(t, 0, *out.Metadata.Charge)
	assert.Equal(t, 6, heavy.NAtoms(), "input is not modified")
}

func TestAddHydrogensFailure(t *testing.T) {
	adder := NewHydrogenAdder("obabel", &fakeRunner{stderr: []byte("0 molecules converted")})

	_, err := adder.AddHydrogens(context.Background(), qtest.Fixture3TR())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConversion))
}
