package format

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/structure"
)

func stubReader(element string) Reader {
	return ReaderFunc(func(ctx context.Context, path string) ([]*structure.Record, error) {
		return []*structure.Record{{Atoms: []structure.Atom{{Element: element}}}}, nil
	})
}

func prefixChecker(prefix string) Checker {
	return CheckerFunc(func(sample []byte) bool {
		return len(sample) >= len(prefix) && string(sample[:len(prefix)]) == prefix
	})
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry("1.0.0")
	require.NoError(t, reg.Register(Descriptor{ID: ".xyz", Reader: stubReader("C")}))
	require.NoError(t, reg.Register(Descriptor{ID: "SDF", Reader: stubReader("O")}))

	d, err := reg.Lookup(".xyz")
	require.NoError(t, err)
	assert.Equal(t, ".xyz", d.ID)

	d, err = reg.Lookup(".sdf")
	require.NoError(t, err)
	assert.Equal(t, ".sdf", d.ID, "ids are normalized at registration")

	_, err = reg.Lookup("sdf")
	assert.NoError(t, err, "lookups are normalized too")
}

func TestLookupUnknown(t *testing.T) {
	reg := NewRegistry("1.0.0")

	_, err := reg.Lookup(".foo")
	require.Error(t, err)

	var unknown *UnknownFormatError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, ".foo", unknown.ID)
	assert.True(t, errors.Is(err, errors.ErrUnknownFormat))
	assert.False(t, reg.Has(".foo"))
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry("1.0.0")
	require.NoError(t, reg.Register(Descriptor{ID: ".pdb", Reader: stubReader("C")}))

	err := reg.Register(Descriptor{ID: ".PDB", Reader: stubReader("N")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateFormat))

	d, err := reg.Lookup(".pdb")
	require.NoError(t, err)
	recs, err := d.Reader.Read(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "C", recs[0].Atoms[0].Element, "first registration is kept")
}

func TestRegisterRejectsIncomplete(t *testing.T) {
	reg := NewRegistry("1.0.0")
	assert.Error(t, reg.Register(Descriptor{Reader: stubReader("C")}))
	assert.Error(t, reg.Register(Descriptor{ID: ".xyz"}))
	assert.Equal(t, 0, reg.Len())
}

func TestRegisterVersionConstraint(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		requires string
		wantErr  bool
	}{
		{"no constraint", "0.1.0", "", false},
		{"satisfied", "1.4.0", ">= 1.2.0", false},
		{"unsatisfied", "1.1.0", ">= 1.2.0", true},
		{"bad constraint", "1.1.0", "not a constraint", true},
		{"bad host version", "dev", ">= 1.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(tt.host)
			err := reg.Register(Descriptor{
				ID:       ".xyz",
				Reader:   stubReader("C"),
				Metadata: Metadata{Requires: tt.requires},
			})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIDsOrder(t *testing.T) {
	reg := NewRegistry("1.0.0")
	for _, id := range []string{".mol2", ".sdf", ".pdb", ".xyz"} {
		reg.MustRegister(Descriptor{ID: id, Reader: stubReader("C")})
	}

	assert.Equal(t, []string{".mol2", ".sdf", ".pdb", ".xyz"}, reg.IDs())
	assert.Equal(t, []string{".mol2", ".pdb", ".sdf", ".xyz"}, reg.Sorted())
}

func TestCheckersRegistrationOrder(t *testing.T) {
	reg := NewRegistry("1.0.0")
	reg.MustRegister(Descriptor{ID: ".b", Reader: stubReader("C"), Checker: prefixChecker("x")})
	reg.MustRegister(Descriptor{ID: ".a", Reader: stubReader("C")})
	reg.MustRegister(Descriptor{ID: ".c", Reader: stubReader("C"), Checker: prefixChecker("x")})

	checkers := reg.Checkers()
	require.Len(t, checkers, 2)
	assert.Equal(t, ".b", checkers[0].ID)
	assert.Equal(t, ".c", checkers[1].ID)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry("1.0.0")
	reg.MustRegister(Descriptor{ID: ".xyz", Reader: stubReader("C")})
	assert.Panics(t, func() {
		reg.MustRegister(Descriptor{ID: ".xyz", Reader: stubReader("C")})
	})
}

func TestConcurrentRegistration(t *testing.T) {
	reg := NewRegistry("1.0.0")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = reg.Register(Descriptor{ID: fmt.Sprintf(".f%d", i%10), Reader: stubReader("C")})
			_, _ = reg.Lookup(".f1")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, reg.Len())
}

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		".xyz":             ".xyz",
		"XYZ":              ".xyz",
		" .SDF  (MDL SD) ": ".sdf",
		".xyz -- XMOL":     ".xyz",
		"":                 "",
		"   ":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeID(in), "%q", in)
	}
}

func TestIsFromExtension(t *testing.T) {
	assert.True(t, IsFromExtension(""))
	assert.True(t, IsFromExtension("from extension"))
	assert.True(t, IsFromExtension("  From Extension "))
	assert.False(t, IsFromExtension(".xyz"))
}
