package ixgest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/ixgest"
)

func TestDefaultParams(t *testing.T) {
	p := ixgest.DefaultParams()

	assert.Equal(t, "from extension", p.FileType)
	assert.True(t, p.AddHydrogens)
	assert.Equal(t, "1:end", p.Indices)
	assert.Equal(t, "Create a new system and configuration", p.Subsequent)
	assert.Equal(t, "from file", p.SystemName)
	assert.Equal(t, "from file", p.ConfigurationName)
}

func TestParamsValidate(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name    string
		mutate  func(*ixgest.Params)
		wantErr error
	}{
		{"defaults with a file", func(p *ixgest.Params) {}, nil},
		{"explicit type", func(p *ixgest.Params) { p.FileType = ".xyz -- XYZ" }, nil},
		{"expressions pass", func(p *ixgest.Params) { p.FileType = "$type"; p.Indices = "$which" }, nil},
		{"no file", func(p *ixgest.Params) { p.File = " " }, errors.ErrInvalidRequest},
		{"unknown type", func(p *ixgest.Params) { p.FileType = ".cube" }, errors.ErrUnknownFormat},
		{"bad indices", func(p *ixgest.Params) { p.Indices = "4:2" }, errors.ErrInvalidRequest},
		{"bad handling", func(p *ixgest.Params) { p.Subsequent = "merge" }, errors.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ixgest.DefaultParams()
			p.File = "water.xyz"
			tt.mutate(&p)

			err := p.Validate(reg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestParamsPolicy(t *testing.T) {
	p := ixgest.DefaultParams()
	p.AddHydrogens = false
	p.Indices = "2:end:2"
	p.Subsequent = "configuration"
	p.SystemName = ""

	policy, err := p.Policy()
	require.NoError(t, err)
	assert.Equal(t, assemble.Policy{
		Indices:           "2:end:2",
		Subsequent:        assemble.SubsequentNewConfiguration,
		SystemName:        assemble.NameFromFile,
		ConfigurationName: assemble.NameFromFile,
	}, policy)
}

func TestParamsExpand(t *testing.T) {
	p := ixgest.DefaultParams()
	p.File = "${input}"
	p.Indices = "$frames"

	got, err := p.Expand(map[string]string{"input": "traj.xyz", "frames": "3:4"})
	require.NoError(t, err)
	assert.Equal(t, "traj.xyz", got.File)
	assert.Equal(t, "3:4", got.Indices)
	assert.False(t, got.HasExpressions())
	assert.True(t, p.HasExpressions(), "original is left alone")

	_, err = p.Expand(map[string]string{"input": "traj.xyz"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	p.File = "$not valid"
	_, err = p.Expand(map[string]string{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestParamsExtension(t *testing.T) {
	tests := []struct {
		file     string
		fileType string
		want     string
	}{
		{"water.xyz", "from extension", ".xyz"},
		{"dir/Caffeine.SDF", "from extension", ".sdf"},
		{"structure.xyz.gz", "from extension", ".xyz"},
		{"ethanol.pdb.zst", "from extension", ".pdb"},
		{"water.txt", "xyz -- XYZ", ".xyz"},
		{"noext", "from extension", ""},
		{"$file", "from extension", "all"},
		{"water.xyz", "$type", "all"},
		{"https://example.org/models/3TR.mol2?download=1", "from extension", ".mol2"},
	}

	for _, tt := range tests {
		t.Run(tt.file+"|"+tt.fileType, func(t *testing.T) {
			p := ixgest.Params{File: tt.file, FileType: tt.fileType}
			assert.Equal(t, tt.want, p.Extension())
		})
	}
}

func TestIsExpression(t *testing.T) {
	assert.True(t, ixgest.IsExpression("$x"))
	assert.True(t, ixgest.IsExpression("  ${x}"))
	assert.False(t, ixgest.IsExpression("x$"))
	assert.False(t, ixgest.IsExpression(""))
}
