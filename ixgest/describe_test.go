package ixgest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/structix/ixgest"
)

func TestDescribeSingleStructure(t *testing.T) {
	p := ixgest.DefaultParams()
	p.File = "aspirin.mol"

	text := ixgest.Describe(p, testRegistry(t))

	assert.Equal(t, "Read structure from aspirin.mol. "+
		"The structure will overwrite the target configuration, or start a new system when there is none. "+
		"The system name will be taken from the file and the configuration name will be taken from the file.", text)
}

func TestDescribeMultipleStructures(t *testing.T) {
	p := ixgest.DefaultParams()
	p.File = "traj.xyz.gz"
	p.Indices = "3:4"
	p.Subsequent = "Create a new configuration"
	p.SystemName = "water box"
	p.ConfigurationName = "keep current name"

	text := ixgest.Describe(p, testRegistry(t))

	assert.Contains(t, text, "Read structure from traj.xyz.gz. ")
	assert.Contains(t, text, "Structures 3:4 will be read.")
	assert.Contains(t, text, "new configuration of the same system")
	assert.Contains(t, text, "The system name will be 'water box' and the configuration name will be kept as it is.")
}

func TestDescribeAllAndExpressions(t *testing.T) {
	reg := testRegistry(t)

	p := ixgest.DefaultParams()
	p.File = "$structure_file"
	text := ixgest.Describe(p, reg)
	assert.Contains(t, text, "All structures in the file will be read.")
	assert.Contains(t, text, "new system and configuration")

	p.File = "aspirin.mol"
	p.FileType = "$kind"
	assert.Contains(t, ixgest.Describe(p, reg), "All structures in the file will be read.",
		"an expression type may name a multi-structure format")

	p.FileType = "from extension"
	p.Indices = "$which"
	p.File = "traj.pdb"
	assert.Contains(t, ixgest.Describe(p, reg), "The structures selected by $which will be read.")
}

func TestDescribeUnknownExtension(t *testing.T) {
	p := ixgest.DefaultParams()
	p.File = "mystery.dat"

	assert.Contains(t, ixgest.Describe(p, testRegistry(t)), "All structures in the file will be read.")
	assert.Contains(t, ixgest.Describe(p, nil), "Read structure from mystery.dat.")
}
