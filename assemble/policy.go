package assemble

import (
	"strings"

	"github.com/teranos/structix/errors"
)

// Subsequent says what happens to the second and later structures placed
// through one target.
type Subsequent string

const (
	// SubsequentNewSystem places each later structure in a new system with
	// one configuration.
	SubsequentNewSystem Subsequent = "Create a new system and configuration"

	// SubsequentNewConfiguration adds each later structure as a new
	// configuration of the target system.
	SubsequentNewConfiguration Subsequent = "Create a new configuration"
)

// Subsequents lists the accepted values in display order.
func Subsequents() []Subsequent {
	return []Subsequent{SubsequentNewSystem, SubsequentNewConfiguration}
}

// ParseSubsequent accepts the full labels as well as the short forms
// "system" and "configuration". Blank text means SubsequentNewSystem.
func ParseSubsequent(s string) (Subsequent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "system", "new system", strings.ToLower(string(SubsequentNewSystem)):
		return SubsequentNewSystem, nil
	case "configuration", "new configuration", strings.ToLower(string(SubsequentNewConfiguration)):
		return SubsequentNewConfiguration, nil
	}
	return "", errors.NewInvalidRequestError("unknown subsequent structure handling %q", s)
}

// Naming rules for SystemName and ConfigurationName. Any other text is used
// as the name literally.
const (
	// NameFromFile uses the structure's own name, or the file stem when the
	// structure has none.
	NameFromFile = "from file"

	// NameKeepCurrent keeps the name of an existing system or configuration.
	// New ones are named as with NameFromFile.
	NameKeepCurrent = "keep current name"
)

// Policy controls how decoded structures are selected and placed.
type Policy struct {
	// Indices selects structures of a multi-structure input; see
	// ParseIndices. Blank means all.
	Indices string

	// AddHydrogens asks the configured HydrogenAdder to complete each
	// structure before placement.
	AddHydrogens bool

	Subsequent Subsequent

	SystemName        string
	ConfigurationName string
}

// DefaultPolicy keeps every structure, places later ones in new systems and
// names everything from the file.
func DefaultPolicy() Policy {
	return Policy{
		Indices:           AllIndices,
		Subsequent:        SubsequentNewSystem,
		SystemName:        NameFromFile,
		ConfigurationName: NameFromFile,
	}
}

// Validate checks the index grammar and the subsequent handling.
func (p Policy) Validate() error {
	if _, err := ParseIndices(p.Indices); err != nil {
		return err
	}
	if p.Subsequent != "" && p.Subsequent != SubsequentNewSystem && p.Subsequent != SubsequentNewConfiguration {
		return errors.NewInvalidRequestError("unknown subsequent structure handling %q", string(p.Subsequent))
	}
	return nil
}
