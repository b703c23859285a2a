package obabel

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
)

// DefaultCommand converts the input to SD text on stdout.
const DefaultCommand = "{exe} -i{format} {input} -osdf"

// Manifest is the converters.toml file: extra formats read through an
// external converter.
type Manifest struct {
	// Executable is the converter binary, looked up in PATH when relative.
	Executable string `toml:"executable"`

	Converters []Converter `toml:"converter"`
}

// Converter declares one extra format.
type Converter struct {
	// ID is the format id, e.g. ".cif"
	ID string `toml:"id"`

	Description string `toml:"description"`

	// Command is the converter command line. Placeholders: {exe},
	// {format} (the id without its dot) and {input}. Quoting follows
	// POSIX shell rules; no shell is involved.
	Command string `toml:"command"`

	// SingleStructure marks formats holding one structure per file.
	SingleStructure bool `toml:"single_structure"`

	// Marker, when set, enables content sniffing: samples containing it
	// are claimed for this format.
	Marker string `toml:"marker"`

	// Requires is a semver constraint on the structix version.
	Requires string `toml:"requires"`
}

// LoadManifest reads a converters.toml file. Unknown keys are rejected so
// typos do not silently disable a converter.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read converter manifest %s", path)
	}
	m, err := DecodeManifest(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "converter manifest %s", path)
	}
	return m, nil
}

// DecodeManifest parses manifest text.
func DecodeManifest(data string) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(data, &m)
	if err != nil {
		return nil, errors.Wrap(err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Newf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if m.Executable == "" {
		m.Executable = "obabel"
	}
	for i, c := range m.Converters {
		if format.NormalizeID(c.ID) == "" {
			return nil, errors.Newf("converter %d has no id", i+1)
		}
		if c.Command == "" {
			m.Converters[i].Command = DefaultCommand
		}
	}
	return &m, nil
}

// Descriptors builds one registry entry per converter, all running through
// runner.
func (m *Manifest) Descriptors(runner Runner) []format.Descriptor {
	out := make([]format.Descriptor, 0, len(m.Converters))
	for _, c := range m.Converters {
		d := format.Descriptor{
			ID:     format.NormalizeID(c.ID),
			Reader: NewReader(m.Executable, c, runner),
			Metadata: format.Metadata{
				SingleStructure: c.SingleStructure,
				Description:     c.Description,
				Requires:        c.Requires,
			},
		}
		if c.Marker != "" {
			marker := []byte(c.Marker)
			d.Checker = format.CheckerFunc(func(sample []byte) bool {
				return strings.Contains(string(sample), string(marker))
			})
		}
		out = append(out, d)
	}
	return out
}
