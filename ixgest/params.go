// Package ixgest runs the read-structure step: it resolves the input,
// routes archives to the batch ingestor and single files to the
// dispatcher, places the structures and records the run.
package ixgest

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/internal/compress"
	"github.com/teranos/structix/source"
)

// Params are the caller-facing parameters of one read step. Any value may be
// an expression ("$name" or "${name}") that Expand resolves before Run.
type Params struct {
	File              string `json:"file" yaml:"file" mapstructure:"file"`
	FileType          string `json:"file_type" yaml:"file_type" mapstructure:"file_type"`
	AddHydrogens      bool   `json:"add_hydrogens" yaml:"add_hydrogens" mapstructure:"add_hydrogens"`
	Indices           string `json:"indices" yaml:"indices" mapstructure:"indices"`
	Subsequent        string `json:"subsequent" yaml:"subsequent" mapstructure:"subsequent"`
	SystemName        string `json:"system_name" yaml:"system_name" mapstructure:"system_name"`
	ConfigurationName string `json:"configuration_name" yaml:"configuration_name" mapstructure:"configuration_name"`
}

// DefaultParams reads every structure by extension, adds hydrogens and
// places later structures in new systems named from the file.
func DefaultParams() Params {
	return Params{
		FileType:          format.FromExtension,
		AddHydrogens:      true,
		Indices:           assemble.AllIndices,
		Subsequent:        string(assemble.SubsequentNewSystem),
		SystemName:        assemble.NameFromFile,
		ConfigurationName: assemble.NameFromFile,
	}
}

var expression = regexp.MustCompile(`^\$(?:\{([A-Za-z_][A-Za-z0-9_]*)\}|([A-Za-z_][A-Za-z0-9_]*))$`)

// IsExpression reports whether a parameter value refers to a variable.
func IsExpression(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "$")
}

// HasExpressions reports whether any string parameter is an expression.
func (p Params) HasExpressions() bool {
	for _, v := range p.strings() {
		if IsExpression(*v) {
			return true
		}
	}
	return false
}

// Expand returns a copy with every expression replaced by its variable. An
// unknown variable or a malformed expression is an invalid request.
func (p Params) Expand(vars map[string]string) (Params, error) {
	out := p
	for _, v := range out.strings() {
		value := strings.TrimSpace(*v)
		if !IsExpression(value) {
			continue
		}
		m := expression.FindStringSubmatch(value)
		if m == nil {
			return Params{}, errors.NewInvalidRequestError("malformed expression %q", value)
		}
		name := m[1] + m[2]
		resolved, ok := vars[name]
		if !ok {
			return Params{}, errors.NewInvalidRequestError("undefined variable %q", name)
		}
		*v = resolved
	}
	return out, nil
}

func (p *Params) strings() []*string {
	return []*string{&p.File, &p.FileType, &p.Indices, &p.Subsequent, &p.SystemName, &p.ConfigurationName}
}

// Validate checks the enumerations against reg. Expressions are accepted as
// they stand; Run rejects them.
func (p Params) Validate(reg *format.Registry) error {
	if strings.TrimSpace(p.File) == "" {
		return errors.NewInvalidRequestError("no structure file given")
	}
	if !IsExpression(p.FileType) && !format.IsFromExtension(p.FileType) {
		if _, err := reg.Lookup(p.FileType); err != nil {
			return errors.WithHint(err, "run `structix formats` to list the registered formats")
		}
	}
	if !IsExpression(p.Indices) {
		if _, err := assemble.ParseIndices(p.Indices); err != nil {
			return err
		}
	}
	if !IsExpression(p.Subsequent) {
		if _, err := assemble.ParseSubsequent(p.Subsequent); err != nil {
			return err
		}
	}
	return nil
}

// Policy converts the placement parameters for the assembler.
func (p Params) Policy() (assemble.Policy, error) {
	sub, err := assemble.ParseSubsequent(p.Subsequent)
	if err != nil {
		return assemble.Policy{}, err
	}
	policy := assemble.Policy{
		Indices:           p.Indices,
		AddHydrogens:      p.AddHydrogens,
		Subsequent:        sub,
		SystemName:        orDefault(p.SystemName, assemble.NameFromFile),
		ConfigurationName: orDefault(p.ConfigurationName, assemble.NameFromFile),
	}
	return policy, policy.Validate()
}

// Explicit returns the explicit format label, or "" to resolve from the
// extension.
func (p Params) Explicit() string {
	if format.IsFromExtension(p.FileType) {
		return ""
	}
	return p.FileType
}

// Extension guesses the format id the step will use without touching the
// file: the explicit type, else the suffix inside any compression marker.
// Expressions yield "all".
func (p Params) Extension() string {
	file := strings.TrimSpace(p.File)
	if IsExpression(file) || IsExpression(p.FileType) {
		return "all"
	}
	if explicit := p.Explicit(); explicit != "" {
		return format.NormalizeID(explicit)
	}
	if file == "" {
		return ""
	}
	if source.IsRemote(file) {
		file = source.FileName(file)
	}
	inner, _ := compress.SplitSuffix(filepath.Base(file))
	return strings.ToLower(filepath.Ext(inner))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
