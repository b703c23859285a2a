// Package formats registers the built-in structure readers.
package formats

import (
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats/mol2"
	"github.com/teranos/structix/formats/mop"
	"github.com/teranos/structix/formats/obabel"
	"github.com/teranos/structix/formats/pdb"
	"github.com/teranos/structix/formats/sdf"
	"github.com/teranos/structix/formats/xyz"
	"github.com/teranos/structix/structure"
)

// Options tunes the built-in readers.
type Options struct {
	// BondTolerance scales covalent radii when readers perceive bonds.
	// Zero means structure.DefaultBondTolerance.
	BondTolerance float64

	// Converters, when set, adds the external converter formats it
	// declares after the built-in ones.
	Converters *obabel.Manifest

	// Runner executes converter commands; nil runs them directly.
	Runner obabel.Runner
}

// Builtin returns the built-in descriptors in registration order. The order
// matters for content sniffing: the first checker that accepts a sample wins,
// so formats with unambiguous markers come before the loose ones.
func Builtin(opts Options) []format.Descriptor {
	tol := opts.BondTolerance
	if tol <= 0 {
		tol = structure.DefaultBondTolerance
	}
	return []format.Descriptor{
		mol2.Descriptor(),
		sdf.Descriptor(),
		sdf.MolDescriptor(),
		pdb.Descriptor(pdb.Options{BondTolerance: tol}),
		pdb.EntDescriptor(pdb.Options{BondTolerance: tol}),
		xyz.Descriptor(xyz.Options{BondTolerance: tol}),
		mop.Descriptor(mop.Options{BondTolerance: tol}),
	}
}

// RegisterBuiltin registers the built-in readers, then any configured
// converters. A converter may not shadow a built-in id.
func RegisterBuiltin(reg *format.Registry, opts Options) error {
	for _, d := range Builtin(opts) {
		if err := reg.Register(d); err != nil {
			return errors.Wrapf(err, "register %s", d.ID)
		}
	}
	if opts.Converters == nil {
		return nil
	}
	for _, d := range opts.Converters.Descriptors(opts.Runner) {
		if err := reg.Register(d); err != nil {
			return errors.Wrapf(err, "register converter %s", d.ID)
		}
	}
	return nil
}

// NewRegistry creates a registry for hostVersion holding the built-in
// readers.
func NewRegistry(hostVersion string, opts Options) (*format.Registry, error) {
	reg := format.NewRegistry(hostVersion)
	if err := RegisterBuiltin(reg, opts); err != nil {
		return nil, err
	}
	return reg, nil
}
