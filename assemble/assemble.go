// Package assemble selects decoded structures and places them into systems
// and configurations.
package assemble

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/internal/compress"
	"github.com/teranos/structix/internal/util"
	"github.com/teranos/structix/logger"
	"github.com/teranos/structix/structure"
)

// HydrogenAdder completes a structure with its missing hydrogens. It must
// not modify rec.
type HydrogenAdder interface {
	AddHydrogens(ctx context.Context, rec *structure.Record) (*structure.Record, error)
}

// Target is where structures land. The first structure placed through a
// target overwrites its configuration, or creates the system and
// configuration when the target is empty; later ones follow the policy's
// Subsequent handling. A target keeps this state across Assemble calls, so
// the members of an archive after the first one are all subsequent.
type Target struct {
	db              *SystemDB
	systemID        string
	configurationID string
	placed          int
}

// NewTarget creates an empty target in db.
func NewTarget(db *SystemDB) *Target {
	return &Target{db: db}
}

// ExistingTarget targets a configuration already in db.
func ExistingTarget(db *SystemDB, systemID, configurationID string) (*Target, error) {
	conf, ok := db.Configuration(configurationID)
	if !ok || conf.SystemID != systemID {
		return nil, errors.NewInvalidRequestError("configuration %s does not belong to system %s", configurationID, systemID)
	}
	return &Target{db: db, systemID: systemID, configurationID: configurationID}, nil
}

// DB returns the store the target writes to.
func (t *Target) DB() *SystemDB { return t.db }

// SystemID returns the target system, empty before the first placement of
// an empty target.
func (t *Target) SystemID() string { return t.systemID }

// ConfigurationID returns the target configuration.
func (t *Target) ConfigurationID() string { return t.configurationID }

// Placed returns how many structures went through the target.
func (t *Target) Placed() int { return t.placed }

// Placement records where one structure ended up.
type Placement struct {
	// Index is the 1-based position of the structure in the reader output.
	Index             int    `json:"index"`
	SystemID          string `json:"system_id"`
	SystemName        string `json:"system_name"`
	ConfigurationID   string `json:"configuration_id"`
	ConfigurationName string `json:"configuration_name"`
	NewSystem         bool   `json:"new_system"`
	Atoms             int    `json:"atoms"`
}

// Assembly is the result of one Assemble call.
type Assembly struct {
	Records    []*structure.Record
	Placements []Placement
}

// Assembler turns reader output into placed structures.
type Assembler struct {
	adder HydrogenAdder
	log   *zap.SugaredLogger
}

// NewAssembler creates an assembler. adder may be nil; requests for
// hydrogens are then logged and skipped.
func NewAssembler(adder HydrogenAdder, log *zap.SugaredLogger) *Assembler {
	return &Assembler{adder: adder, log: logger.OrNop(log)}
}

// Assemble selects records by policy.Indices, adds hydrogens when asked and
// places each selected record through target. A nil target skips placement.
// The records must come from one reader call, in reader order.
//
// Assemble is all or nothing: on error no structure stays placed and the
// target is as it was before the call.
func (a *Assembler) Assemble(ctx context.Context, records []*structure.Record, target *Target, policy Policy) (*Assembly, error) {
	log := logger.FromContext(ctx, a.log)

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	sel, err := ParseIndices(policy.Indices)
	if err != nil {
		return nil, err
	}
	selected, err := sel.Resolve(len(records))
	if err != nil {
		return nil, err
	}

	hydrogens := policy.AddHydrogens
	if hydrogens && a.adder == nil {
		log.Warnw("Hydrogens requested but no hydrogen adder is configured, continuing without",
			logger.FieldStructures, len(selected),
		)
		hydrogens = false
	}

	out := &Assembly{Records: make([]*structure.Record, 0, len(selected))}
	for _, i := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := a.prepare(ctx, records[i], i, hydrogens)
		if err != nil {
			return nil, err
		}
		out.Records = append(out.Records, rec)
	}
	if target == nil {
		return out, nil
	}

	saved := *target
	var undo []func()
	rollback := func() {
		for k := len(undo) - 1; k >= 0; k-- {
			undo[k]()
		}
		*target = saved
	}
	for k, rec := range out.Records {
		if err := ctx.Err(); err != nil {
			rollback()
			return nil, err
		}
		p, revert, err := target.place(rec, policy)
		if err != nil {
			rollback()
			return nil, errors.Wrapf(err, "place structure %d", selected[k]+1)
		}
		undo = append(undo, revert)
		p.Index = selected[k] + 1
		out.Placements = append(out.Placements, p)

		log.Debugw("Placed structure",
			logger.FieldSystem, p.SystemName,
			logger.FieldConfiguration, p.ConfigurationName,
			logger.FieldAtoms, p.Atoms,
		)
	}
	return out, nil
}

// prepare normalizes the record at reader position i and completes its
// hydrogens.
func (a *Assembler) prepare(ctx context.Context, rec *structure.Record, i int, hydrogens bool) (*structure.Record, error) {
	if rec == nil {
		return nil, errors.Newf("structure %d is missing", i+1)
	}
	if err := structure.Normalize(rec); err != nil {
		return nil, errors.Wrapf(err, "structure %d", i+1)
	}
	if !hydrogens {
		return rec, nil
	}
	completed, err := a.adder.AddHydrogens(ctx, rec)
	if err != nil {
		return nil, errors.Wrapf(err, "add hydrogens to structure %d", i+1)
	}
	if err := structure.Normalize(completed); err != nil {
		return nil, errors.Wrapf(err, "structure %d after adding hydrogens", i+1)
	}
	return completed, nil
}

// place stores rec and returns a func that takes it out of the store again.
func (t *Target) place(rec *structure.Record, policy Policy) (Placement, func(), error) {
	subsequent := policy.Subsequent
	if subsequent == "" {
		subsequent = SubsequentNewSystem
	}

	var p Placement
	var revert func()
	switch {
	case t.placed == 0 && t.configurationID != "":
		sys, ok := t.db.System(t.systemID)
		if !ok {
			return p, nil, errors.Newf("system %s not found", t.systemID)
		}
		prev, ok := t.db.Configuration(t.configurationID)
		if !ok {
			return p, nil, errors.Newf("configuration %s not found", t.configurationID)
		}
		sysName := chooseName(policy.SystemName, sys.Name, rec)
		if err := t.db.RenameSystem(sys.ID, sysName); err != nil {
			return p, nil, err
		}
		conf, err := t.db.UpdateConfiguration(prev.ID, chooseName(policy.ConfigurationName, prev.Name, rec), rec)
		if err != nil {
			t.db.RenameSystem(sys.ID, sys.Name)
			return p, nil, err
		}
		revert = func() {
			t.db.UpdateConfiguration(prev.ID, prev.Name, prev.Record)
			t.db.RenameSystem(sys.ID, sys.Name)
		}
		p = Placement{SystemID: sys.ID, SystemName: sysName, ConfigurationID: conf.ID, ConfigurationName: conf.Name}

	case t.placed == 0 || subsequent == SubsequentNewSystem:
		sys := t.db.CreateSystem(chooseName(policy.SystemName, "", rec))
		conf, err := t.db.CreateConfiguration(sys.ID, chooseName(policy.ConfigurationName, "", rec), rec)
		if err != nil {
			t.db.DeleteSystem(sys.ID)
			return p, nil, err
		}
		if t.placed == 0 {
			t.systemID, t.configurationID = sys.ID, conf.ID
		}
		revert = func() { t.db.DeleteSystem(sys.ID) }
		p = Placement{SystemID: sys.ID, SystemName: sys.Name, ConfigurationID: conf.ID, ConfigurationName: conf.Name, NewSystem: true}

	default:
		sys, ok := t.db.System(t.systemID)
		if !ok {
			return p, nil, errors.Newf("system %s not found", t.systemID)
		}
		conf, err := t.db.CreateConfiguration(sys.ID, chooseName(policy.ConfigurationName, "", rec), rec)
		if err != nil {
			return p, nil, err
		}
		revert = func() { t.db.DeleteConfiguration(conf.ID) }
		p = Placement{SystemID: sys.ID, SystemName: sys.Name, ConfigurationID: conf.ID, ConfigurationName: conf.Name}
	}
	p.Atoms = rec.NAtoms()
	t.placed++
	return p, revert, nil
}

// chooseName applies a naming rule; current is the existing name, empty for
// new objects.
func chooseName(rule, current string, rec *structure.Record) string {
	switch rule {
	case NameKeepCurrent:
		if current != "" {
			return current
		}
		return nameFromFile(rec)
	case "", NameFromFile:
		return nameFromFile(rec)
	default:
		return rule
	}
}

func nameFromFile(rec *structure.Record) string {
	if rec.Metadata.Name != "" {
		return rec.Metadata.Name
	}
	if rec.Metadata.Source == "" {
		return ""
	}
	inner, _ := compress.SplitSuffix(filepath.Base(rec.Metadata.Source))
	return util.Stem(inner)
}
