package assemble

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/structure"
)

// System is a chemical identity holding one or more configurations.
type System struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Configurations []string  `json:"configurations" yaml:"configurations"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// Configuration is one geometric instance of a system.
type Configuration struct {
	ID       string            `json:"id" yaml:"id"`
	SystemID string            `json:"system_id" yaml:"system_id"`
	Name     string            `json:"name" yaml:"name"`
	Record   *structure.Record `json:"structure" yaml:"structure"`
}

// SystemDB is an in-memory store of systems and configurations.
type SystemDB struct {
	mu             sync.RWMutex
	systems        map[string]*System
	configurations map[string]*Configuration
	order          []string
}

// NewSystemDB creates an empty store.
func NewSystemDB() *SystemDB {
	return &SystemDB{
		systems:        make(map[string]*System),
		configurations: make(map[string]*Configuration),
	}
}

// CreateSystem adds a system without configurations.
func (db *SystemDB) CreateSystem(name string) *System {
	db.mu.Lock()
	defer db.mu.Unlock()

	sys := &System{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	db.systems[sys.ID] = sys
	db.order = append(db.order, sys.ID)
	return copySystem(sys)
}

// CreateConfiguration adds a configuration holding rec to a system.
func (db *SystemDB) CreateConfiguration(systemID, name string, rec *structure.Record) (*Configuration, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	sys, ok := db.systems[systemID]
	if !ok {
		return nil, errors.Newf("system %s not found", systemID)
	}
	conf := &Configuration{ID: uuid.New().String(), SystemID: systemID, Name: name, Record: rec}
	db.configurations[conf.ID] = conf
	sys.Configurations = append(sys.Configurations, conf.ID)
	return copyConfiguration(conf), nil
}

// UpdateConfiguration replaces the structure and name of a configuration.
func (db *SystemDB) UpdateConfiguration(id, name string, rec *structure.Record) (*Configuration, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	conf, ok := db.configurations[id]
	if !ok {
		return nil, errors.Newf("configuration %s not found", id)
	}
	conf.Name = name
	conf.Record = rec
	return copyConfiguration(conf), nil
}

// RenameSystem sets a system's name.
func (db *SystemDB) RenameSystem(id, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	sys, ok := db.systems[id]
	if !ok {
		return errors.Newf("system %s not found", id)
	}
	sys.Name = name
	return nil
}

// DeleteSystem removes a system and its configurations.
func (db *SystemDB) DeleteSystem(id string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	sys, ok := db.systems[id]
	if !ok {
		return
	}
	for _, cid := range sys.Configurations {
		delete(db.configurations, cid)
	}
	delete(db.systems, id)
	for k, sid := range db.order {
		if sid == id {
			db.order = append(db.order[:k], db.order[k+1:]...)
			break
		}
	}
}

// DeleteConfiguration removes a configuration from its system.
func (db *SystemDB) DeleteConfiguration(id string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	conf, ok := db.configurations[id]
	if !ok {
		return
	}
	delete(db.configurations, id)
	if sys, ok := db.systems[conf.SystemID]; ok {
		for k, cid := range sys.Configurations {
			if cid == id {
				sys.Configurations = append(sys.Configurations[:k], sys.Configurations[k+1:]...)
				break
			}
		}
	}
}

// System returns a copy of the system with the given id.
func (db *SystemDB) System(id string) (*System, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	sys, ok := db.systems[id]
	if !ok {
		return nil, false
	}
	return copySystem(sys), true
}

// Configuration returns a copy of the configuration with the given id.
func (db *SystemDB) Configuration(id string) (*Configuration, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	conf, ok := db.configurations[id]
	if !ok {
		return nil, false
	}
	return copyConfiguration(conf), true
}

// Systems returns all systems in creation order.
func (db *SystemDB) Systems() []*System {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]*System, 0, len(db.order))
	for _, id := range db.order {
		out = append(out, copySystem(db.systems[id]))
	}
	return out
}

// Configurations returns the configurations of a system in creation order.
func (db *SystemDB) Configurations(systemID string) []*Configuration {
	db.mu.RLock()
	defer db.mu.RUnlock()

	sys, ok := db.systems[systemID]
	if !ok {
		return nil
	}
	out := make([]*Configuration, 0, len(sys.Configurations))
	for _, id := range sys.Configurations {
		out = append(out, copyConfiguration(db.configurations[id]))
	}
	return out
}

// Names returns the sorted system names, for logs and tests.
func (db *SystemDB) Names() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.systems))
	for _, sys := range db.systems {
		names = append(names, sys.Name)
	}
	sort.Strings(names)
	return names
}

func copySystem(s *System) *System {
	c := *s
	c.Configurations = append([]string(nil), s.Configurations...)
	return &c
}

func copyConfiguration(c *Configuration) *Configuration {
	out := *c
	return &out
}
