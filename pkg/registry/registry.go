// Package registry is the static catalog of supported (device, config)
// pairs and the column schemas they map to. Adding a device or logging
// configuration is a data change here, not a control-flow change anywhere
// else in the engine.
package registry

import (
	"fmt"
	"sort"

	"github.com/licorflow/licorflow/pkg/errors"
)

// ValueType is the declared type of a schema column.
type ValueType uint8

const (
	TypeFloat ValueType = iota
	TypeInt
	TypeText
	TypeTimestamp
)

func (t ValueType) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeText:
		return "text"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Section identifies the structural region of a log a column comes from.
type Section uint8

const (
	// SectionGasEx covers the gas-exchange measurement block, including the
	// instrument's system columns (obs, time, date).
	SectionGasEx Section = iota
	// SectionFlr covers the fluorescence measurement block.
	SectionFlr
	// SectionHeader covers key-value pairs from the [Header] section.
	SectionHeader
	// SectionRemark covers free-text remark lines.
	SectionRemark
)

func (s Section) String() string {
	switch s {
	case SectionGasEx:
		return "gasex"
	case SectionFlr:
		return "flr"
	case SectionHeader:
		return "header"
	case SectionRemark:
		return "remark"
	default:
		return "unknown"
	}
}

// ColumnDef defines one output column.
type ColumnDef struct {
	// Name is the column name, unique within a schema.
	Name string
	// Label is the display label from the variable catalog.
	Label string
	// Units as documented by the instrument, empty if unitless.
	Units string
	// Type is the declared value type.
	Type ValueType
	// Section the column's values are read from.
	Section Section
	// Required marks columns a conforming log must declare in its layout.
	Required bool
	// Description from the variable catalog.
	Description string
}

// Schema is the ordered, typed column set for one (device, config) pair.
type Schema struct {
	Device  string
	Config  string
	Columns []ColumnDef

	byName map[string]int
}

// Column returns the definition for name, or false if the schema has no
// such column.
func (s *Schema) Column(name string) (*ColumnDef, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.Columns[i], true
}

// Required returns the names of all required columns in schema order.
func (s *Schema) Required() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Required {
			names = append(names, c.Name)
		}
	}
	return names
}

// Key identifies one registered (device, config) pair.
type Key struct {
	Device string
	Config string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Device, k.Config)
}

// schemas is populated once at init and read-only afterwards, so Lookup is
// safe for concurrent use without locking.
var schemas = map[Key]*Schema{}

// Lookup returns the schema registered for (device, config), or an
// InvalidDeviceConfig error. Unimplemented-but-plausible pairs fail the
// same way as unknown ones; callers cannot distinguish the two.
func Lookup(device, config string) (*Schema, error) {
	s, ok := schemas[Key{Device: device, Config: config}]
	if !ok {
		return nil, errors.InvalidDeviceConfig(device, config)
	}
	return s, nil
}

// Pairs returns all registered (device, config) pairs in stable order.
func Pairs() []Key {
	keys := make([]Key, 0, len(schemas))
	for k := range schemas {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Device != keys[j].Device {
			return keys[i].Device < keys[j].Device
		}
		return keys[i].Config < keys[j].Config
	})
	return keys
}

// register builds a schema from catalog variable names and installs it.
// Called from init only; panics on catalog inconsistencies since those are
// programming errors, not runtime conditions.
func register(device, config string, variables []string, required map[string]bool) {
	s := &Schema{
		Device: device,
		Config: config,
		byName: make(map[string]int, len(variables)),
	}
	for _, name := range variables {
		def, ok := LookupVariable(name)
		if !ok {
			panic(fmt.Sprintf("registry: schema %s/%s references unknown variable %q", device, config, name))
		}
		if _, dup := s.byName[name]; dup {
			panic(fmt.Sprintf("registry: schema %s/%s declares %q twice", device, config, name))
		}
		s.byName[name] = len(s.Columns)
		s.Columns = append(s.Columns, ColumnDef{
			Name:        def.Name,
			Label:       def.Label,
			Units:       def.Units,
			Type:        def.Type,
			Section:     def.Section,
			Required:    required[name],
			Description: def.Description,
		})
	}
	schemas[Key{Device: device, Config: config}] = s
}
