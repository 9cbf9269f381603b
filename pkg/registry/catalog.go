package registry

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed variables.yaml
var variablesYAML []byte

// VariableDef describes one instrument variable from the embedded catalog.
type VariableDef struct {
	Name        string    `yaml:"name"`
	Label       string    `yaml:"label"`
	Units       string    `yaml:"units"`
	Type        ValueType `yaml:"-"`
	RawType     string    `yaml:"type"`
	Section     Section   `yaml:"-"`
	RawSection  string    `yaml:"section"`
	Description string    `yaml:"description"`
}

type catalogFile struct {
	Version   int           `yaml:"version"`
	Variables []VariableDef `yaml:"variables"`
}

var (
	catalogOnce sync.Once
	catalogVars []VariableDef
	catalogByID map[string]*VariableDef
	catalogErr  error
)

// Catalog returns the variable definitions parsed from the embedded catalog.
// The slice is shared; callers must not mutate it.
func Catalog() ([]VariableDef, error) {
	catalogOnce.Do(loadCatalog)
	return catalogVars, catalogErr
}

// LookupVariable finds a catalog entry by internal name.
func LookupVariable(name string) (*VariableDef, bool) {
	catalogOnce.Do(loadCatalog)
	v, ok := catalogByID[name]
	return v, ok
}

func loadCatalog() {
	var f catalogFile
	if err := yaml.Unmarshal(variablesYAML, &f); err != nil {
		catalogErr = fmt.Errorf("variable catalog: %w", err)
		return
	}

	catalogByID = make(map[string]*VariableDef, len(f.Variables))
	catalogVars = f.Variables
	for i := range catalogVars {
		v := &catalogVars[i]
		v.Section = parseSection(v.RawSection)
		if v.RawType != "" {
			v.Type = parseValueType(v.RawType)
		} else {
			v.Type = InferTypeFromUnits(v.Units)
		}
		catalogByID[v.Name] = v
	}
}

// InferTypeFromUnits guesses a value type for a column the catalog does not
// know, based on its declared units. Physical units mean a numeric column;
// anything else stays text.
func InferTypeFromUnits(units string) ValueType {
	if units == "" {
		return TypeText
	}
	for _, marker := range []string{"mol", "kPa", "Pa", "C", "V", "s-1", "m-2", "cm2", "rpm", "%", "s"} {
		if strings.Contains(units, marker) {
			return TypeFloat
		}
	}
	return TypeText
}

func parseValueType(s string) ValueType {
	switch strings.ToLower(s) {
	case "float":
		return TypeFloat
	case "int", "integer":
		return TypeInt
	case "timestamp":
		return TypeTimestamp
	default:
		return TypeText
	}
}

func parseSection(s string) Section {
	switch strings.ToLower(s) {
	case "flr", "fluorescence":
		return SectionFlr
	case "header":
		return SectionHeader
	case "remark", "remarks":
		return SectionRemark
	default:
		return SectionGasEx
	}
}
