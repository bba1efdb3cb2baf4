package study

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

// TCodeSet maps parameter names to tcode ids within one set; the reserved
// "ID" key carries the set's own id.
type TCodeSet map[string]int

// Tables holds the parameter (tcode) and material lookup tables used to
// build study modifications
type Tables struct {
	TCodes    map[string]TCodeSet
	Materials map[string]int
}

// LoadTables reads the YAML parameter and material tables
func LoadTables(tcodeFile, materialFile string) (*Tables, error) {
	t := &Tables{}

	data, err := os.ReadFile(tcodeFile)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, &t.TCodes); err != nil {
		return nil, fmt.Errorf("parsing %s: %v", tcodeFile, err)
	}

	data, err = os.ReadFile(materialFile)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, &t.Materials); err != nil {
		return nil, fmt.Errorf("parsing %s: %v", materialFile, err)
	}
	return t, nil
}

// FindParameter locates the tcode set containing a parameter name and
// returns the set name, the set id and the parameter's tcode id
func (t *Tables) FindParameter(name string) (setName string, setID, tcodeID int, err error) {
	for set, codes := range t.TCodes {
		if id, ok := codes[name]; ok && name != "ID" {
			return set, codes["ID"], id, nil
		}
	}
	return "", 0, 0, fmt.Errorf("unable to find %q in the parameter database", name)
}

// FindMaterial resolves a material name to its database id
func (t *Tables) FindMaterial(name string) (int, error) {
	id, ok := t.Materials[name]
	if !ok {
		return 0, fmt.Errorf("unable to find %q in the material database", name)
	}
	return id, nil
}
