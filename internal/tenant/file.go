package tenant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk tenant table:
//
//	tenants:
//	  - id: tenantA
//	    display_name: Tenant A
//	    api_keys: [tenantA_key]
type fileConfig struct {
	Tenants []struct {
		ID          string   `yaml:"id"`
		DisplayName string   `yaml:"display_name"`
		APIKeys     []string `yaml:"api_keys"`
	} `yaml:"tenants"`
}

// LoadFile reads a YAML tenant table.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read tenants file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Table{}, fmt.Errorf("parse tenants file %s: %w", path, err)
	}

	table := Table{
		Keys:         make(map[string]string),
		DisplayNames: make(map[string]string),
	}
	for _, t := range fc.Tenants {
		if err := ValidateID(t.ID); err != nil {
			return Table{}, err
		}
		if t.DisplayName != "" {
			table.DisplayNames[t.ID] = t.DisplayName
		}
		for _, key := range t.APIKeys {
			if existing, ok := table.Keys[key]; ok && existing != t.ID {
				return Table{}, fmt.Errorf("%w: %s and %s", ErrDuplicateKey, existing, t.ID)
			}
			table.Keys[key] = t.ID
		}
	}
	return table, nil
}
