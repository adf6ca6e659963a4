package definition

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"shapemap/mapping"
)

// LoadFile loads and parses a YAML definition file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definition YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	for i := range f.Models {
		md := &f.Models[i]

		if md.KeyValue != nil {
			defaultRules(md.KeyValue.Rules)
		}

		for _, kv := range md.PerFormat {
			if kv != nil {
				defaultRules(kv.Rules)
			}
		}

		if md.XML != nil {
			if md.XML.Root == "" {
				md.XML.Root = md.Name
			}

			defaultRules(md.XML.Elements)
			defaultRules(md.XML.Attributes)

			if md.XML.Instances != nil && md.XML.Instances.To == "" && md.Instances != nil {
				md.XML.Instances.To = md.Instances.Attribute
			}
		}

		if md.Sort != nil && md.Sort.Order == "" {
			md.Sort.Order = "asc"
		}
	}
}

func defaultRules(rules []RuleDef) {
	for i := range rules {
		if rules[i].To == "" {
			rules[i].To = rules[i].Name.First()
		}
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal definitions: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write definition file %s: %w", path, err)
	}

	return nil
}

// Load reads, validates and builds the models of a definition file into reg.
func Load(path string, reg *mapping.Registry) ([]*mapping.Model, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if diags := Validate(f); diags.HasErrors() {
		return nil, fmt.Errorf("invalid definition file %s: %w", path, diags.Error())
	}

	return Build(f, reg)
}
