package main

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type (
	manifest struct {
		Package  string            `yaml:"package"`
		Services []manifestService `yaml:"services"`
	}

	manifestService struct {
		Identifier     string   `yaml:"identifier"`
		Descriptor     string   `yaml:"descriptor"`
		Constructor    string   `yaml:"constructor"`
		Lifetime       string   `yaml:"lifetime"`
		Implementation string   `yaml:"implementation"`
		Description    string   `yaml:"description,omitempty"`
		Dependencies   []string `yaml:"dependencies,omitempty"`
		Source         string   `yaml:"source"`
	}
)

// renderManifest lists the discovered services as YAML, for review and
// tooling.
func renderManifest(pkgName string, services []ServiceDefinition) ([]byte, error) {
	m := manifest{
		Package:  pkgName,
		Services: make([]manifestService, 0, len(services)),
	}
	for _, s := range services {
		var deps []string
		for _, p := range s.Params {
			deps = append(deps, p.ID)
		}
		m.Services = append(m.Services, manifestService{
			Identifier:     s.InterfaceID,
			Descriptor:     s.DescriptorName,
			Constructor:    s.FnName,
			Lifetime:       s.Lifetime.String(),
			Implementation: s.Implementation,
			Description:    s.Description,
			Dependencies:   deps,
			Source:         fmt.Sprintf("%s:%d", s.File, s.Line),
		})
	}

	out, err := yaml.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest:\n\t%w", err)
	}
	return out, nil
}

func parseManifest(data []byte) (manifest, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("failed to parse manifest:\n\t%w", err)
	}
	return m, nil
}
