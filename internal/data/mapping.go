package data

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// MappingFile is the on-disk id→name table written by cmd/mappinggen.
// Ids and names pair up by index; extra entries in the longer list are
// ignored.
type MappingFile struct {
	PackageIDs   []string `yaml:"package_ids"`
	PackageNames []string `yaml:"package_names"`
}

// PackageMapping resolves stable package ids to current package names.
type PackageMapping struct {
	byID map[string]string
}

// LoadPackageMapping loads a mapping YAML file.
func LoadPackageMapping(path string) (*PackageMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package mapping %s: %w", path, err)
	}
	var file MappingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse package mapping: %w", err)
	}
	return NewPackageMapping(file), nil
}

// NewPackageMapping indexes a decoded mapping file. Ids and names are
// NFC-normalised: tooling on different hosts may emit either form.
func NewPackageMapping(file MappingFile) *PackageMapping {
	n := min(len(file.PackageIDs), len(file.PackageNames))
	m := &PackageMapping{byID: make(map[string]string, n)}
	for i := 0; i < n; i++ {
		id := normalize(file.PackageIDs[i])
		if id == "" {
			continue
		}
		if _, dup := m.byID[id]; dup {
			continue // first wins
		}
		m.byID[id] = normalize(file.PackageNames[i])
	}
	return m
}

// PackageNameByID returns the package name for id.
func (m *PackageMapping) PackageNameByID(id string) (string, bool) {
	name, ok := m.byID[normalize(id)]
	return name, ok
}

// Count returns the number of mapped ids.
func (m *PackageMapping) Count() int {
	return len(m.byID)
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// SaveMappingFile writes file as YAML, ids and names in the given order.
func SaveMappingFile(path string, file MappingFile) error {
	out, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal package mapping: %w", err)
	}
	out = append([]byte("# Generated by mappinggen. Do not edit.\n"), out...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write package mapping %s: %w", path, err)
	}
	return nil
}
