package pkgfile

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// FileSuffix is appended to a package name to form its descriptor file name.
const FileSuffix = "_fui.bytes"

// Dependency names another package by id and name.
type Dependency struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Item is one asset declared by a package.
type Item struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // "texture", "audio", "component", ...
	File string `yaml:"file"` // extension including the dot, e.g. ".png"
}

// Descriptor is the on-disk form of a package.
type Descriptor struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	Dependencies []Dependency `yaml:"dependencies"`
	Items        []Item       `yaml:"items"`
}

var errNoID = errors.New("package descriptor has no id")

// Parse decodes a descriptor without registering it anywhere.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse package descriptor: %w", err)
	}
	if d.ID == "" {
		return nil, errNoID
	}
	return &d, nil
}

// Digest returns the hex blake2b-256 of a package payload.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
