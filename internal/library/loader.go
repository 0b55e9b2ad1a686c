package library

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Parse decodes a library document from YAML bytes and checks its
// invariants.
func Parse(data []byte) (*Library, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("library: decode document: %w", err)
	}
	return New(doc)
}

// LoadFile loads a library document from an explicit file path.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("library: read %s: %w", path, err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("library: %s: %w", path, err)
	}
	return l, nil
}

// Seed returns the embedded dispensing-and-weighing library. It is the
// default domain when no library file is configured.
func Seed() *Library {
	l, err := Parse(seedYAML)
	if err != nil {
		// The seed ships with the binary; a broken seed is a build defect.
		panic(fmt.Sprintf("library: embedded seed invalid: %v", err))
	}
	return l
}
