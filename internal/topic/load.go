package topic

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a topics YAML file.
type catalogFile struct {
	Topics []Topic `yaml:"topics"`
}

// Load reads a catalog from a YAML file at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return c, nil
}

// Decode reads a catalog from YAML. Unknown keys are rejected so that typos in
// hand-edited catalogs surface early.
func Decode(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return New(file.Topics)
}

// Write stores c as YAML at path, creating parent directories as needed.
func Write(path string, c *Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}

	data, err := yaml.Marshal(catalogFile{Topics: c.Topics()})
	if err != nil {
		return fmt.Errorf("marshalling catalog: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}
