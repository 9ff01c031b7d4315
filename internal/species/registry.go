// Package species holds the closed set of footprint classes the classifier
// can report, together with their descriptive metadata.
package species

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
)

//go:embed data/species.yaml
var embeddedSpecies []byte

// GetLogger returns the species package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("species")
}

// Record is the descriptive metadata of one known species.
type Record struct {
	ID                 string `yaml:"id" json:"class_id"`
	Name               string `yaml:"name" json:"name"`
	ScientificName     string `yaml:"scientific_name" json:"scientific_name"`
	ConservationStatus string `yaml:"conservation_status" json:"conservation_status"`
	Description        string `yaml:"description" json:"description"`
	Habitat            string `yaml:"habitat" json:"habitat"`
}

type registryFile struct {
	Species []Record `yaml:"species"`
}

// Registry is an immutable, ordered, closed set of species records.
// It is safe for concurrent use.
type Registry struct {
	records []Record
	byID    map[string]int
}

// Default returns the registry built into the binary.
func Default() (*Registry, error) {
	return Parse(bytes.NewReader(embeddedSpecies))
}

// LoadFile reads a registry from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("open species file: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "load_species_file").
			Build()
	}
	defer f.Close()

	reg, err := Parse(f)
	if err != nil {
		return nil, err
	}

	GetLogger().Info("loaded species registry",
		logger.String("path", path),
		logger.Int("count", reg.Len()))
	return reg, nil
}

// Load returns the registry at path, or the built-in one when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes a YAML registry. An empty or malformed registry is a
// configuration error.
func Parse(r io.Reader) (*Registry, error) {
	var file registryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.New(fmt.Errorf("malformed species registry: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "parse_species_registry").
			Build()
	}

	return New(file.Species...)
}

// New builds a registry from records, preserving their order.
func New(records ...Record) (*Registry, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.NewStd("species registry is empty")).
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityCritical).
			Build()
	}

	reg := &Registry{
		records: make([]Record, 0, len(records)),
		byID:    make(map[string]int, len(records)),
	}

	for i, rec := range records {
		rec.ID = strings.TrimSpace(rec.ID)
		switch {
		case rec.ID == "":
			return nil, malformed(i, "missing id")
		case rec.Name == "":
			return nil, malformed(i, "missing name")
		}
		if _, dup := reg.byID[rec.ID]; dup {
			return nil, malformed(i, fmt.Sprintf("duplicate id %q", rec.ID))
		}
		reg.byID[rec.ID] = len(reg.records)
		reg.records = append(reg.records, rec)
	}

	return reg, nil
}

func malformed(index int, reason string) error {
	return errors.Newf("species registry entry %d: %s", index, reason).
		Category(errors.CategoryConfiguration).
		Context("entry", index).
		Build()
}

// Lookup returns the record for id. Ids outside the closed set fail with a
// not-found error; no record is ever fabricated.
func (r *Registry) Lookup(id string) (Record, error) {
	if i, ok := r.byID[id]; ok {
		return r.records[i], nil
	}
	return Record{}, errors.Newf("species %q not found", id).
		Category(errors.CategoryNotFound).
		Context("class_id", id).
		Build()
}

// IDs returns the known class ids in registry order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.records))
	for i := range r.records {
		ids[i] = r.records[i].ID
	}
	return ids
}

// At returns the record at class index i.
func (r *Registry) At(i int) Record {
	return r.records[i]
}

// Len returns the number of known classes.
func (r *Registry) Len() int {
	return len(r.records)
}

// All returns a copy of all records in registry order.
func (r *Registry) All() []Record {
	return append([]Record(nil), r.records...)
}
