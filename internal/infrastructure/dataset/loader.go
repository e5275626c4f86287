package dataset

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/domain/shared"
)

//go:embed sample.yaml
var sampleData []byte

// Decode reads one YAML or JSON document from r. Unknown fields are
// rejected so that a misspelled key does not silently drop data.
func Decode(r io.Reader) (*school.School, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var dto FileDTO
	if err := dec.Decode(&dto); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed("empty document")
		}
		return nil, shared.WrapError("dataset", "Decode", shared.ErrInvalidFormat, "parse document", err)
	}

	return SchoolFromDTO(&dto)
}

// LoadFile reads the dataset stored at path.
func LoadFile(path string) (*school.School, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return s, nil
}

// Sample returns the dataset bundled with the binary.
func Sample() (*school.School, error) {
	return Decode(bytes.NewReader(sampleData))
}

// Encode writes s as YAML.
func Encode(w io.Writer, s *school.School) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(DTOFromSchool(s)); err != nil {
		return fmt.Errorf("dataset: encode: %w", err)
	}
	return enc.Close()
}
