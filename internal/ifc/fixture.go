package ifc

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// entityDoc is one entry of a YAML/JSON model document. Any key that is not
// one of the fixed fields becomes an attribute.
type entityDoc struct {
	ID         int            `mapstructure:"id"`
	Type       string         `mapstructure:"type"`
	GlobalID   string         `mapstructure:"global_id"`
	Attributes map[string]any `mapstructure:",remain"`
}

type modelDoc struct {
	Entities []entityDoc `mapstructure:"entities"`
}

// LoadDocumentFile reads a YAML or JSON model document from path.
func LoadDocumentFile(path string) (*MemoryModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	m, err := LoadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	return m, nil
}

// LoadDocument decodes a model document of the form
//
//	entities:
//	  - id: 12
//	    type: IfcSpace
//	    global_id: 2Vx3...
//	    Name: Lobby
//	    LongName: Main lobby
//
// Entities without an id are numbered in order after the highest explicit
// id. An attribute written as null exists but is unset; an attribute that is
// not written does not exist on that entity.
func LoadDocument(r io.Reader) (*MemoryModel, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return NewMemoryModel(), nil
		}
		return nil, fmt.Errorf("parsing model document: %w", err)
	}

	var doc modelDoc
	if err := mapstructure.Decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding model document: %w", err)
	}

	next := 0
	for _, ed := range doc.Entities {
		next = max(next, ed.ID)
	}

	m := NewMemoryModel()
	for i, ed := range doc.Entities {
		id := ed.ID
		if id == 0 {
			next++
			id = next
		}
		e := &Entity{
			ID:         id,
			Type:       ed.Type,
			GlobalID:   ed.GlobalID,
			Attributes: ed.Attributes,
		}
		if e.Attributes == nil {
			e.Attributes = map[string]any{}
		}
		if e.GlobalID == "" {
			if gid, ok := e.StringAttr(AttrGlobalID); ok {
				e.GlobalID = gid
			}
		}
		if err := m.Add(e); err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
	}
	return m, nil
}
