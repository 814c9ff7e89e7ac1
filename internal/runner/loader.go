package runner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spboyer/ifccheck/internal/ifc"
	"github.com/spboyer/ifccheck/internal/ifc/step"
)

// ModelLoader opens the model stored at path. The returned schema is the
// declared IFC release, or empty when the format carries none.
type ModelLoader func(path string) (model ifc.Model, schema string, err error)

// IsModelFile reports whether path has an extension LoadModel understands.
func IsModelFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ifc", ".ifczip", ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadModel picks a reader by file extension: STEP for .ifc and .ifczip,
// the entity document format for .yaml, .yml and .json.
func LoadModel(path string) (ifc.Model, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ifc", ".ifczip":
		doc, err := step.Open(path)
		if err != nil {
			return nil, "", err
		}
		return doc.Model, doc.Header.SchemaID, nil
	case ".yaml", ".yml", ".json":
		m, err := ifc.LoadDocumentFile(path)
		if err != nil {
			return nil, "", err
		}
		return m, "", nil
	default:
		return nil, "", fmt.Errorf("unsupported model file %s: expected .ifc, .ifczip, .yaml, .yml or .json", path)
	}
}
