// Package step reads IFC models serialised as ISO 10303-21 exchange files
// (.ifc) and their zipped form (.ifczip).
package step

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/klauspost/compress/zip"

	"github.com/spboyer/ifccheck/internal/ifc"
)

// ErrNoModelInArchive is returned when an .ifczip holds no .ifc member.
var ErrNoModelInArchive = errors.New("no .ifc file in archive")

// guidLength is the length of a compressed IFC GlobalId.
const guidLength = 22

// Header holds the parts of the HEADER section callers care about.
type Header struct {
	Description []string
	FileName    string
	Schema      Schema
	SchemaID    string
}

// Document is a parsed exchange file.
type Document struct {
	Header Header
	Model  *ifc.MemoryModel
}

// Open reads an .ifc or .ifczip file.
func Open(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ifczip", ".zip":
		return openArchive(path)
	default:
		return openFile(path)
	}
}

func openFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	return Read(path, f)
}

func openArchive(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer zr.Close() //nolint:errcheck

	for _, zf := range zr.File {
		if !strings.EqualFold(filepath.Ext(zf.Name), ".ifc") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in %s: %w", zf.Name, path, err)
		}
		defer rc.Close() //nolint:errcheck

		slog.Debug("Reading archived model", "archive", path, "member", zf.Name)
		return Read(path+"!"+zf.Name, rc)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNoModelInArchive)
}

// Read parses an exchange file from r. name is used in error positions.
func Read(name string, r io.Reader) (*Document, error) {
	ast, err := stepParser.Parse(name, r)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("parsing %s at %s: %s", name, perr.Position(), perr.Message())
		}
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	doc := &Document{Model: ifc.NewMemoryModel()}
	if err := doc.readHeader(ast.Header); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	for _, section := range ast.Data {
		for _, inst := range section.Instances {
			e, err := doc.entityOf(inst)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, inst.Pos.Line, err)
			}
			if e == nil {
				continue
			}
			if err := doc.Model.Add(e); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, inst.Pos.Line, err)
			}
		}
	}

	slog.Debug("Parsed exchange file", "name", name, "schema", doc.Header.SchemaID, "entities", doc.Model.Len())
	return doc, nil
}

func (d *Document) readHeader(records []*record) error {
	for _, rec := range records {
		values, err := valuesOf(rec.Params)
		if err != nil {
			return fmt.Errorf("header %s: %w", rec.Type, err)
		}
		switch strings.ToUpper(rec.Type) {
		case "FILE_DESCRIPTION":
			if len(values) > 0 {
				d.Header.Description = stringList(values[0])
			}
		case "FILE_NAME":
			if len(values) > 0 {
				d.Header.FileName, _ = values[0].(string)
			}
		case "FILE_SCHEMA":
			if len(values) > 0 {
				if ids := stringList(values[0]); len(ids) > 0 {
					d.Header.SchemaID = ids[0]
					d.Header.Schema = ParseSchema(ids[0])
				}
			}
		}
	}
	return nil
}

// entityOf builds the entity for one instance. Complex (multi-record)
// instances are not IfcRoot subtypes and are skipped.
func (d *Document) entityOf(inst *instance) (*ifc.Entity, error) {
	id, err := parseRef(inst.Ref)
	if err != nil {
		return nil, err
	}
	if inst.Simple == nil {
		return nil, nil
	}

	values, err := valuesOf(inst.Simple.Params)
	if err != nil {
		return nil, fmt.Errorf("#%d: %w", id, err)
	}

	e := &ifc.Entity{
		ID:         int(id),
		Type:       inst.Simple.Type,
		Attributes: make(map[string]any),
	}

	names := rootAttrs
	if l, ok := lookupLayout(d.Header.Schema, inst.Simple.Type); ok {
		e.Type = l.name
		names = l.attrs
	} else if !isRootLayout(values) {
		return e, nil
	}

	for i, attr := range names {
		if i >= len(values) {
			break
		}
		e.Attributes[attr] = values[i]
	}
	e.GlobalID, _ = e.StringAttr(ifc.AttrGlobalID)
	return e, nil
}

// isRootLayout reports whether values look like an IfcRoot subtype: a
// compressed GlobalId first, then at least the owner history, name and
// description slots.
func isRootLayout(values []any) bool {
	if len(values) < len(rootAttrs) {
		return false
	}
	gid, ok := values[0].(string)
	return ok && len(gid) == guidLength
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
