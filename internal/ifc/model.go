// Package ifc holds the read-only view of a parsed IFC model that compliance
// checks consume.
package ifc

import (
	"fmt"
	"strings"
	"sync"
)

// Common IFC entity type names.
const (
	TypeSpace          = "IfcSpace"
	TypeBuildingStorey = "IfcBuildingStorey"
	TypeBuilding       = "IfcBuilding"
	TypeSite           = "IfcSite"
	TypeProject        = "IfcProject"
	TypeZone           = "IfcZone"
)

// Attribute names shared by every IfcRoot subtype.
const (
	AttrGlobalID = "GlobalId"
	AttrName     = "Name"
	AttrLongName = "LongName"
)

// Entity is a single instance in a model.
//
// Attributes holds the named attribute values this variant carries. A key
// that is missing means the attribute does not exist on the variant; a nil
// value means the attribute exists but is unset.
type Entity struct {
	// ID is the local handle, unique only within one loaded model.
	ID int
	// Type is the entity type name as written in the source (e.g. "IfcSpace").
	Type string
	// GlobalID is the persistent identifier assigned by the authoring tool.
	GlobalID   string
	Attributes map[string]any
}

// Attr returns the raw value of the named attribute and whether the
// attribute exists on this entity at all.
func (e *Entity) Attr(name string) (any, bool) {
	if e.Attributes == nil {
		return nil, false
	}
	v, ok := e.Attributes[name]
	return v, ok
}

// StringAttr returns the named attribute as a string. ok is false when the
// attribute does not exist, is unset, or holds a non-string value.
func (e *Entity) StringAttr(name string) (value string, ok bool) {
	v, exists := e.Attr(name)
	if !exists {
		return "", false
	}
	s, isString := v.(string)
	return s, isString
}

// Label returns a short human-readable description, used in log lines.
func (e *Entity) Label() string {
	return fmt.Sprintf("#%d=%s", e.ID, e.Type)
}

//go:generate go tool mockgen -source=model.go -destination=mock_model.go -package=ifc Model

// Model is a queryable, already-loaded collection of entities.
type Model interface {
	// ByType returns every entity of the given type in the model's native
	// order. Type names are matched case-insensitively.
	ByType(typeName string) ([]*Entity, error)
}

// MemoryModel is a Model held entirely in memory. Entities are returned in
// the order they were added. It is safe for concurrent readers.
type MemoryModel struct {
	mu     sync.RWMutex
	byType map[string][]*Entity
	byID   map[int]*Entity
	count  int
}

var _ Model = (*MemoryModel)(nil)

// NewMemoryModel returns an empty model.
func NewMemoryModel() *MemoryModel {
	return &MemoryModel{
		byType: make(map[string][]*Entity),
		byID:   make(map[int]*Entity),
	}
}

// Add appends an entity. Adding a second entity with the same ID is an error.
func (m *MemoryModel) Add(e *Entity) error {
	if e == nil {
		return fmt.Errorf("adding entity: nil entity")
	}
	if e.Type == "" {
		return fmt.Errorf("adding entity #%d: missing type", e.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.byID[e.ID]; dup {
		return fmt.Errorf("adding entity #%d: duplicate id", e.ID)
	}
	key := normalizeType(e.Type)
	m.byType[key] = append(m.byType[key], e)
	m.byID[e.ID] = e
	m.count++
	return nil
}

// ByType implements Model.
func (m *MemoryModel) ByType(typeName string) ([]*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entities := m.byType[normalizeType(typeName)]
	out := make([]*Entity, len(entities))
	copy(out, entities)
	return out, nil
}

// ByID returns the entity with the given local handle.
func (m *MemoryModel) ByID(id int) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[id]
	return e, ok
}

// Len returns the total number of entities in the model.
func (m *MemoryModel) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

func normalizeType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
