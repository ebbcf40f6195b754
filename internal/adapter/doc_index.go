// Package adapter contains the infrastructure the planner consults: the
// documentation index, the trait-implementation index, surface loading and
// report storage.
package adapter

import (
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// DocIndex answers item lookups by documentation identifier. Implementations
// must be safe for concurrent readers.
type DocIndex interface {
	// Struct returns the struct definition for id, if id names a struct.
	Struct(id string) (m.StructDef, bool)

	// TypeName returns the fully qualified display name for id, or "" when
	// unknown.
	TypeName(id string) string
}

// MemoryDocIndex is a read-only DocIndex backed by maps.
type MemoryDocIndex struct {
	structs map[string]m.StructDef
	names   map[string]string
}

// NewMemoryDocIndex indexes the structs and names of a surface. Struct names
// double as display names unless overridden.
func NewMemoryDocIndex(surface m.Surface) *MemoryDocIndex {
	idx := &MemoryDocIndex{
		structs: make(map[string]m.StructDef, len(surface.Structs)),
		names:   make(map[string]string, len(surface.Names)+len(surface.Structs)),
	}

	for _, def := range surface.Structs {
		idx.structs[def.ID] = def
		idx.names[def.ID] = def.Name
	}

	for id, name := range surface.Names {
		idx.names[id] = name
	}

	return idx
}

// Struct implements DocIndex.
func (d *MemoryDocIndex) Struct(id string) (m.StructDef, bool) {
	def, ok := d.structs[id]
	return def, ok
}

// TypeName implements DocIndex.
func (d *MemoryDocIndex) TypeName(id string) string {
	return d.names[id]
}
