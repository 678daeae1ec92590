// Package schema defines the data model shared by the store, the renderer and
// the publish pipeline: a Schema describes one named collection (its remote
// base path, its three user-authored templates and its ordered field
// definitions), a Record is one entry in a collection, and a FieldValue is the
// serialized value stored for one field of one record.
package schema

import (
	"fmt"
	"time"
)

// Schema describes a named collection and how its entries are rendered.
type Schema struct {
	ID       int64
	Name     string
	BasePath string

	// User-authored template strings. EntryPathTemplate yields the remote
	// path of a single entry, EntryTemplate its HTML body, IndexTemplate
	// the collection index page.
	EntryTemplate     string
	EntryPathTemplate string
	IndexTemplate     string

	// Fields holds the ordered field definitions. Field names are unique
	// within a schema.
	Fields []FieldDefinition
}

// FieldDefinition is one named, typed slot within a schema.
type FieldDefinition struct {
	ID   int64
	Name string
	Kind string

	// Options lists the allowed values for choice-like kinds (select).
	// Ignored by all other kinds.
	Options []string
}

// Record is one entry belonging to a schema. Field values are stored
// separately and joined by record ID.
type Record struct {
	ID        int64
	SchemaID  int64
	UpdatedAt time.Time
}

// FieldValue is the stored, serialized value for one field on one record.
// ValueJSON is opaque here; its shape is owned by the field type registered
// under the field's kind.
type FieldValue struct {
	RecordID  int64
	FieldName string
	ValueJSON []byte
}

// Field returns the definition with the given name, or an error if the schema
// has no such field.
func (s *Schema) Field(name string) (FieldDefinition, error) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	return FieldDefinition{}, fmt.Errorf("schema %q has no field %q", s.Name, name)
}

// Validate checks the structural invariants: a non-empty name and unique field
// names. Field kinds are validated against the registry by callers that hold
// one.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema name must not be empty")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %q: field name must not be empty", s.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %q: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}
