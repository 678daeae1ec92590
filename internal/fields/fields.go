// Package fields implements the field type registry: the polymorphic behavior
// bundle (input rendering, form parsing, storage serialization, derived
// artifacts) for each supported field kind. Kinds are registered under a
// stable string identifier; a field definition referencing an unregistered
// kind is a validation error, surfaced as "unknown field type".
package fields

import (
	"context"
	"fmt"
	"html"

	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/schema"
)

// FieldType is the capability set one field kind must implement.
//
// Serialize and Deserialize form the storage contract: for any value v that
// ParseFormValue can produce, Deserialize(Serialize(v)) == v.
type FieldType interface {
	// Kind returns the stable identifier this type registers under.
	Kind() string

	// RenderInput produces an editable control for the field, wrapped with
	// a kind marker so client-side behavior can dispatch on it.
	RenderInput(def schema.FieldDefinition, current any) string

	// ParseFormValue converts a submitted form value into the in-memory
	// representation. Failure policy is kind-specific; no kind panics or
	// returns an error from malformed user input.
	ParseFormValue(raw string) any

	// Serialize encodes a value as JSON for storage.
	Serialize(v any) ([]byte, error)

	// Deserialize decodes stored JSON back into the in-memory
	// representation. Undecodable input indicates storage drift and is an
	// error.
	Deserialize(data []byte) (any, error)

	// DeriveArtifacts returns secondary files generated from the value,
	// keyed by remote path relative to the schema base path. Most kinds
	// return nothing.
	DeriveArtifacts(ctx context.Context, v any) (map[string][]byte, error)
}

// Registry maps kind identifiers to their FieldType implementation.
type Registry struct {
	kinds map[string]FieldType
}

// NewRegistry builds a registry from the given types. Registering the same
// kind twice keeps the last one.
func NewRegistry(types ...FieldType) *Registry {
	r := &Registry{kinds: make(map[string]FieldType, len(types))}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a field type.
func (r *Registry) Register(t FieldType) {
	r.kinds[t.Kind()] = t
}

// Lookup returns the type registered under kind.
func (r *Registry) Lookup(kind string) (FieldType, error) {
	t, ok := r.kinds[kind]
	if !ok {
		return nil, errors.UnknownFieldType(kind)
	}
	return t, nil
}

// ValidateSchema checks that every field definition references a registered
// kind, on top of the schema's own structural invariants.
func (r *Registry) ValidateSchema(s *schema.Schema) error {
	if err := s.Validate(); err != nil {
		return errors.ValidationFailed("schema", err.Error())
	}
	for _, f := range s.Fields {
		if _, err := r.Lookup(f.Kind); err != nil {
			return err
		}
	}
	return nil
}

// BuiltinOptions configures the kinds that need collaborators.
type BuiltinOptions struct {
	// Fetcher retrieves image bytes for thumbnail derivation. nil disables
	// derivation (image_url fields then publish without thumbnails).
	Fetcher ContentFetcher

	// ThumbnailBox is the bounding box (pixels, square) thumbnails are
	// scaled to fit. Zero means the default of 180.
	ThumbnailBox int
}

// Builtin returns a registry holding every built-in kind: text, html,
// markdown, checkbox, select, date and image_url.
func Builtin(opts BuiltinOptions) *Registry {
	box := opts.ThumbnailBox
	if box <= 0 {
		box = 180
	}
	return NewRegistry(
		Text{},
		HTML{},
		Markdown{},
		Checkbox{},
		Select{},
		Date{},
		ImageURL{Fetcher: opts.Fetcher, Box: box},
	)
}

// wrapInput applies the uniform kind-marker wrapper around a rendered
// control.
func wrapInput(kind, fieldName, control string) string {
	return fmt.Sprintf(`<div class="admin-field" data-field-kind="%s" data-field-name="%s">%s</div>`,
		html.EscapeString(kind), html.EscapeString(fieldName), control)
}
