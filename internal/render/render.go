// Package render evaluates the three user-authored template strings of a
// schema (entry path, entry body, collection index) against decoded field
// values, and assembles those values from stored records. Rendering is pure:
// the helper set is frozen at construction and templates see only the data
// they are handed. Any template failure (syntax error, missing variable) is
// fatal to the enclosing operation; there is no partial rendering.
package render

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"text/template"

	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/fields"
	"git.home.luguber.info/inful/mouseadmin/internal/schema"
)

// Reserved variable keys injected by the assembler. A schema field with one
// of these names is a validation error.
const (
	KeyRemotePath = "remote_path"
	KeyUpdatedAt  = "updated_at"
)

// Renderer evaluates template strings with the fixed helper-function set.
type Renderer struct {
	funcs template.FuncMap
}

// New constructs a Renderer. The helper set is frozen here.
func New() *Renderer {
	return &Renderer{funcs: helperFuncs()}
}

// Render evaluates one template string against data. name only labels
// errors.
func (r *Renderer) Render(name, tmplText string, data any) (string, error) {
	tpl, err := template.New(name).Funcs(r.funcs).Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return "", errors.TemplateFailed(name, fmt.Errorf("parse: %w", err))
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", errors.TemplateFailed(name, fmt.Errorf("execute: %w", err))
	}
	return buf.String(), nil
}

// EntryPath renders the schema's entry-path template against vars and joins
// the result onto the schema base path. The returned path is POSIX style
// without a leading slash.
func (r *Renderer) EntryPath(s *schema.Schema, vars map[string]any) (string, error) {
	rel, err := r.Render("entry_path", s.EntryPathTemplate, vars)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", errors.TemplateFailed("entry_path", fmt.Errorf("rendered an empty path"))
	}
	return joinRemote(s.BasePath, rel), nil
}

// Entry renders the schema's entry body template against vars.
func (r *Renderer) Entry(s *schema.Schema, vars map[string]any) (string, error) {
	return r.Render("entry", s.EntryTemplate, vars)
}

// IndexData is the variable mapping the index template receives.
type IndexData struct {
	// Schema is the collection name.
	Schema string
	// Entries holds every record's assembled variables, most recently
	// updated first.
	Entries []map[string]any
}

// Index renders the schema's index template against the ordered entry list.
func (r *Renderer) Index(s *schema.Schema, entries []map[string]any) (string, error) {
	return r.Render("index", s.IndexTemplate, IndexData{Schema: s.Name, Entries: entries})
}

// IndexPath returns the remote path of the schema's index page.
func IndexPath(s *schema.Schema) string {
	return joinRemote(s.BasePath, "index.html")
}

// AssembleEntry decodes a record's stored values through the registry into a
// flat variable mapping, renders the computed remote path, and injects it
// under the reserved key so all three templates see one consistent value.
// Fields with no stored value decode to nil.
func (r *Renderer) AssembleEntry(reg *fields.Registry, s *schema.Schema, rec schema.Record, values []schema.FieldValue) (map[string]any, error) {
	byName := make(map[string][]byte, len(values))
	for _, v := range values {
		byName[v.FieldName] = v.ValueJSON
	}

	vars := make(map[string]any, len(s.Fields)+2)
	for _, def := range s.Fields {
		if def.Name == KeyRemotePath || def.Name == KeyUpdatedAt {
			return nil, errors.ValidationFailed(def.Name, "field name is reserved")
		}

		ft, err := reg.Lookup(def.Kind)
		if err != nil {
			return nil, err
		}

		raw, ok := byName[def.Name]
		if !ok || raw == nil {
			vars[def.Name] = nil
			continue
		}

		decoded, err := ft.Deserialize(raw)
		if err != nil {
			return nil, errors.StoredValueCorrupt(def.Name, err)
		}
		vars[def.Name] = decoded
	}

	vars[KeyUpdatedAt] = rec.UpdatedAt

	remotePath, err := r.EntryPath(s, vars)
	if err != nil {
		return nil, err
	}
	vars[KeyRemotePath] = remotePath

	return vars, nil
}

// joinRemote joins remote path segments POSIX style, without a leading slash.
func joinRemote(base, rel string) string {
	joined := path.Join(strings.Trim(base, "/"), strings.Trim(rel, "/"))
	return strings.TrimPrefix(joined, "/")
}
