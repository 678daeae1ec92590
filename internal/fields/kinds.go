package fields

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"git.home.luguber.info/inful/mouseadmin/internal/schema"
)

// ISODate is the storage and form layout for date values.
const ISODate = "2006-01-02"

// Text is a single-line trimmed string.
type Text struct{}

func (Text) Kind() string { return "text" }

func (Text) RenderInput(def schema.FieldDefinition, current any) string {
	v, _ := current.(string)
	control := fmt.Sprintf(`<input type="text" name="%s" value="%s">`,
		html.EscapeString(def.Name), html.EscapeString(v))
	return wrapInput("text", def.Name, control)
}

func (Text) ParseFormValue(raw string) any { return strings.TrimSpace(raw) }

func (Text) Serialize(v any) ([]byte, error) { return serializeString("text", v) }

func (Text) Deserialize(data []byte) (any, error) { return deserializeString("text", data) }

func (Text) DeriveArtifacts(context.Context, any) (map[string][]byte, error) { return nil, nil }

// HTML is a multi-line raw HTML body, stored verbatim apart from trimming.
type HTML struct{}

func (HTML) Kind() string { return "html" }

func (HTML) RenderInput(def schema.FieldDefinition, current any) string {
	v, _ := current.(string)
	control := fmt.Sprintf(`<textarea name="%s" rows="12">%s</textarea>`,
		html.EscapeString(def.Name), html.EscapeString(v))
	return wrapInput("html", def.Name, control)
}

func (HTML) ParseFormValue(raw string) any { return strings.TrimSpace(raw) }

func (HTML) Serialize(v any) ([]byte, error) { return serializeString("html", v) }

func (HTML) Deserialize(data []byte) (any, error) { return deserializeString("html", data) }

func (HTML) DeriveArtifacts(context.Context, any) (map[string][]byte, error) { return nil, nil }

// Checkbox maps the browser's "on" convention onto a stored boolean.
type Checkbox struct{}

func (Checkbox) Kind() string { return "checkbox" }

func (Checkbox) RenderInput(def schema.FieldDefinition, current any) string {
	checked := ""
	if v, _ := current.(bool); v {
		checked = " checked"
	}
	control := fmt.Sprintf(`<input type="checkbox" name="%s"%s>`,
		html.EscapeString(def.Name), checked)
	return wrapInput("checkbox", def.Name, control)
}

// ParseFormValue returns true only for the literal form value "on"; anything
// else, including the empty string an unchecked box submits as, is false.
func (Checkbox) ParseFormValue(raw string) any { return raw == "on" }

func (Checkbox) Serialize(v any) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("checkbox: expected bool, got %T", v)
	}
	return json.Marshal(b)
}

func (Checkbox) Deserialize(data []byte) (any, error) {
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("checkbox: %w", err)
	}
	return b, nil
}

func (Checkbox) DeriveArtifacts(context.Context, any) (map[string][]byte, error) { return nil, nil }

// Select is a closed choice among the field definition's declared options.
// Values outside the option set are not rejected on submit; the options only
// drive the rendered control.
type Select struct{}

func (Select) Kind() string { return "select" }

func (Select) RenderInput(def schema.FieldDefinition, current any) string {
	v, _ := current.(string)
	var b strings.Builder
	fmt.Fprintf(&b, `<select name="%s">`, html.EscapeString(def.Name))
	for _, opt := range def.Options {
		selected := ""
		if opt == v {
			selected = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`,
			html.EscapeString(opt), selected, html.EscapeString(opt))
	}
	b.WriteString(`</select>`)
	return wrapInput("select", def.Name, b.String())
}

func (Select) ParseFormValue(raw string) any { return raw }

func (Select) Serialize(v any) ([]byte, error) { return serializeString("select", v) }

func (Select) Deserialize(data []byte) (any, error) { return deserializeString("select", data) }

func (Select) DeriveArtifacts(context.Context, any) (map[string][]byte, error) { return nil, nil }

// Date stores an ISO date or null. The in-memory representation is a
// time.Time, or nil for the null value.
type Date struct{}

func (Date) Kind() string { return "date" }

func (Date) RenderInput(def schema.FieldDefinition, current any) string {
	v := ""
	if t, ok := current.(time.Time); ok {
		v = t.Format(ISODate)
	}
	control := fmt.Sprintf(`<input type="date" name="%s" value="%s">`,
		html.EscapeString(def.Name), html.EscapeString(v))
	return wrapInput("date", def.Name, control)
}

// ParseFormValue parses a strict YYYY-MM-DD date. Anything unparsable yields
// nil rather than an error; a blank date field is normal on submit.
func (Date) ParseFormValue(raw string) any {
	t, err := time.Parse(ISODate, strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return t
}

func (Date) Serialize(v any) ([]byte, error) {
	if v == nil {
		return json.Marshal(nil)
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("date: expected time.Time or nil, got %T", v)
	}
	return json.Marshal(t.Format(ISODate))
}

func (Date) Deserialize(data []byte) (any, error) {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse(ISODate, *raw)
	if err != nil {
		return nil, fmt.Errorf("date: stored value %q is not ISO: %w", *raw, err)
	}
	return t, nil
}

func (Date) DeriveArtifacts(context.Context, any) (map[string][]byte, error) { return nil, nil }

func serializeString(kind string, v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s: expected string, got %T", kind, v)
	}
	return json.Marshal(s)
}

func deserializeString(kind string, data []byte) (any, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return s, nil
}
