package fields

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/mouseadmin/internal/schema"
)

// MarkdownValue is the decoded value of a markdown field: the raw source as
// authored plus its rendered HTML. Only Raw is stored; HTML is recomputed on
// decode so renderer upgrades apply to existing records.
type MarkdownValue struct {
	Raw  string
	HTML string
}

// Markdown is a multi-line markdown body rendered to HTML for templates.
type Markdown struct{}

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(ghtml.WithUnsafe()),
)

func (Markdown) Kind() string { return "markdown" }

func (Markdown) RenderInput(def schema.FieldDefinition, current any) string {
	raw := ""
	if v, ok := current.(MarkdownValue); ok {
		raw = v.Raw
	}
	control := fmt.Sprintf(`<textarea name="%s" rows="12">%s</textarea>`,
		html.EscapeString(def.Name), html.EscapeString(raw))
	return wrapInput("markdown", def.Name, control)
}

func (m Markdown) ParseFormValue(raw string) any {
	return m.render(strings.TrimSpace(raw))
}

func (Markdown) Serialize(v any) ([]byte, error) {
	mv, ok := v.(MarkdownValue)
	if !ok {
		return nil, fmt.Errorf("markdown: expected MarkdownValue, got %T", v)
	}
	return json.Marshal(mv.Raw)
}

func (m Markdown) Deserialize(data []byte) (any, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}
	return m.render(raw), nil
}

func (Markdown) DeriveArtifacts(context.Context, any) (map[string][]byte, error) { return nil, nil }

func (Markdown) render(raw string) MarkdownValue {
	var out strings.Builder
	if err := markdownRenderer.Convert([]byte(raw), &out); err != nil {
		// Conversion only fails on writer errors, which a Builder
		// cannot produce; fall back to the raw text regardless.
		return MarkdownValue{Raw: raw, HTML: raw}
	}
	return MarkdownValue{Raw: raw, HTML: strings.TrimSpace(out.String())}
}
