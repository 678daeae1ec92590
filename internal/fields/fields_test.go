package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/schema"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return Builtin(BuiltinOptions{})
}

func TestLookupUnknownKind(t *testing.T) {
	r := testRegistry(t)
	_, err := r.Lookup("geo_point")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Contains(t, err.Error(), "unknown field type")
}

func TestValidateSchema(t *testing.T) {
	r := testRegistry(t)

	ok := &schema.Schema{
		Name: "Game reviews",
		Fields: []schema.FieldDefinition{
			{Name: "title", Kind: "text"},
			{Name: "rating", Kind: "select", Options: []string{"1", "2", "3", "4", "5"}},
		},
	}
	require.NoError(t, r.ValidateSchema(ok))

	badKind := &schema.Schema{
		Name:   "Game reviews",
		Fields: []schema.FieldDefinition{{Name: "title", Kind: "richtext"}},
	}
	require.Error(t, r.ValidateSchema(badKind))

	dupField := &schema.Schema{
		Name: "Game reviews",
		Fields: []schema.FieldDefinition{
			{Name: "title", Kind: "text"},
			{Name: "title", Kind: "html"},
		},
	}
	require.Error(t, r.ValidateSchema(dupField))
}

// TestRoundTrip verifies Deserialize(Serialize(v)) == v for every value each
// kind's ParseFormValue can produce.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		kind string
		raw  string
	}{
		{"text", "Celeste"},
		{"text", "  trimmed  "},
		{"html", "<p>so good</p>"},
		{"markdown", "# Celeste\n\nA *good* game."},
		{"checkbox", "on"},
		{"checkbox", ""},
		{"select", "5"},
		{"date", "2024-03-05"},
		{"date", "not-a-date"},
		{"image_url", "https://host/img/celeste.png"},
	}

	r := testRegistry(t)
	for _, tc := range cases {
		t.Run(tc.kind+"/"+tc.raw, func(t *testing.T) {
			ft, err := r.Lookup(tc.kind)
			require.NoError(t, err)

			v := ft.ParseFormValue(tc.raw)
			data, err := ft.Serialize(v)
			require.NoError(t, err)

			back, err := ft.Deserialize(data)
			require.NoError(t, err)
			assert.Equal(t, v, back)
		})
	}
}

func TestDateParseFormValue(t *testing.T) {
	d := Date{}

	v := d.ParseFormValue("2024-03-05")
	require.IsType(t, time.Time{}, v)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), v)

	assert.Nil(t, d.ParseFormValue("not-a-date"))
	assert.Nil(t, d.ParseFormValue(""))
	assert.Nil(t, d.ParseFormValue("2024-3-5"))
}

func TestDateNullStorage(t *testing.T) {
	d := Date{}

	data, err := d.Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	back, err := d.Deserialize(data)
	require.NoError(t, err)
	assert.Nil(t, back)
}

func TestDateDeserializeRejectsDrift(t *testing.T) {
	d := Date{}

	// A short-format date from before the migration is storage drift.
	_, err := d.Deserialize([]byte(`"2024 mar 5"`))
	require.Error(t, err)

	_, err = d.Deserialize([]byte(`{`))
	require.Error(t, err)
}

func TestCheckboxParseFormValue(t *testing.T) {
	c := Checkbox{}
	assert.Equal(t, true, c.ParseFormValue("on"))
	assert.Equal(t, false, c.ParseFormValue(""))
	assert.Equal(t, false, c.ParseFormValue("true"))
	assert.Equal(t, false, c.ParseFormValue("off"))
}

func TestSelectKeepsUndeclaredValues(t *testing.T) {
	// Option validation on submit is deliberately absent; values outside
	// the declared set are stored as-is.
	s := Select{}
	v := s.ParseFormValue("6")
	data, err := s.Serialize(v)
	require.NoError(t, err)
	back, err := s.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, "6", back)
}

func TestRenderInputWrapsWithKindMarker(t *testing.T) {
	r := testRegistry(t)
	def := schema.FieldDefinition{Name: "rating", Kind: "select", Options: []string{"1", "2"}}

	ft, err := r.Lookup("select")
	require.NoError(t, err)
	markup := ft.RenderInput(def, "2")

	assert.Contains(t, markup, `data-field-kind="select"`)
	assert.Contains(t, markup, `data-field-name="rating"`)
	assert.Contains(t, markup, `<option value="2" selected>`)
	assert.Contains(t, markup, `<option value="1">`)
}

func TestRenderInputEscapesValues(t *testing.T) {
	ft := Text{}
	def := schema.FieldDefinition{Name: "title", Kind: "text"}
	markup := ft.RenderInput(def, `<script>"x"</script>`)
	assert.NotContains(t, markup, "<script>")
}

func TestMarkdownRendersHTML(t *testing.T) {
	m := Markdown{}
	v := m.ParseFormValue("# Celeste\n\nA *good* game.")
	mv, ok := v.(MarkdownValue)
	require.True(t, ok)
	assert.Equal(t, "# Celeste\n\nA *good* game.", mv.Raw)
	assert.Contains(t, mv.HTML, "<h1>Celeste</h1>")
	assert.Contains(t, mv.HTML, "<em>good</em>")
}
