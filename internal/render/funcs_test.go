package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStars(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"5", "★★★★★"},
		{"4.5", "★★★★½"},
		{"0.5", "½"},
		{"0", ""},
		{3, "★★★"},
		{2.5, "★★½"},
		{"7", "★★★★★"}, // clamped
		{"-1", ""},
		{"great", ""},
		{nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stars(tc.in), "stars(%v)", tc.in)
	}
}

func TestShortDate(t *testing.T) {
	d := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024 mar 5", shortDate(d))

	june := time.Date(2023, time.June, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2023 june 12", shortDate(june))

	assert.Equal(t, "", shortDate(nil))
}

func TestDateComponents(t *testing.T) {
	d := time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, monthOf(d))
	assert.Equal(t, 2024, yearOf(d))
	assert.Equal(t, "july", monthName(d))
	assert.Equal(t, "2024-07-05", formatDate(d, "2006-01-02"))

	assert.Equal(t, 0, monthOf(nil))
	assert.Equal(t, 0, yearOf(nil))
	assert.Equal(t, "", monthName(nil))
}

func TestGroupByFirstLetter(t *testing.T) {
	entries := []map[string]any{
		{"title": "Celeste"},
		{"title": "corn kidz 64"},
		{"title": "Lunacid"},
		{"title": "428 Shibuya Scramble"},
		{"title": "'Splosion Man"},
	}

	groups := groupByFirstLetter(entries, "title")
	require.Len(t, groups, 4)

	assert.Equal(t, "#", groups[0].Letter)
	require.Len(t, groups[0].Entries, 1)
	assert.Equal(t, "428 Shibuya Scramble", groups[0].Entries[0]["title"])

	assert.Equal(t, "C", groups[1].Letter)
	require.Len(t, groups[1].Entries, 2)
	assert.Equal(t, "Celeste", groups[1].Entries[0]["title"])

	assert.Equal(t, "L", groups[2].Letter)

	assert.Equal(t, "S", groups[3].Letter)
	require.Len(t, groups[3].Entries, 1)
	assert.Equal(t, "'Splosion Man", groups[3].Entries[0]["title"])
}

func TestGroupByFirstLetterSkipsLeadingPunctuation(t *testing.T) {
	groups := groupByFirstLetter([]map[string]any{{"title": "'Splosion Man"}}, "title")
	require.Len(t, groups, 1)
	assert.Equal(t, "S", groups[0].Letter)
}

func TestSortByAndReverse(t *testing.T) {
	a := map[string]any{"title": "Alpha", "date": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	b := map[string]any{"title": "Beta", "date": time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := map[string]any{"title": "Gamma", "date": nil}

	byTitle := sortBy([]map[string]any{c, a, b}, "title")
	assert.Equal(t, "Alpha", byTitle[0]["title"])
	assert.Equal(t, "Gamma", byTitle[2]["title"])

	byDate := sortBy([]map[string]any{a, b, c}, "date")
	assert.Equal(t, "Gamma", byDate[0]["title"], "nil dates sort first")
	assert.Equal(t, "Alpha", byDate[2]["title"])

	rev := reverse(byTitle)
	assert.Equal(t, "Gamma", rev[0]["title"])
	assert.Equal(t, "Alpha", rev[2]["title"])

	// Inputs are never mutated.
	assert.Equal(t, "Gamma", byDate[0]["title"])
}

func TestHelpersAvailableInTemplates(t *testing.T) {
	r := New()
	out, err := r.Render("entry", `{{ slugify .title }} {{ thumbnailPath .cover }}`, map[string]any{
		"title": "Corn Kidz 64",
		"cover": "https://host/img/corn.png",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "corn-kidz-64 thumbnails/corn-")
}

func TestGroupByFirstLetterWorksFromGoTemplate(t *testing.T) {
	r := New()
	out, err := r.Render("index",
		`{{ range groupByFirstLetter .Entries "title" }}[{{ .Letter }}:{{ range .Entries }}{{ .title }},{{ end }}]{{ end }}`,
		IndexData{Entries: []map[string]any{{"title": "Celeste"}, {"title": "Lunacid"}}})
	require.NoError(t, err)
	assert.Equal(t, "[C:Celeste,][L:Lunacid,]", out)
}
