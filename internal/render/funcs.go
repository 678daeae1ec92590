package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"

	"git.home.luguber.info/inful/mouseadmin/internal/fields"
	"git.home.luguber.info/inful/mouseadmin/internal/slug"
)

// monthNames is the site's abbreviated month spelling, used by shortDate and
// monthName. Note "june"/"july" against the otherwise three-letter forms;
// existing pages depend on these exact strings.
var monthNames = []string{
	"jan", "feb", "mar", "apr", "may", "june",
	"july", "aug", "sep", "oct", "nov", "dec",
}

// helperFuncs builds the fixed helper set exposed to every template. The map
// is constructed once per Renderer and never mutated afterwards.
func helperFuncs() template.FuncMap {
	return template.FuncMap{
		"slugify":            slug.Make,
		"stars":              stars,
		"shortDate":          shortDate,
		"formatDate":         formatDate,
		"monthOf":            monthOf,
		"yearOf":             yearOf,
		"monthName":          monthName,
		"groupByFirstLetter": groupByFirstLetter,
		"thumbnailPath":      fields.ThumbnailPath,
		"sortBy":             sortBy,
		"reverse":            reverse,
	}
}

// stars renders a numeric rating (string or number, halves allowed) as star
// markup, e.g. 4.5 -> "★★★★½". Unparsable ratings render as an empty string.
func stars(v any) string {
	var rating float64
	switch n := v.(type) {
	case float64:
		rating = n
	case int:
		rating = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return ""
		}
		rating = parsed
	default:
		return ""
	}

	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}

	full := int(rating)
	half := rating-float64(full) >= 0.5

	var b strings.Builder
	for i := 0; i < full; i++ {
		b.WriteRune('★')
	}
	if half {
		b.WriteRune('½')
	}
	return b.String()
}

// asTime accepts the date kind's decoded representation: a time.Time, or nil
// for the null date.
func asTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// shortDate formats a date the way the site spells them: "2024 mar 5".
func shortDate(v any) string {
	t, ok := asTime(v)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Year(), monthNames[t.Month()-1], t.Day())
}

// formatDate formats a date with a Go reference layout.
func formatDate(v any, layout string) string {
	t, ok := asTime(v)
	if !ok {
		return ""
	}
	return t.Format(layout)
}

func monthOf(v any) int {
	t, ok := asTime(v)
	if !ok {
		return 0
	}
	return int(t.Month())
}

func yearOf(v any) int {
	t, ok := asTime(v)
	if !ok {
		return 0
	}
	return t.Year()
}

func monthName(v any) string {
	t, ok := asTime(v)
	if !ok {
		return ""
	}
	return monthNames[t.Month()-1]
}

// LetterGroup is one bucket produced by groupByFirstLetter.
type LetterGroup struct {
	Letter  string
	Entries []map[string]any
}

// groupByFirstLetter buckets entries by the first alphanumeric character of
// the named key, uppercased. Digits group under "#". Groups come back sorted
// with "#" first; entry order within a group is preserved.
func groupByFirstLetter(entries []map[string]any, key string) []LetterGroup {
	buckets := make(map[string][]map[string]any)
	for _, e := range entries {
		title, _ := e[key].(string)
		buckets[firstLetter(title)] = append(buckets[firstLetter(title)], e)
	}

	letters := make([]string, 0, len(buckets))
	for l := range buckets {
		letters = append(letters, l)
	}
	sort.Strings(letters) // "#" sorts before "A"

	groups := make([]LetterGroup, 0, len(letters))
	for _, l := range letters {
		groups = append(groups, LetterGroup{Letter: l, Entries: buckets[l]})
	}
	return groups
}

func firstLetter(title string) string {
	for _, r := range title {
		switch {
		case unicode.IsLetter(r):
			return strings.ToUpper(string(r))
		case unicode.IsDigit(r):
			return "#"
		}
	}
	return "#"
}

// sortBy returns a copy of entries sorted ascending by the string form of the
// named key. The sort is stable, so equal keys keep their input order.
func sortBy(entries []map[string]any, key string) []map[string]any {
	out := make([]map[string]any, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return sortValue(out[i][key]) < sortValue(out[j][key])
	})
	return out
}

func sortValue(v any) string {
	if t, ok := asTime(v); ok {
		return t.Format(time.RFC3339)
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// reverse returns a reversed copy of entries.
func reverse(entries []map[string]any) []map[string]any {
	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
