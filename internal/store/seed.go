package store

import (
	"context"

	"git.home.luguber.info/inful/mouseadmin/internal/schema"
)

// Names the seeded game-review schema. Exported so CLI commands can look the
// schema up without hardcoding the string twice.
const GameReviewsName = "Game reviews"

const seedEntryPathTemplate = `{{ slugify .title }}.html`

const seedEntryTemplate = `<div id="game-house"
  data-title="{{ .title }}"
  data-art-url="{{ .art_url }}"
  data-developer="{{ .developer }}"
  data-rating="{{ .rating }}"
  data-platform="{{ .platform }}"
  data-completion="{{ .completion }}"
  data-method="{{ .method }}"
  data-date="{{ if .date }}{{ formatDate .date "2006-01-02" }}{{ end }}"
  data-emulated="{{ if .emulated }}on{{ end }}">
  <h1>{{ .title }}</h1>
  <img src="{{ .art_url }}" alt="{{ .title }} cover art">
  <p class="rating">{{ stars .rating }}</p>
  <dl>
    <dt>Developer</dt><dd>{{ .developer }}</dd>
    <dt>Platform</dt><dd>{{ .platform }}{{ if .emulated }} (emulated){{ end }}</dd>
    <dt>Completion</dt><dd>{{ .completion }}</dd>
    <dt>Method</dt><dd>{{ .method }}</dd>
    <dt>Finished</dt><dd>{{ if .date }}{{ shortDate .date }}{{ end }}</dd>
  </dl>
</div>
<div id="game-review-content">{{ .review }}</div>
<div id="game-rec-answer">{{ .recommendation }}</div>
<div id="extras">{{ .extras }}</div>
`

const seedIndexTemplate = `<h1>{{ .Schema }}</h1>
<ul class="reviews">
{{ range .Entries }}  <li><a href="/{{ .remote_path }}">{{ .title }}</a> {{ stars .rating }}</li>
{{ end }}</ul>
`

// SeedGameReviews creates the stock game-review schema with the original field
// set. Fails with a duplicate-schema error when it already exists.
func (s *Store) SeedGameReviews(ctx context.Context) (*schema.Schema, error) {
	sc := &schema.Schema{
		Name:              GameReviewsName,
		BasePath:          "reviews",
		EntryTemplate:     seedEntryTemplate,
		EntryPathTemplate: seedEntryPathTemplate,
		IndexTemplate:     seedIndexTemplate,
		Fields: []schema.FieldDefinition{
			{Name: "title", Kind: "text"},
			{Name: "art_url", Kind: "image_url"},
			{Name: "developer", Kind: "text"},
			{Name: "rating", Kind: "select", Options: []string{"0.5", "1", "1.5", "2", "2.5", "3", "3.5", "4", "4.5", "5"}},
			{Name: "platform", Kind: "text"},
			{Name: "completion", Kind: "text"},
			{Name: "method", Kind: "text"},
			{Name: "date", Kind: "date"},
			{Name: "emulated", Kind: "checkbox"},
			{Name: "review", Kind: "html"},
			{Name: "recommendation", Kind: "html"},
			{Name: "extras", Kind: "html"},
		},
	}
	if err := s.CreateSchema(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}
