package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/schema"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSchema() *schema.Schema {
	return &schema.Schema{
		Name:              "reviews",
		BasePath:          "reviews",
		EntryPathTemplate: "{{ slugify .title }}.html",
		EntryTemplate:     "<h1>{{ .title }}</h1>",
		IndexTemplate:     "<ul>{{ range .Entries }}<li>{{ .title }}</li>{{ end }}</ul>",
		Fields: []schema.FieldDefinition{
			{Name: "title", Kind: "text"},
			{Name: "rating", Kind: "select", Options: []string{"1", "2", "3", "4", "5"}},
			{Name: "date", Kind: "date"},
		},
	}
}

func TestCreateAndGetSchema(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc := testSchema()
	require.NoError(t, s.CreateSchema(ctx, sc))
	require.NotZero(t, sc.ID)

	got, err := s.GetSchema(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, "reviews", got.Name)
	assert.Equal(t, "reviews", got.BasePath)
	require.Len(t, got.Fields, 3)
	assert.Equal(t, "title", got.Fields[0].Name)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, got.Fields[1].Options)
	assert.Nil(t, got.Fields[0].Options)

	byName, err := s.GetSchemaByName(ctx, "reviews")
	require.NoError(t, err)
	assert.Equal(t, got.ID, byName.ID)
}

func TestCreateSchemaDuplicateName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSchema(ctx, testSchema()))
	err := s.CreateSchema(ctx, testSchema())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestGetSchemaNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSchema(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryStorage))
}

func TestReplaceFieldValuesReplacesNotMerges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc := testSchema()
	require.NoError(t, s.CreateSchema(ctx, sc))
	rec, err := s.CreateRecord(ctx, sc.ID)
	require.NoError(t, err)

	_, err = s.ReplaceFieldValues(ctx, rec.ID, []schema.FieldValue{
		{FieldName: "title", ValueJSON: []byte(`"Celeste"`)},
		{FieldName: "rating", ValueJSON: []byte(`"5"`)},
	})
	require.NoError(t, err)

	// A second save that omits rating drops it entirely.
	_, err = s.ReplaceFieldValues(ctx, rec.ID, []schema.FieldValue{
		{FieldName: "title", ValueJSON: []byte(`"Celeste"`)},
	})
	require.NoError(t, err)

	values, err := s.GetFieldValues(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "title", values[0].FieldName)
	assert.JSONEq(t, `"Celeste"`, string(values[0].ValueJSON))
}

func TestReplaceFieldValuesBumpsUpdatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc := testSchema()
	require.NoError(t, s.CreateSchema(ctx, sc))
	rec, err := s.CreateRecord(ctx, sc.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	bumped, err := s.ReplaceFieldValues(ctx, rec.ID, nil)
	require.NoError(t, err)
	assert.True(t, bumped.After(rec.UpdatedAt))

	got, err := s.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(rec.UpdatedAt))
}

func TestReplaceFieldValuesUnknownField(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc := testSchema()
	require.NoError(t, s.CreateSchema(ctx, sc))
	rec, err := s.CreateRecord(ctx, sc.ID)
	require.NoError(t, err)

	_, err = s.ReplaceFieldValues(ctx, rec.ID, []schema.FieldValue{
		{FieldName: "nope", ValueJSON: []byte(`"x"`)},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestGetRecordsOrdersByUpdatedAtDesc(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc := testSchema()
	require.NoError(t, s.CreateSchema(ctx, sc))

	first, err := s.CreateRecord(ctx, sc.ID)
	require.NoError(t, err)
	second, err := s.CreateRecord(ctx, sc.ID)
	require.NoError(t, err)

	// Touching the older record moves it to the front.
	time.Sleep(5 * time.Millisecond)
	_, err = s.ReplaceFieldValues(ctx, first.ID, nil)
	require.NoError(t, err)

	recs, err := s.GetRecords(ctx, sc.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, first.ID, recs[0].ID)
	assert.Equal(t, second.ID, recs[1].ID)
}

func TestDeleteRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc := testSchema()
	require.NoError(t, s.CreateSchema(ctx, sc))
	rec, err := s.CreateRecord(ctx, sc.ID)
	require.NoError(t, err)
	_, err = s.ReplaceFieldValues(ctx, rec.ID, []schema.FieldValue{
		{FieldName: "title", ValueJSON: []byte(`"Lunacid"`)},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRecord(ctx, rec.ID))

	_, err = s.GetRecord(ctx, rec.ID)
	require.Error(t, err)

	err = s.DeleteRecord(ctx, rec.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryStorage))
}

func TestSeedGameReviews(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := s.SeedGameReviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, GameReviewsName, sc.Name)
	assert.Equal(t, "reviews", sc.BasePath)

	got, err := s.GetSchemaByName(ctx, GameReviewsName)
	require.NoError(t, err)
	names := make([]string, len(got.Fields))
	for i, f := range got.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{
		"title", "art_url", "developer", "rating", "platform",
		"completion", "method", "date", "emulated", "review",
		"recommendation", "extras",
	}, names)

	_, err = s.SeedGameReviews(ctx)
	require.Error(t, err)
}
