package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField(t *testing.T) {
	s := &Schema{
		Name: "reviews",
		Fields: []FieldDefinition{
			{Name: "title", Kind: "text"},
			{Name: "rating", Kind: "select"},
		},
	}

	f, err := s.Field("rating")
	require.NoError(t, err)
	assert.Equal(t, "select", f.Kind)

	_, err = s.Field("nope")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := &Schema{Name: "reviews", Fields: []FieldDefinition{{Name: "title", Kind: "text"}}}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&Schema{}).Validate(), "empty name")

	dup := &Schema{Name: "reviews", Fields: []FieldDefinition{
		{Name: "title", Kind: "text"},
		{Name: "title", Kind: "html"},
	}}
	assert.Error(t, dup.Validate())

	unnamed := &Schema{Name: "reviews", Fields: []FieldDefinition{{Kind: "text"}}}
	assert.Error(t, unnamed.Validate())
}
