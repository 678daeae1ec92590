package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Chrono Trigger", "chrono-trigger"},
		{"AI: The Somnium Files", "ai-the-somnium-files"},
		{"Dragon's Crown Pro", "dragon-s-crown-pro"},
		{"Pokémon", "pokemon"},
		{"  spaced   out  ", "spaced-out"},
		{"---", ""},
		{"", ""},
		{"Corn Kidz 64", "corn-kidz-64"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Make(tc.in), "input %q", tc.in)
	}
}

func TestMakeIsIdempotent(t *testing.T) {
	in := "Atelier Rorona ~The Alchemist of Arland~ DX"
	once := Make(in)
	assert.Equal(t, once, Make(once))
}
