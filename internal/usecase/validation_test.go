package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampRadius(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"0", 1},
		{"500", 50},
		{"abc", 15},
		{"", 15},
		{"22.6", 23},
		{"22.4", 22},
		{"-3", 1},
		{"10", 10},
		{"NaN", 15},
		{"Inf", 15},
		{" 7 ", 7},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampRadius(tt.raw))
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	v, ok := ParseCoordinate("38.2975")
	assert.True(t, ok)
	assert.Equal(t, 38.2975, v)

	for _, raw := range []string{"", "north", "NaN", "+Inf"} {
		_, ok := ParseCoordinate(raw)
		assert.False(t, ok, raw)
	}
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "Rosé", capitalize("rosé"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Éla", capitalize("éla"))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "rosé", truncateRunes("rosé", 4))
}
