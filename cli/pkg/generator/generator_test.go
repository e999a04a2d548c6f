package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUsesKnownWords(t *testing.T) {
	g := NewGenerator()

	for range 50 {
		name := g.Generate()
		adjective, noun, found := strings.Cut(name, " ")
		if !assert.True(t, found, name) {
			continue
		}
		assert.Contains(t, g.adjectives, adjective)
		assert.True(t, contains(g.places, noun) || contains(g.groups, noun), name)
	}
}

func TestShapes(t *testing.T) {
	g := NewGenerator()

	_, place, _ := strings.Cut(g.AdjectivePlace(), " ")
	assert.Contains(t, g.places, place)

	_, group, _ := strings.Cut(g.AdjectiveGroup(), " ")
	assert.Contains(t, g.groups, group)
}

func contains(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}
