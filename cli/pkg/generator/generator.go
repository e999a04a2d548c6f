package generator

import (
	"crypto/rand"
	"math/big"
)

// Generator suggests names for new rooms, like "Cozy Lounge" or
// "Night Owls".
type Generator struct {
	adjectives []string
	places     []string
	groups     []string
}

func NewGenerator() *Generator {
	return &Generator{
		adjectives: []string{
			"Cozy", "Quiet", "Sunny", "Late", "Early", "Friendly",
			"Curious", "Lazy", "Busy", "Bright", "Midnight", "Weekend",
			"Open", "Secret", "Daily", "Random", "Golden", "Rainy",
		},
		places: []string{
			"Lounge", "Corner", "Garden", "Kitchen", "Porch", "Library",
			"Studio", "Harbor", "Workshop", "Cafe", "Terrace", "Attic",
		},
		groups: []string{
			"Owls", "Builders", "Readers", "Gamers", "Makers", "Thinkers",
			"Foxes", "Travelers", "Listeners", "Tinkerers", "Dreamers",
		},
	}
}

// Generate picks one of the name shapes at random.
func (g *Generator) Generate() string {
	if g.secureRandom(2) == 0 {
		return g.AdjectivePlace()
	}
	return g.AdjectiveGroup()
}

// AdjectivePlace generates names like "Cozy Lounge"
func (g *Generator) AdjectivePlace() string {
	return g.pick(g.adjectives) + " " + g.pick(g.places)
}

// AdjectiveGroup generates names like "Midnight Owls"
func (g *Generator) AdjectiveGroup() string {
	return g.pick(g.adjectives) + " " + g.pick(g.groups)
}

func (g *Generator) pick(words []string) string {
	return words[g.secureRandom(len(words))]
}

func (g *Generator) secureRandom(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
