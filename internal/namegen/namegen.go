// Package namegen provides the built-in fallback NameGenerator
// (spec.md §6): a small first/last name pool used when a system
// doesn't wire in something fancier (an LLM-backed generator, a
// compendium-driven one).
package namegen

import (
	"context"
	"math/rand"

	"github.com/wyrdbound/grimoire/internal/ports"
)

var firstNames = []string{
	"Borin", "Thessaly", "Garrick", "Nessa", "Oswin", "Maren", "Alder", "Junia",
	"Tobias", "Ysolde", "Corwin", "Petra", "Hengist", "Sibel", "Wren", "Dunmore",
}

var lastNames = []string{
	"Blackwood", "Ashford", "Thornbury", "Greymoor", "Vane", "Harrow", "Stonefield",
	"Wexley", "Ironhollow", "Marsh", "Quillan", "Redfern", "Underhill", "Crane",
}

// Service is the bundled default NameGenerator.
type Service struct {
	rand *rand.Rand
}

func NewService() *Service {
	return &Service{}
}

// NewSeededService builds a Service with a deterministic source, used
// by tests that need reproducible names.
func NewSeededService(seed int64) *Service {
	return &Service{rand: rand.New(rand.NewSource(seed))}
}

// Generate implements ports.NameGenerator. kind is currently
// informational only; the built-in pool does not vary by kind.
func (s *Service) Generate(ctx context.Context, kind string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return firstNames[s.intn(len(firstNames))] + " " + lastNames[s.intn(len(lastNames))], nil
}

func (s *Service) intn(n int) int {
	if s.rand != nil {
		return s.rand.Intn(n)
	}
	return rand.Intn(n)
}

var _ ports.NameGenerator = (*Service)(nil)
