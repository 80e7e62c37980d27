// Package dice provides GRIMOIRE's default DiceService: a regex-based
// "NdM[+-]K" notation parser, the same family of dice expression the
// dice_roll and dice_sequence steps (spec.md §4.5.1) are specified
// against.
package dice

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/wyrdbound/grimoire/internal/ports"
)

var notationRegexp = regexp.MustCompile(`^\s*(\d+)d(\d+)\s*([+-]\s*\d+)?\s*$`)

// Service is the bundled reference DiceService. One built by
// NewService is stateless and safe for concurrent use; one built by
// NewSeededService shares a single *rand.Rand and is not.
type Service struct {
	// rand is overridable in tests for deterministic rolls.
	rand *rand.Rand
}

// NewService constructs a Service seeded from the process-global
// source (math/rand's default source is safe for concurrent use).
func NewService() *Service {
	return &Service{}
}

// NewSeededService builds a Service with a deterministic source, used
// by tests that need reproducible rolls.
func NewSeededService(seed int64) *Service {
	return &Service{rand: rand.New(rand.NewSource(seed))}
}

// Roll implements ports.DiceService.
func (s *Service) Roll(ctx context.Context, expression string) (ports.DiceRoll, error) {
	if err := ctx.Err(); err != nil {
		return ports.DiceRoll{}, err
	}

	matches := notationRegexp.FindStringSubmatch(expression)
	if matches == nil {
		return ports.DiceRoll{}, fmt.Errorf("dice: invalid expression %q, want NdM[+-]K", expression)
	}

	count, err := strconv.Atoi(matches[1])
	if err != nil || count < 1 {
		return ports.DiceRoll{}, fmt.Errorf("dice: invalid die count in %q", expression)
	}
	sides, err := strconv.Atoi(matches[2])
	if err != nil || sides < 1 {
		return ports.DiceRoll{}, fmt.Errorf("dice: invalid die sides in %q", expression)
	}

	modifier := 0
	if raw := strings.ReplaceAll(matches[3], " ", ""); raw != "" {
		modifier, err = strconv.Atoi(raw)
		if err != nil {
			return ports.DiceRoll{}, fmt.Errorf("dice: invalid modifier in %q", expression)
		}
	}

	rolls := make([]int, count)
	total := 0
	for i := 0; i < count; i++ {
		r := s.intn(sides) + 1
		rolls[i] = r
		total += r
	}
	total += modifier

	return ports.DiceRoll{
		Expression: expression,
		Total:      total,
		Rolls:      rolls,
		Modifier:   modifier,
	}, nil
}

func (s *Service) intn(n int) int {
	if s.rand != nil {
		return s.rand.Intn(n)
	}
	return rand.Intn(n)
}
