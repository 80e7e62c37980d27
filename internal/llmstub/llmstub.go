// Package llmstub provides a deterministic ports.LLMService used for
// tests and offline runs. Real provider integration is explicitly out
// of scope for the engine (spec.md §1): systems that need live
// generation supply their own adapter at the same interface.
package llmstub

import (
	"context"
	"fmt"

	"github.com/wyrdbound/grimoire/internal/ports"
)

// Service returns a fixed, prompt-derived response so llm_generation
// steps have something deterministic to exercise in tests.
type Service struct {
	// Responses maps a prompt verbatim to a canned response. When a
	// prompt isn't present, Generate falls back to an echo response.
	Responses map[string]string
}

func NewService() *Service {
	return &Service{Responses: map[string]string{}}
}

func (s *Service) Generate(ctx context.Context, req ports.LLMRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if resp, ok := s.Responses[req.Prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("[stub response to: %s]", req.Prompt), nil
}
