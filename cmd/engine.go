package cmd

import (
	"github.com/wyrdbound/grimoire/internal/dice"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/executor"
	"github.com/wyrdbound/grimoire/internal/llmstub"
	"github.com/wyrdbound/grimoire/internal/logging"
	"github.com/wyrdbound/grimoire/internal/namegen"
)

// defaultEngine builds the bundled reference Engine: the regex dice
// roller, the fallback name pool, and the deterministic LLM stub. A
// system that needs a live LLM provider wires its own ports.LLMService
// into executor.NewEngine rather than going through this helper.
func defaultEngine() *engine.Engine {
	return executor.NewEngine(executor.Services{
		Dice:  dice.NewService(),
		LLM:   llmstub.NewService(),
		Names: namegen.NewService(),
	})
}

func defaultLogger() *logging.ZerologLogger {
	return logging.New(logging.Options{Level: logLevel, HumanReadable: true})
}
