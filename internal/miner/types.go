// Package miner answers ReversePrompt challenges with generated prompts.
package miner

import (
	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/core"
	"github.com/tensorplex-labs/reprompt/internal/promptgen"
	"github.com/tensorplex-labs/reprompt/internal/synapse"
)

const (
	ReasonMissingHotkey = "Missing dendrite or hotkey"
	ReasonUnregistered  = "Unrecognized hotkey"
	ReasonNoPermit      = "Non-validator hotkey"
	ReasonRecognized    = "Hotkey recognized!"

	AxonVersion = 1
)

type Miner struct {
	*core.Node
	cfg       *config.AppConfig
	generator promptgen.GeneratorInterface
	server    *synapse.Server
}

var _ synapse.Handler[synapse.ReversePrompt] = (*Miner)(nil)
