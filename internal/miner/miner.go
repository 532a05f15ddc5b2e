package miner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/core"
	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/metrics"
	"github.com/tensorplex-labs/reprompt/internal/promptgen"
	"github.com/tensorplex-labs/reprompt/internal/synapse"
	chainutils "github.com/tensorplex-labs/reprompt/internal/utils/chain_utils"
	"github.com/tensorplex-labs/reprompt/pkg/signature"
)

func NewMiner(
	cfg *config.AppConfig,
	k kami.KamiInterface,
	generator promptgen.GeneratorInterface,
	verifier signature.SignatureVerifier,
	collector *metrics.Collector,
) (*Miner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("prompt generator is nil")
	}

	intervals := config.NewIntervalConfig(cfg.Environment)
	m := &Miner{
		Node:      core.NewNode(k, cfg.Netuid, intervals.BlockInterval),
		cfg:       cfg,
		generator: generator,
	}
	m.server = synapse.NewServer(&cfg.ServerEnvConfig, verifier, synapse.WithMetrics(collector))
	synapse.ServeRoute[synapse.ReversePrompt](m.server, m)
	m.RegisterMetagraphSync(intervals.MetagraphSyncBlocks)
	return m, nil
}

// Server exposes the axon server, mainly for tests.
func (m *Miner) Server() *synapse.Server {
	return m.server
}

// HandleRequest fills Output with a prompt for the referenced image.
func (m *Miner) HandleRequest(ctx context.Context, caller synapse.Caller, req synapse.ReversePrompt) (synapse.ReversePrompt, error) {
	log.Info().Str("hotkey", caller.Hotkey).Str("path_to_image", req.PathToImage).Msg("ReversePrompt received")

	prompt, err := m.generator.GeneratePrompt(ctx, req.PathToImage)
	if err != nil {
		log.Error().Err(err).Str("path_to_image", req.PathToImage).Msg("Prompt generation failed")
		return req, err
	}
	req.Output = prompt

	log.Debug().Int("words", len(strings.Fields(prompt))).Msg("ReversePrompt answered")
	return req, nil
}

// ShouldReject checks registration before looking up the caller's uid.
func (m *Miner) ShouldReject(caller synapse.Caller) (bool, string) {
	if caller.Hotkey == "" {
		log.Warn().Msg("Received a request without a hotkey")
		return true, ReasonMissingHotkey
	}

	mg := m.Metagraph()
	uid, registered := chainutils.UIDForHotkey(&mg, caller.Hotkey)
	if !registered && !m.cfg.AllowNonRegistered {
		log.Trace().Str("hotkey", caller.Hotkey).Msg("Blacklisting un-registered hotkey")
		return true, ReasonUnregistered
	}

	if m.cfg.ForceValidatorPermit && (!registered || !chainutils.HasValidatorPermit(&mg, uid)) {
		log.Warn().Str("hotkey", caller.Hotkey).Msg("Blacklisting a request from non-validator hotkey")
		return true, ReasonNoPermit
	}

	return false, ReasonRecognized
}

// PriorityOf is the caller's total stake, or 0 when it is unknown.
func (m *Miner) PriorityOf(caller synapse.Caller) float64 {
	if caller.Hotkey == "" {
		return 0
	}
	mg := m.Metagraph()
	uid, ok := chainutils.UIDForHotkey(&mg, caller.Hotkey)
	if !ok {
		return 0
	}
	priority := chainutils.TotalStake(&mg, uid)
	log.Trace().Str("hotkey", caller.Hotkey).Float64("priority", priority).Msg("Prioritizing request")
	return priority
}

// ServeAxon announces the axon endpoint on chain.
func (m *Miner) ServeAxon(ctx context.Context) error {
	address := m.cfg.ExternalIP
	if address == "" {
		address = m.cfg.Address
	}
	params := kami.ServeAxonParams{
		Version: AxonVersion,
		IP:      chainutils.AxonIPInt(ctx, address),
		Port:    m.cfg.Port,
		IPType:  4,
		Netuid:  m.Netuid,
	}
	if params.IP == 0 {
		return fmt.Errorf("could not determine an IPv4 address to serve")
	}

	resp, err := m.Kami.ServeAxon(params)
	if err != nil {
		return fmt.Errorf("serve axon: %w", err)
	}
	log.Info().Int("port", params.Port).Str("tx_hash", resp.Data).Msg("Served axon")
	return nil
}

// Run starts chain sync, announces the axon and serves until ctx is done.
func (m *Miner) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("start node: %w", err)
	}
	if err := m.ServeAxon(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to serve axon; continuing with the existing registration")
	}
	return m.server.Start(ctx)
}
