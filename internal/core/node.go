package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/scheduler"
)

func NewNode(k kami.KamiInterface, netuid int, blockTime time.Duration) *Node {
	if blockTime <= 0 {
		blockTime = BlockTime
	}
	return &Node{
		Kami:      k,
		Netuid:    netuid,
		BlockTime: blockTime,
	}
}

func (c *Node) RegisterCallback(callback scheduler.CallbackHandler) {
	c.mu.Lock()
	c.callbacks = append(c.callbacks, callback)
	c.mu.Unlock()
	log.Debug().Str("callback", callback.GetName()).Msg("Registered callback")
}

// RegisterMetagraphSync refreshes the metagraph every interval blocks.
func (c *Node) RegisterMetagraphSync(interval int) {
	if interval <= 0 {
		interval = IntervalMetagraphSync
	}
	c.RegisterCallback(scheduler.NewBlockCallback("metagraph_sync", interval, c.MetagraphSync))
}

func (c *Node) Block() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.block
}

// Metagraph returns a snapshot of the last synced metagraph. Slices are
// shared with the node; callers must not modify them.
func (c *Node) Metagraph() kami.SubnetMetagraph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metagraph
}

func (c *Node) SetMetagraph(mg kami.SubnetMetagraph) {
	c.mu.Lock()
	c.metagraph = mg
	c.mu.Unlock()
}

func (c *Node) SyncBlock() error {
	resp, err := c.Kami.GetLatestBlock()
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}
	c.mu.Lock()
	prev := c.block
	c.block = resp.Data.BlockNumber
	c.mu.Unlock()

	log.Debug().
		Int("previous_block", prev).
		Int("current_block", resp.Data.BlockNumber).
		Msg("Updated latest block")
	return nil
}

func (c *Node) MetagraphSync() error {
	resp, err := c.Kami.GetMetagraph(c.Netuid)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update metagraph")
		return fmt.Errorf("get metagraph: %w", err)
	}
	c.SetMetagraph(resp.Data)
	log.Info().Int("netuid", c.Netuid).Int("uids", len(resp.Data.Hotkeys)).Msg("Updated metagraph")
	return nil
}

// Start syncs block and metagraph once, then keeps them fresh in the
// background until ctx is done.
func (c *Node) Start(ctx context.Context) error {
	if err := c.SyncBlock(); err != nil {
		return err
	}
	if err := c.MetagraphSync(); err != nil {
		return err
	}
	c.onBlockUpdate()
	go c.BlockUpdater(ctx)
	log.Info().Int("block", c.Block()).Msg("Node started")
	return nil
}

func (c *Node) BlockUpdater(ctx context.Context) {
	ticker := time.NewTicker(c.BlockTime)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Block updater stopped")
			return
		case <-ticker.C:
			if err := c.SyncBlock(); err != nil {
				log.Error().Err(err).Msg("Failed to update latest block")
				continue
			}
			c.onBlockUpdate()
		}
	}
}

func (c *Node) onBlockUpdate() {
	block := c.Block()
	c.mu.RLock()
	callbacks := append([]scheduler.CallbackHandler(nil), c.callbacks...)
	c.mu.RUnlock()

	for _, callback := range callbacks {
		if !callback.ShouldTrigger(block) {
			continue
		}
		log.Debug().Str("callback", callback.GetName()).Int("block", block).Msg("Executing callback")

		if err := callback.Execute(); err != nil {
			log.Error().
				Err(err).
				Str("callback", callback.GetName()).
				Msg("Failed to execute callback")
			continue
		}
		callback.MarkTriggered(block)
	}
}
