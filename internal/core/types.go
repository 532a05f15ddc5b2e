package core

import (
	"sync"
	"time"

	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/scheduler"
)

const (
	IntervalMetagraphSync int           = 10
	BlockTime             time.Duration = 12 * time.Second
)

// Node tracks the chain state shared by the miner and validator.
type Node struct {
	Kami      kami.KamiInterface
	Netuid    int
	BlockTime time.Duration

	mu        sync.RWMutex
	block     int
	metagraph kami.SubnetMetagraph
	callbacks []scheduler.CallbackHandler
}
