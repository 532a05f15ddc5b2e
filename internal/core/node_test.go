package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/scheduler"
)

type fakeKami struct {
	kami.KamiInterface
	block         atomic.Int64
	metagraphHits atomic.Int32
	failMetagraph bool
}

func (f *fakeKami) GetLatestBlock() (kami.LatestBlockResponse, error) {
	return kami.LatestBlockResponse{Success: true, Data: kami.LatestBlock{BlockNumber: int(f.block.Add(1))}}, nil
}

func (f *fakeKami) GetMetagraph(netuid int) (kami.SubnetMetagraphResponse, error) {
	f.metagraphHits.Add(1)
	if f.failMetagraph {
		return kami.SubnetMetagraphResponse{}, errors.New("unavailable")
	}
	return kami.SubnetMetagraphResponse{Data: kami.SubnetMetagraph{Netuid: netuid, Hotkeys: []string{"a", "b"}}}, nil
}

func TestNode_StartSyncsState(t *testing.T) {
	fk := &fakeKami{}
	n := NewNode(fk, 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, n.Start(ctx))

	assert.Equal(t, 1, n.Block())
	mg := n.Metagraph()
	assert.Equal(t, 3, mg.Netuid)
	assert.Equal(t, []string{"a", "b"}, mg.Hotkeys)
}

func TestNode_StartFailsWithoutMetagraph(t *testing.T) {
	n := NewNode(&fakeKami{failMetagraph: true}, 1, time.Hour)
	assert.Error(t, n.Start(context.Background()))
}

func TestNode_CallbacksFollowBlocks(t *testing.T) {
	fk := &fakeKami{}
	n := NewNode(fk, 1, time.Millisecond)
	n.RegisterMetagraphSync(2)

	var runs atomic.Int32
	n.RegisterCallback(scheduler.NewBlockCallback("counter", 1, func() error {
		runs.Add(1)
		return nil
	}))

	for i := 0; i < 4; i++ {
		require.NoError(t, n.SyncBlock())
		n.onBlockUpdate()
	}

	assert.Equal(t, int32(4), runs.Load())
	// blocks 1 and 3
	assert.Equal(t, int32(2), fk.metagraphHits.Load())
}

func TestNode_BlockUpdaterStopsOnCancel(t *testing.T) {
	n := NewNode(&fakeKami{}, 1, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.BlockUpdater(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return n.Block() > 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("block updater did not stop")
	}
}
