package production

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/comalice/uimachines/internal/core"
)

// ChannelPublisher forwards transition records to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	mu      sync.Mutex
	ch      chan<- core.TransitionRecord
	closed  bool
	dropped int
}

var _ core.EventPublisher = (*ChannelPublisher)(nil)

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- core.TransitionRecord) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, rec core.TransitionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.ch <- rec:
	default:
		p.dropped++
	}
	return nil
}

// Dropped reports how many records were discarded on a full channel.
func (p *ChannelPublisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close closes the output channel. Later publishes are ignored.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// LogPublisher writes every transition record to a logger at info level.
type LogPublisher struct {
	Log *log.Logger
}

func (p LogPublisher) Publish(_ context.Context, rec core.TransitionRecord) error {
	kv := []any{"machine", rec.MachineID, "event", rec.Event, "from", rec.From, "to", rec.To, "took", rec.Duration}
	if rec.Err != "" {
		p.Log.Warn("transition", append(kv, "error", rec.Err)...)
		return nil
	}
	p.Log.Info("transition", kv...)
	return nil
}
