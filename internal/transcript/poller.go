// Package transcript keeps a local view of the chat transcript approximately
// fresh without the server pushing updates.
package transcript

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ava-companion/ava/internal/api"
	"github.com/ava-companion/ava/pkg/logger"
	"github.com/ava-companion/ava/pkg/metrics"
)

// Source is a restartable, cancelable periodic-read view of the transcript.
// It exists so polling can be swapped for a push-based stream later without
// touching callers.
type Source interface {
	// Start begins refreshing until ctx is canceled or Stop is called.
	Start(ctx context.Context)
	// Stop cancels the refresh loop and waits for it to exit. Idempotent;
	// the source may be started again afterwards.
	Stop()
	// Snapshot returns the cached transcript in server order.
	Snapshot() []api.Message
	// Invalidate forces a refetch ahead of the regular schedule.
	Invalidate()
	// Updates signals after each completed refresh. Notifications are
	// coalesced; consumers re-read Snapshot.
	Updates() <-chan struct{}
	// Err returns the most recent refresh error, nil after a success.
	Err() error
}

// Fetcher is the read operation a Source refreshes from. *api.Client
// satisfies it.
type Fetcher interface {
	ChatHistory(ctx context.Context) ([]api.Message, error)
}

// Poller implements Source by fetching the full transcript on a fixed
// interval. Every poll is a full-snapshot replacement, so an overlapping
// poll and post-send refetch resolve idempotently: last response wins.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *logger.Logger

	mu       sync.Mutex
	messages []api.Message
	lastErr  error
	cancel   context.CancelFunc
	done     chan struct{}

	updates chan struct{}
	kick    chan struct{}
}

// NewPoller creates a poller refreshing from fetcher every interval.
func NewPoller(fetcher Fetcher, interval time.Duration, log *logger.Logger) *Poller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   log,
		updates:  make(chan struct{}, 1),
		kick:     make(chan struct{}, 1),
	}
}

// Start begins the poll loop. The first refresh happens immediately.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.loop(ctx, done)
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		case <-p.kick:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	messages, err := p.fetcher.ChatHistory(ctx)

	p.mu.Lock()
	if err != nil {
		p.lastErr = err
	} else {
		p.messages = messages
		p.lastErr = nil
	}
	p.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			p.logger.Debug("transcript refresh failed", zap.Error(err))
			metrics.RecordPoll("error")
		}
		return
	}
	metrics.RecordPoll("ok")

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Stop cancels the loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Snapshot returns the cached transcript in server order. The client never
// re-sorts or mutates messages in place.
func (p *Poller) Snapshot() []api.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Invalidate requests an immediate refetch, typically after a successful
// send so the next read reflects both the sent message and the reply.
// Coalesced when a kick is already pending.
func (p *Poller) Invalidate() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Updates returns the refresh notification channel.
func (p *Poller) Updates() <-chan struct{} {
	return p.updates
}

// Err returns the most recent refresh error, nil after a success.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
