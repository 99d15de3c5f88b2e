package polling

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
)

// MatchdayFetch loads the matchday rounds of one team and competition.
type MatchdayFetch func(ctx context.Context) ([]string, error)

// MatchdayPoller implements the simplified discovery pattern: one
// immediate fetch (which triggers the backend import) plus exactly one
// delayed re-fetch to pick up asynchronously imported data. A fetch
// failure is sticky until the next activation. An empty delayed result
// never clobbers a previously non-empty one.
type MatchdayPoller struct {
	fetch MatchdayFetch
	delay time.Duration

	mu     sync.Mutex
	rounds []string
	err    error
	cancel context.CancelFunc
	timer  *time.Timer
}

// NewMatchdayPoller creates a poller that re-fetches once after delay.
func NewMatchdayPoller(fetch MatchdayFetch, delay time.Duration) *MatchdayPoller {
	return &MatchdayPoller{fetch: fetch, delay: delay}
}

// Activate clears previous state, fetches immediately and schedules the
// one delayed re-fetch. A previous activation is torn down first.
func (p *MatchdayPoller) Activate(ctx context.Context) {
	p.Deactivate()

	runCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.rounds = nil
	p.err = nil
	p.cancel = cancel
	p.timer = time.AfterFunc(p.delay, func() {
		p.refresh(runCtx, false)
	})
	p.mu.Unlock()

	p.refresh(runCtx, true)
}

// Deactivate cancels the pending re-fetch.
func (p *MatchdayPoller) Deactivate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Rounds returns the latest known matchdays and the sticky error of the
// current activation, if any.
func (p *MatchdayPoller) Rounds() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rounds := make([]string, len(p.rounds))
	copy(rounds, p.rounds)
	return rounds, p.err
}

func (p *MatchdayPoller) refresh(ctx context.Context, initial bool) {
	if ctx.Err() != nil {
		return
	}

	rounds, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Warn("Matchday fetch failed", zap.Bool("initial", initial), zap.Error(err))
		p.err = err
		return
	}
	if initial || len(rounds) > 0 {
		p.rounds = rounds
	}
}
