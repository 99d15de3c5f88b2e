// Package polling keeps the data loaders of one active match fresh and
// guarantees that nothing fires once the match is switched away.
package polling

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
)

// Loader fetches and applies one named slice of match data. Failures
// are isolated per loader; a loader error never stops its siblings.
type Loader struct {
	Name string
	Load func(ctx context.Context) error
}

// Config sets the refresh cadence of a Session.
type Config struct {
	// FastInterval is the repeating refresh period of the fast loaders
	// (events, ticker texts, live stats).
	FastInterval time.Duration

	// SlowRefreshDelays are one-shot delays after activation at which
	// the slow loaders (lineups, stats, prematch) are refreshed again
	// to pick up late-arriving data.
	SlowRefreshDelays []time.Duration
}

// Session drives the refresh cycle of one active match. All loaders
// run once on activation; afterwards the fast loaders repeat on a fixed
// interval and the slow loaders refresh at the configured one-shot
// delays. Deactivate cancels every pending timer synchronously; no
// loader is invoked after it returns.
type Session struct {
	cfg  Config
	fast []Loader
	slow []Loader

	mu      sync.Mutex
	active  bool
	stopped bool
	cancel  context.CancelFunc
	timers  []*time.Timer
}

// NewSession creates a session over the given loader sets.
func NewSession(cfg Config, fast, slow []Loader) *Session {
	return &Session{cfg: cfg, fast: fast, slow: slow}
}

// Activate runs every loader once concurrently and schedules the
// refresh timers. Activating an already active or an already
// deactivated session is a no-op; sessions are single-use.
func (s *Session) Activate() {
	s.mu.Lock()
	if s.active || s.stopped {
		s.mu.Unlock()
		return
	}
	s.active = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, delay := range s.cfg.SlowRefreshDelays {
		timer := time.AfterFunc(delay, func() {
			s.runAll(ctx, s.slow)
		})
		s.timers = append(s.timers, timer)
	}
	s.mu.Unlock()

	s.runAll(ctx, append(append([]Loader{}, s.fast...), s.slow...))

	go s.fastLoop(ctx)
}

// Deactivate stops the repeating refresh and cancels all pending
// one-shot timers. In-flight loader calls see their context canceled;
// no new loader invocation starts after Deactivate returns, and a
// later Activate stays inert.
func (s *Session) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if !s.active {
		return
	}
	s.active = false
	s.cancel()
	for _, timer := range s.timers {
		timer.Stop()
	}
	s.timers = nil
}

// Active reports whether the session is currently refreshing.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) fastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx, s.fast)
		}
	}
}

// runAll invokes the loaders concurrently and waits for completion.
// A canceled context suppresses the whole batch; individual failures
// are logged and do not affect sibling loaders.
func (s *Session) runAll(ctx context.Context, loaders []Loader) {
	if ctx.Err() != nil {
		return
	}

	var wg sync.WaitGroup
	for _, loader := range loaders {
		wg.Add(1)
		go func(l Loader) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := l.Load(ctx); err != nil && ctx.Err() == nil {
				log.Warn("Loader failed",
					zap.String("loader", l.Name),
					zap.Error(err),
				)
			}
		}(loader)
	}
	wg.Wait()
}
