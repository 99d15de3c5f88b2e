// Package ticker orchestrates one live-match commentary session: it
// keeps the match data fresh, recomputes the merged display feed on
// every change, and drives the mode-dependent publishing logic.
package ticker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/feed"
	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
	"github.com/JonasKimmer/liveticker-eintracht/internal/polling"
)

// Options configures a session.
type Options struct {
	// Poll sets the refresh cadence.
	Poll polling.Config

	// DefaultStyle is the commentary style auto mode generates with.
	DefaultStyle string

	// OnUpdate, if set, is called after every recomputation of the
	// feed, outside the session lock.
	OnUpdate func(Update)
}

// Update is a snapshot pushed to observers after each recomputation.
type Update struct {
	MatchID int                 `json:"match_id"`
	Mode    models.Mode         `json:"mode"`
	Pending int                 `json:"pending"`
	Feed    []feed.DisplayEntry `json:"feed"`
}

// Status describes the session for the operator surface.
type Status struct {
	MatchID int           `json:"match_id"`
	Mode    models.Mode   `json:"mode"`
	Pending int           `json:"pending"`
	Match   *models.Match `json:"match,omitempty"`
}

// PendingEvent is a match event awaiting commentary, together with its
// current draft (any status) if one exists.
type PendingEvent struct {
	Event   models.MatchEvent   `json:"event"`
	Draft   *models.TickerEntry `json:"draft,omitempty"`
	Meta    models.EventMeta    `json:"meta"`
	RawText string              `json:"raw_text"`
}

// Session owns all mutable state of one active match: the polled data
// slices (keyed by loader so completions never overwrite each other),
// the mode, the co-op selection and the auto-processing in-flight set.
// Everything is discarded wholesale on Close; results of calls issued
// before Close are never applied afterwards.
type Session struct {
	matchID int
	src     DataSource
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc
	poll   *polling.Session

	mu          sync.Mutex
	closed      bool
	mode        models.Mode
	match       *models.Match
	events      []models.MatchEvent
	entries     []models.TickerEntry
	prematch    []models.PrematchItem
	liveStats   []models.LiveStatItem
	lineups     []models.Lineup
	matchStats  []models.MatchStat
	playerStats []models.PlayerStat
	selected    int // co-op selection, 0 = none
	inflight    map[int]bool
	lastFeed    []feed.DisplayEntry

	// Auto processing waits until both events and entries have loaded
	// once; deciding on half-loaded data would regenerate drafts that
	// already exist.
	eventsLoaded  bool
	entriesLoaded bool
}

// NewSession creates a session for one match. The session starts in
// auto mode and does nothing until Start is called.
func NewSession(matchID int, src DataSource, opts Options) *Session {
	if opts.DefaultStyle == "" {
		opts.DefaultStyle = models.Styles[0]
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		matchID:  matchID,
		src:      src,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		mode:     models.ModeAuto,
		inflight: make(map[int]bool),
	}

	fast := []polling.Loader{
		{Name: "events", Load: s.loadEvents},
		{Name: "ticker_texts", Load: s.loadEntries},
		{Name: "live_stats", Load: s.loadLiveStats},
	}
	slow := []polling.Loader{
		{Name: "match", Load: s.loadMatch},
		{Name: "prematch", Load: s.loadPrematch},
		{Name: "lineups", Load: s.loadLineups},
		{Name: "match_stats", Load: s.loadMatchStats},
		{Name: "player_stats", Load: s.loadPlayerStats},
	}
	s.poll = polling.NewSession(opts.Poll, fast, slow)

	return s
}

// MatchID returns the match this session is ticking.
func (s *Session) MatchID() int { return s.matchID }

// Start activates the polling cycle. Starting a session that was
// already closed is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	log.Info("Ticker session starting", zap.Int("match_id", s.matchID))
	s.poll.Activate()
}

// Close tears the session down: timers are canceled synchronously and
// no result of an already issued call is applied afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.poll.Deactivate()
	log.Info("Ticker session closed", zap.Int("match_id", s.matchID))
}

// Feed returns the latest merged display feed.
func (s *Session) Feed() []feed.DisplayEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]feed.DisplayEntry, len(s.lastFeed))
	copy(out, s.lastFeed)
	return out
}

// Status returns the current session status. The match status comes
// back normalized (live/finished/scheduled), never as the backend's
// raw phase code.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var match *models.Match
	if s.match != nil {
		m := *s.match
		m.Status = models.NormalizeStatus(m.Status)
		match = &m
	}
	return Status{
		MatchID: s.matchID,
		Mode:    s.mode,
		Pending: len(s.pendingLocked()),
		Match:   match,
	}
}

// Pending lists the events still waiting for published commentary,
// newest first, each with its current draft if one exists.
func (s *Session) Pending() []PendingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingLocked()
	out := make([]PendingEvent, 0, len(pending))
	for _, ev := range pending {
		out = append(out, PendingEvent{
			Event:   ev,
			Draft:   s.entryForEventLocked(ev.ID),
			Meta:    models.MetaForEvent(ev.Type, ev.Detail),
			RawText: models.RawEventText(&ev),
		})
	}
	return out
}

// StatsSnapshot bundles the slow-cadence panel data: lineups,
// aggregate match statistics and per-player statistics.
type StatsSnapshot struct {
	Lineups     []models.Lineup     `json:"lineups"`
	MatchStats  []models.MatchStat  `json:"match_stats"`
	PlayerStats []models.PlayerStat `json:"player_stats"`
}

// Stats returns the latest lineups and statistics.
func (s *Session) Stats() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := StatsSnapshot{
		Lineups:     make([]models.Lineup, len(s.lineups)),
		MatchStats:  make([]models.MatchStat, len(s.matchStats)),
		PlayerStats: make([]models.PlayerStat, len(s.playerStats)),
	}
	copy(out.Lineups, s.lineups)
	copy(out.MatchStats, s.matchStats)
	copy(out.PlayerStats, s.playerStats)
	return out
}

// CurrentMinute returns the match minute for command formatting, 0
// when the match clock is unknown.
func (s *Session) CurrentMinute() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		return 0
	}
	return s.match.Minute
}

// ── loaders ─────────────────────────────────────────────────────────

func (s *Session) loadMatch(ctx context.Context) error {
	match, err := s.src.FetchMatch(ctx, s.matchID)
	if err != nil {
		return err
	}
	s.apply(func() { s.match = match })
	return nil
}

func (s *Session) loadEvents(ctx context.Context) error {
	events, err := s.src.FetchEvents(ctx, s.matchID)
	if err != nil {
		return err
	}
	// Backend delivers insertion order; the session keeps newest first.
	reversed := make([]models.MatchEvent, len(events))
	for i, ev := range events {
		reversed[len(events)-1-i] = ev
	}
	s.apply(func() {
		s.events = reversed
		s.eventsLoaded = true
	})
	return nil
}

func (s *Session) loadEntries(ctx context.Context) error {
	entries, err := s.src.FetchTickerTexts(ctx, s.matchID)
	if err != nil {
		return err
	}
	s.apply(func() {
		s.entries = entries
		s.entriesLoaded = true
	})
	return nil
}

func (s *Session) loadPrematch(ctx context.Context) error {
	items, err := s.src.FetchPrematch(ctx, s.matchID)
	if err != nil {
		return err
	}
	s.apply(func() { s.prematch = items })
	return nil
}

func (s *Session) loadLiveStats(ctx context.Context) error {
	items, err := s.src.FetchLiveStats(ctx, s.matchID)
	if err != nil {
		return err
	}
	s.apply(func() { s.liveStats = items })
	return nil
}

func (s *Session) loadLineups(ctx context.Context) error {
	lineups, err := s.src.FetchLineups(ctx, s.matchID)
	if err != nil {
		return err
	}
	s.apply(func() { s.lineups = lineups })
	return nil
}

func (s *Session) loadMatchStats(ctx context.Context) error {
	stats, err := s.src.FetchMatchStats(ctx, s.matchID)
	if err != nil {
		return err
	}
	s.apply(func() { s.matchStats = stats })
	return nil
}

func (s *Session) loadPlayerStats(ctx context.Context) error {
	stats, err := s.src.FetchPlayerStats(ctx, s.matchID)
	if err != nil {
		return err
	}
	s.apply(func() { s.playerStats = stats })
	return nil
}

// ── state application ───────────────────────────────────────────────

// apply mutates session state under the lock and recomputes the feed.
// Mutations after Close are dropped: a stale loader completion from a
// superseded match never reaches the new session's state.
func (s *Session) apply(mutate func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	mutate()
	update, actions := s.recomputeLocked()
	s.mu.Unlock()

	s.dispatch(update, actions)
}

// recomputeLocked re-merges the feed and, in auto mode, claims the
// pending events that need processing. Claims happen under the lock so
// a second recomputation before the first action completes can never
// double-trigger the same event.
func (s *Session) recomputeLocked() (Update, []autoAction) {
	s.lastFeed = feed.Merge(s.prematch, s.liveStats, s.entries, s.events)
	pending := s.pendingLocked()

	update := Update{
		MatchID: s.matchID,
		Mode:    s.mode,
		Pending: len(pending),
		Feed:    s.lastFeed,
	}

	var actions []autoAction
	if s.mode == models.ModeAuto && s.eventsLoaded && s.entriesLoaded {
		actions = s.claimAutoActionsLocked(pending)
	}
	return update, actions
}

func (s *Session) dispatch(update Update, actions []autoAction) {
	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(update)
	}
	for _, action := range actions {
		go s.runAutoAction(action)
	}
}

// reloadEntries refetches the commentary list after a mutation and
// applies it, which in turn recomputes the feed.
func (s *Session) reloadEntries(ctx context.Context) {
	entries, err := s.src.FetchTickerTexts(ctx, s.matchID)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("Reloading ticker texts failed",
				zap.Int("match_id", s.matchID),
				zap.Error(err),
			)
		}
		return
	}
	s.apply(func() { s.entries = entries })
}

// ── lookups (lock held) ─────────────────────────────────────────────

// pendingLocked returns the events that have no published (or legacy
// unset-status) entry yet, recomputed from current data every time.
func (s *Session) pendingLocked() []models.MatchEvent {
	var pending []models.MatchEvent
	for _, ev := range s.events {
		if s.publishedEntryForLocked(ev.ID) == nil {
			pending = append(pending, ev)
		}
	}
	return pending
}

func (s *Session) publishedEntryForLocked(eventID int) *models.TickerEntry {
	for i := range s.entries {
		e := &s.entries[i]
		if e.EventID != nil && *e.EventID == eventID && e.IsPublished() {
			return e
		}
	}
	return nil
}

// entryForEventLocked returns the event's entry regardless of status.
func (s *Session) entryForEventLocked(eventID int) *models.TickerEntry {
	for i := range s.entries {
		e := &s.entries[i]
		if e.EventID != nil && *e.EventID == eventID {
			return e
		}
	}
	return nil
}
