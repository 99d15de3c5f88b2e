package ticker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
)

// Mode returns the session's current operating mode.
func (s *Session) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the operating mode. This is the only mutation path
// for the mode; there are no automatic transitions. Switching into
// auto immediately processes the current pending set.
func (s *Session) SetMode(mode models.Mode) error {
	if !mode.Valid() {
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mode = mode
	update, actions := s.recomputeLocked()
	s.mu.Unlock()

	log.Info("Mode changed",
		zap.Int("match_id", s.matchID),
		zap.String("mode", string(mode)),
	)
	s.dispatch(update, actions)
	return nil
}

// Select sets the co-op selection to the given pending event.
func (s *Session) Select(eventID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, ev := range s.pendingLocked() {
		if ev.ID == eventID {
			s.selected = eventID
			return nil
		}
	}
	return ErrNotPending
}

// ActiveDraft returns the draft currently surfaced to the operator:
// the draft of the co-op selection, falling back to the first pending
// event; nil when nothing qualifies.
func (s *Session) ActiveDraft() *models.TickerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, draft := s.activeDraftLocked()
	return draft
}

func (s *Session) activeDraftLocked() (*models.MatchEvent, *models.TickerEntry) {
	pending := s.pendingLocked()
	var selected *models.MatchEvent
	for i := range pending {
		if pending[i].ID == s.selected {
			selected = &pending[i]
			break
		}
	}
	if selected == nil && len(pending) > 0 {
		selected = &pending[0]
	}
	if selected == nil {
		return nil, nil
	}
	return selected, s.entryForEventLocked(selected.ID)
}

// AcceptActive publishes the active draft verbatim. Only valid in
// co-op mode; the keyboard shortcut maps here.
func (s *Session) AcceptActive(ctx context.Context) error {
	draft, err := s.takeActiveDraft()
	if err != nil {
		return err
	}
	if err := s.src.Publish(ctx, draft.ID, draft.Text); err != nil {
		return fmt.Errorf("failed to publish draft %d: %w", draft.ID, err)
	}
	s.clearSelection()
	s.reloadEntries(ctx)
	return nil
}

// RejectActive marks the active draft rejected. The event stays
// otherwise unresolved; a new draft can be generated later.
func (s *Session) RejectActive(ctx context.Context) error {
	draft, err := s.takeActiveDraft()
	if err != nil {
		return err
	}
	patch := models.EntryPatch{Status: models.StatusRejected}
	if err := s.src.UpdateStatus(ctx, draft.ID, patch); err != nil {
		return fmt.Errorf("failed to reject draft %d: %w", draft.ID, err)
	}
	s.clearSelection()
	s.reloadEntries(ctx)
	return nil
}

func (s *Session) takeActiveDraft() (*models.TickerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.mode != models.ModeCoop {
		return nil, ErrNotCoop
	}
	_, draft := s.activeDraftLocked()
	if draft == nil {
		return nil, ErrNoActiveDraft
	}
	// Copy so the caller holds no reference into session state.
	copied := *draft
	return &copied, nil
}

func (s *Session) clearSelection() {
	s.mu.Lock()
	s.selected = 0
	s.mu.Unlock()
}

// Generate requests an AI draft for a pending event in the given
// style (co-op on-demand generation).
func (s *Session) Generate(ctx context.Context, eventID int, style string) (*models.TickerEntry, error) {
	if !models.ValidStyle(style) {
		return nil, &ValidationError{Field: "style", Reason: fmt.Sprintf("unknown style %q", style)}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.mu.Unlock()

	entry, err := s.src.GenerateDraft(ctx, eventID, style)
	if err != nil {
		return nil, fmt.Errorf("failed to generate draft for event %d: %w", eventID, err)
	}
	s.reloadEntries(ctx)
	return entry, nil
}

// PublishEdited publishes operator-edited text for an existing draft
// (the co-op edit path). The edited text is published, not the
// original draft text.
func (s *Session) PublishEdited(ctx context.Context, entryID int, text string) error {
	if text == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if err := s.src.Publish(ctx, entryID, text); err != nil {
		return fmt.Errorf("failed to publish entry %d: %w", entryID, err)
	}
	s.clearSelection()
	s.reloadEntries(ctx)
	return nil
}

// PublishManual publishes a free-text entry. The minute must be within
// the match clock range; validation happens before any network call.
// The text is always sent literally, command formatting is the
// caller's (the editor preview's) concern.
func (s *Session) PublishManual(ctx context.Context, text, icon string, minute int) (*models.TickerEntry, error) {
	if text == "" {
		return nil, &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if minute < 1 || minute > 120 {
		return nil, &ValidationError{Field: "minute", Reason: "must be between 1 and 120"}
	}
	if icon == "" {
		icon = "📝"
	}

	entry, err := s.src.CreateManualEntry(ctx, s.matchID, text, icon, minute)
	if err != nil {
		return nil, fmt.Errorf("failed to create manual entry: %w", err)
	}
	s.reloadEntries(ctx)
	return entry, nil
}
