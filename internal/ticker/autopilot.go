package ticker

import (
	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
)

// autoAction is one claimed unit of auto-mode work for a single event:
// either publish an existing draft verbatim, or generate a draft first
// and publish the result.
type autoAction struct {
	eventID  int
	generate bool
	entryID  int
	text     string
}

// claimAutoActionsLocked marks every processable pending event as
// in-flight and returns the work to run. Events already in-flight are
// skipped; the marker is cleared when the action finishes either way.
func (s *Session) claimAutoActionsLocked(pending []models.MatchEvent) []autoAction {
	var actions []autoAction
	for _, ev := range pending {
		if s.inflight[ev.ID] {
			continue
		}

		draft := s.entryForEventLocked(ev.ID)
		switch {
		case draft != nil && draft.Status != models.StatusPublished:
			s.inflight[ev.ID] = true
			actions = append(actions, autoAction{
				eventID: ev.ID,
				entryID: draft.ID,
				text:    draft.Text,
			})
		case draft == nil:
			s.inflight[ev.ID] = true
			actions = append(actions, autoAction{
				eventID:  ev.ID,
				generate: true,
			})
		}
	}
	return actions
}

// runAutoAction executes one claimed action. Failures are logged, the
// in-flight marker is cleared and the event stays pending; the next
// refresh cycle retries implicitly. Distinct events run concurrently.
func (s *Session) runAutoAction(action autoAction) {
	defer s.clearInflight(action.eventID)

	ctx := s.ctx
	if action.generate {
		if _, err := s.src.GenerateDraft(ctx, action.eventID, s.opts.DefaultStyle); err != nil {
			s.logAutoFailure("generate", action.eventID, err)
			return
		}

		entries, err := s.src.FetchTickerTexts(ctx, s.matchID)
		if err != nil {
			s.logAutoFailure("fetch draft", action.eventID, err)
			return
		}
		var draft *models.TickerEntry
		for i := range entries {
			e := &entries[i]
			if e.EventID != nil && *e.EventID == action.eventID && e.Status != models.StatusPublished {
				draft = e
				break
			}
		}
		if draft == nil {
			log.Warn("Generation produced no draft",
				zap.Int("event_id", action.eventID),
			)
			return
		}
		if err := s.src.Publish(ctx, draft.ID, draft.Text); err != nil {
			s.logAutoFailure("publish", action.eventID, err)
			return
		}
	} else {
		if err := s.src.Publish(ctx, action.entryID, action.text); err != nil {
			s.logAutoFailure("publish", action.eventID, err)
			return
		}
	}

	s.reloadEntries(ctx)
}

func (s *Session) clearInflight(eventID int) {
	s.mu.Lock()
	delete(s.inflight, eventID)
	s.mu.Unlock()
}

func (s *Session) logAutoFailure(step string, eventID int, err error) {
	if s.ctx.Err() != nil {
		return
	}
	log.Error("Auto processing failed",
		zap.String("step", step),
		zap.Int("event_id", eventID),
		zap.Int("match_id", s.matchID),
		zap.Error(err),
	)
}
