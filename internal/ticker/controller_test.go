package ticker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
)

func newCoopSession(t *testing.T, src *fakeSource) *Session {
	t.Helper()
	s := newIdleSession(src, testOptions())
	if err := s.SetMode(models.ModeCoop); err != nil {
		t.Fatal(err)
	}
	s.refresh(t)
	return s
}

func TestAcceptActivePublishesDraftVerbatim(t *testing.T) {
	src := newFakeSource()
	evID := 1
	src.events = []models.MatchEvent{{ID: evID, MatchID: 1, Minute: 30, Type: models.EventGoal}}
	src.entries = []models.TickerEntry{{ID: 50, MatchID: 1, EventID: &evID, Text: "Was für ein Tor!", Status: models.StatusDraft}}

	s := newCoopSession(t, src)
	defer s.Close()

	if err := s.AcceptActive(context.Background()); err != nil {
		t.Fatalf("AcceptActive failed: %v", err)
	}

	entries, _ := src.FetchTickerTexts(context.Background(), 1)
	if entries[0].Status != models.StatusPublished {
		t.Errorf("Expected published status, got %q", entries[0].Status)
	}
	if entries[0].Text != "Was für ein Tor!" {
		t.Errorf("Draft text must be published verbatim, got %q", entries[0].Text)
	}
}

func TestRejectActiveMarksRejected(t *testing.T) {
	src := newFakeSource()
	evID := 1
	src.events = []models.MatchEvent{{ID: evID, MatchID: 1, Minute: 30, Type: models.EventGoal}}
	src.entries = []models.TickerEntry{{ID: 50, MatchID: 1, EventID: &evID, Text: "Meh.", Status: models.StatusDraft}}

	s := newCoopSession(t, src)
	defer s.Close()

	if err := s.RejectActive(context.Background()); err != nil {
		t.Fatalf("RejectActive failed: %v", err)
	}

	entries, _ := src.FetchTickerTexts(context.Background(), 1)
	if entries[0].Status != models.StatusRejected {
		t.Errorf("Expected rejected status, got %q", entries[0].Status)
	}

	// The event stays pending; a fresh draft can still be generated.
	if len(s.Pending()) != 1 {
		t.Errorf("Expected event to remain pending, got %d", len(s.Pending()))
	}
}

func TestDraftActionsRequireCoopMode(t *testing.T) {
	src := newFakeSource()
	s := newIdleSession(src, testOptions())
	defer s.Close()

	if err := s.SetMode(models.ModeManual); err != nil {
		t.Fatal(err)
	}
	if err := s.AcceptActive(context.Background()); !errors.Is(err, ErrNotCoop) {
		t.Errorf("Expected ErrNotCoop, got %v", err)
	}
	if err := s.RejectActive(context.Background()); !errors.Is(err, ErrNotCoop) {
		t.Errorf("Expected ErrNotCoop, got %v", err)
	}
}

func TestAcceptWithoutDraft(t *testing.T) {
	src := newFakeSource()
	src.events = []models.MatchEvent{{ID: 1, MatchID: 1, Minute: 30, Type: models.EventGoal}}

	s := newCoopSession(t, src)
	defer s.Close()

	if err := s.AcceptActive(context.Background()); !errors.Is(err, ErrNoActiveDraft) {
		t.Errorf("Expected ErrNoActiveDraft, got %v", err)
	}
}

func TestSelectUnknownEvent(t *testing.T) {
	src := newFakeSource()
	s := newCoopSession(t, src)
	defer s.Close()

	if err := s.Select(99); !errors.Is(err, ErrNotPending) {
		t.Errorf("Expected ErrNotPending, got %v", err)
	}
}

func TestSelectPicksActiveDraft(t *testing.T) {
	src := newFakeSource()
	ev1, ev2 := 1, 2
	src.events = []models.MatchEvent{
		{ID: ev1, MatchID: 1, Minute: 10, Type: models.EventGoal},
		{ID: ev2, MatchID: 1, Minute: 20, Type: models.EventCard},
	}
	src.entries = []models.TickerEntry{
		{ID: 50, MatchID: 1, EventID: &ev1, Text: "erstes", Status: models.StatusDraft},
		{ID: 51, MatchID: 1, EventID: &ev2, Text: "zweites", Status: models.StatusDraft},
	}

	s := newCoopSession(t, src)
	defer s.Close()

	if err := s.Select(ev1); err != nil {
		t.Fatal(err)
	}
	if draft := s.ActiveDraft(); draft == nil || draft.Text != "erstes" {
		t.Errorf("Expected selected event's draft, got %+v", draft)
	}
}

func TestGenerateValidatesStyle(t *testing.T) {
	src := newFakeSource()
	src.events = []models.MatchEvent{{ID: 1, MatchID: 1, Minute: 10, Type: models.EventGoal}}

	s := newCoopSession(t, src)
	defer s.Close()

	if _, err := s.Generate(context.Background(), 1, "sarkastisch"); !IsValidation(err) {
		t.Errorf("Expected validation error for unknown style, got %v", err)
	}

	entry, err := s.Generate(context.Background(), 1, "euphorisch")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if entry.Style != "euphorisch" || entry.Status != models.StatusDraft {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestPublishEditedUsesEditedText(t *testing.T) {
	src := newFakeSource()
	evID := 1
	src.events = []models.MatchEvent{{ID: evID, MatchID: 1, Minute: 30, Type: models.EventGoal}}
	src.entries = []models.TickerEntry{{ID: 50, MatchID: 1, EventID: &evID, Text: "original", Status: models.StatusDraft}}

	s := newCoopSession(t, src)
	defer s.Close()

	if err := s.PublishEdited(context.Background(), 50, "überarbeiteter Text"); err != nil {
		t.Fatalf("PublishEdited failed: %v", err)
	}

	entries, _ := src.FetchTickerTexts(context.Background(), 1)
	if entries[0].Text != "überarbeiteter Text" {
		t.Errorf("Expected edited text to be published, got %q", entries[0].Text)
	}
	if entries[0].Status != models.StatusPublished {
		t.Errorf("Expected published status, got %q", entries[0].Status)
	}
}

func TestPublishManualValidatesMinute(t *testing.T) {
	src := newFakeSource()
	s := newIdleSession(src, testOptions())
	defer s.Close()

	for _, minute := range []int{0, -3, 121} {
		if _, err := s.PublishManual(context.Background(), "Ecke", "⚡", minute); !IsValidation(err) {
			t.Errorf("Minute %d: expected validation error, got %v", minute, err)
		}
	}
	if src.manualCalls != 0 {
		t.Errorf("Validation must happen before any network call, got %d calls", src.manualCalls)
	}

	entry, err := s.PublishManual(context.Background(), "Ecke für FCB", "⚡", 55)
	if err != nil {
		t.Fatalf("PublishManual failed: %v", err)
	}
	if entry.Icon != "⚡" || entry.Minute == nil || *entry.Minute != 55 {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestPublishManualRequiresText(t *testing.T) {
	src := newFakeSource()
	s := newIdleSession(src, testOptions())
	defer s.Close()

	if _, err := s.PublishManual(context.Background(), "", "⚡", 10); !IsValidation(err) {
		t.Errorf("Expected validation error for empty text, got %v", err)
	}
}

func TestManagerSwitchClosesPreviousSession(t *testing.T) {
	src := newFakeSource()
	m := NewManager(src, Options{Poll: testOptions().Poll})

	first := m.Activate(1)
	second := m.Activate(2)

	if first == second {
		t.Fatal("Expected a new session for a different match")
	}

	first.mu.Lock()
	closed := first.closed
	first.mu.Unlock()
	if !closed {
		t.Error("Previous session must be closed on match switch")
	}

	if again := m.Activate(2); again != second {
		t.Error("Re-activating the same match must return the running session")
	}

	m.Deactivate()
	if _, err := m.Current(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession after deactivation, got %v", err)
	}
}

func TestCurrentDoesNotBlockDuringActivation(t *testing.T) {
	src := newFakeSource()
	src.matchDelay = 500 * time.Millisecond

	m := NewManager(src, Options{Poll: testOptions().Poll})
	defer m.Deactivate()

	done := make(chan struct{})
	go func() {
		m.Activate(1)
		close(done)
	}()

	waitFor(t, time.Second, func() bool {
		_, err := m.Current()
		return err == nil
	})

	select {
	case <-done:
		t.Fatal("Initial load finished before Current was observed")
	default:
	}
	<-done
}
