package feed

import (
	"reflect"
	"testing"

	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
)

func intPtr(v int) *int { return &v }

func publishedEntry(id, eventID int) models.TickerEntry {
	return models.TickerEntry{
		ID:      id,
		EventID: intPtr(eventID),
		Text:    "text",
		Status:  models.StatusPublished,
	}
}

func TestMergeOrdering(t *testing.T) {
	events := []models.MatchEvent{
		{ID: 1, Minute: 12, Type: models.EventGoal},
		{ID: 2, Minute: 45, Type: models.EventCard},
		{ID: 3, Minute: 3, Type: models.EventSubst},
	}
	entries := []models.TickerEntry{
		publishedEntry(10, 1),
		publishedEntry(11, 2),
		publishedEntry(12, 3),
	}
	prematch := []models.PrematchItem{{TickerEntryID: 99, Text: "Vorbericht"}}

	merged := Merge(prematch, nil, entries, events)

	if len(merged) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(merged))
	}
	wantMinutes := []int{45, 12, 3, -1}
	for i, want := range wantMinutes {
		if merged[i].SortMinute != want {
			t.Errorf("Position %d: expected minute %d, got %d", i, want, merged[i].SortMinute)
		}
	}
	if merged[3].Kind != KindPrematch {
		t.Errorf("Expected prematch entry last, got %s", merged[3].Kind)
	}
}

func TestMergeFiltersUnpublished(t *testing.T) {
	events := []models.MatchEvent{{ID: 1, Minute: 10, Type: models.EventGoal}}
	entries := []models.TickerEntry{
		{ID: 1, EventID: intPtr(1), Text: "draft", Status: models.StatusDraft},
		{ID: 2, Text: "rejected", Status: models.StatusRejected},
	}

	merged := Merge(nil, nil, entries, events)

	if len(merged) != 0 {
		t.Errorf("Drafts and rejected entries must not appear, got %+v", merged)
	}
}

func TestMergeUnsetStatusCountsAsPublished(t *testing.T) {
	entries := []models.TickerEntry{
		{ID: 1, Text: "legacy manual", Minute: intPtr(20)},
	}

	merged := Merge(nil, nil, entries, nil)

	if len(merged) != 1 {
		t.Fatalf("Expected legacy entry to appear, got %d entries", len(merged))
	}
	if merged[0].Kind != KindManual {
		t.Errorf("Expected manual entry, got %s", merged[0].Kind)
	}
	if merged[0].SortMinute != 20 {
		t.Errorf("Expected minute 20, got %d", merged[0].SortMinute)
	}
}

func TestMergeEventWithoutEntryIsSkipped(t *testing.T) {
	events := []models.MatchEvent{{ID: 7, Minute: 55, Type: models.EventGoal}}

	merged := Merge(nil, nil, nil, events)

	if len(merged) != 0 {
		t.Errorf("Pending events must not appear in the feed, got %+v", merged)
	}
}

func TestMergeLiveStats(t *testing.T) {
	liveStats := []models.LiveStatItem{
		{TickerEntryID: 1, Minute: 30, Text: "Ballbesitz 60%"},
		{TickerEntryID: 2, Minute: 0, Text: "Anstoß"},
	}

	merged := Merge(nil, liveStats, nil, nil)

	if len(merged) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(merged))
	}
	if merged[0].SortMinute != 30 || merged[1].SortMinute != 0 {
		t.Errorf("Unexpected order: %v, %v", merged[0].SortMinute, merged[1].SortMinute)
	}
}

func TestMergeTieOrderIsStable(t *testing.T) {
	liveStats := []models.LiveStatItem{{TickerEntryID: 1, Minute: 10, Text: "stat"}}
	manualMinute := 10
	entries := []models.TickerEntry{
		{ID: 2, Text: "manual", Status: models.StatusPublished, Minute: &manualMinute},
		publishedEntry(3, 5),
	}
	events := []models.MatchEvent{{ID: 5, Minute: 10, Type: models.EventGoal}}

	merged := Merge(nil, liveStats, entries, events)

	wantKinds := []Kind{KindLiveStat, KindManual, KindEvent}
	if len(merged) != len(wantKinds) {
		t.Fatalf("Expected %d entries, got %d", len(wantKinds), len(merged))
	}
	for i, want := range wantKinds {
		if merged[i].Kind != want {
			t.Errorf("Position %d: expected kind %s, got %s", i, want, merged[i].Kind)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	events := []models.MatchEvent{
		{ID: 1, Minute: 12, Type: models.EventGoal},
		{ID: 2, Minute: 45, Type: models.EventCard},
	}
	entries := []models.TickerEntry{publishedEntry(10, 1), publishedEntry(11, 2)}
	prematch := []models.PrematchItem{{TickerEntryID: 1, Text: "Vorbericht"}}
	liveStats := []models.LiveStatItem{{TickerEntryID: 2, Minute: 8, Text: "stat"}}

	a := Merge(prematch, liveStats, entries, events)
	b := Merge(prematch, liveStats, entries, events)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("Merge is not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestMergeKeys(t *testing.T) {
	events := []models.MatchEvent{{ID: 4, Minute: 12, Type: models.EventGoal}}
	entries := []models.TickerEntry{publishedEntry(9, 4)}

	merged := Merge(nil, nil, entries, events)

	if len(merged) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(merged))
	}
	if merged[0].Key != "ev-4" {
		t.Errorf("Expected key 'ev-4', got '%s'", merged[0].Key)
	}
	if merged[0].Entry == nil || merged[0].Entry.ID != 9 {
		t.Errorf("Expected published entry 9 attached to event")
	}
}
