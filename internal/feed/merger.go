// Package feed builds the ordered display feed out of the heterogeneous
// timed sources of one match.
package feed

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
)

// Kind discriminates the source of a DisplayEntry.
type Kind int

const (
	KindPrematch Kind = iota
	KindLiveStat
	KindManual
	KindEvent
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPrematch:
		return "prematch"
	case KindLiveStat:
		return "livestat"
	case KindManual:
		return "manual"
	case KindEvent:
		return "event"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalJSON renders the kind as its wire name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// prematchMinute sorts prematch items below every real match minute.
const prematchMinute = -1

// DisplayEntry is one row of the merged feed. Exactly one of the
// payload pointers matching Kind is set; Entry additionally carries the
// published text for KindEvent.
type DisplayEntry struct {
	Key        string               `json:"key"`
	Kind       Kind                 `json:"kind"`
	SortMinute int                  `json:"minute"`
	Prematch   *models.PrematchItem `json:"prematch,omitempty"`
	LiveStat   *models.LiveStatItem `json:"live_stat,omitempty"`
	Manual     *models.TickerEntry  `json:"manual,omitempty"`
	Event      *models.MatchEvent   `json:"event,omitempty"`
	Entry      *models.TickerEntry  `json:"entry,omitempty"`
}

// Merge unions all sources into one list ordered by minute descending
// (newest first). Prematch items always sort last. Only published
// entries (or entries with no status, a legacy shim) appear; drafts,
// rejected entries and events without published commentary are left to
// the pending logic. Merge is a pure projection: identical inputs yield
// an identical ordered output.
func Merge(
	prematch []models.PrematchItem,
	liveStats []models.LiveStatItem,
	entries []models.TickerEntry,
	events []models.MatchEvent,
) []DisplayEntry {
	published := make([]models.TickerEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsPublished() {
			published = append(published, e)
		}
	}

	merged := make([]DisplayEntry, 0, len(prematch)+len(liveStats)+len(published)+len(events))

	for i := range prematch {
		item := prematch[i]
		merged = append(merged, DisplayEntry{
			Key:        fmt.Sprintf("pre-%d", item.TickerEntryID),
			Kind:       KindPrematch,
			SortMinute: prematchMinute,
			Prematch:   &item,
		})
	}

	for i := range liveStats {
		item := liveStats[i]
		merged = append(merged, DisplayEntry{
			Key:        fmt.Sprintf("ls-%d", item.TickerEntryID),
			Kind:       KindLiveStat,
			SortMinute: item.Minute,
			LiveStat:   &item,
		})
	}

	for i := range published {
		entry := published[i]
		if !entry.IsManual() {
			continue
		}
		minute := 0
		if entry.Minute != nil {
			minute = *entry.Minute
		}
		merged = append(merged, DisplayEntry{
			Key:        fmt.Sprintf("man-%d", entry.ID),
			Kind:       KindManual,
			SortMinute: minute,
			Manual:     &entry,
		})
	}

	for i := range events {
		ev := events[i]
		entry := publishedEntryFor(published, ev.ID)
		if entry == nil {
			continue
		}
		merged = append(merged, DisplayEntry{
			Key:        fmt.Sprintf("ev-%d", ev.ID),
			Kind:       KindEvent,
			SortMinute: ev.Minute,
			Event:      &ev,
			Entry:      entry,
		})
	}

	// Stable sort keeps the source order prematch, livestat, manual,
	// event among entries of the same minute.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SortMinute > merged[j].SortMinute
	})

	return merged
}

func publishedEntryFor(published []models.TickerEntry, eventID int) *models.TickerEntry {
	for i := range published {
		if published[i].EventID != nil && *published[i].EventID == eventID {
			return &published[i]
		}
	}
	return nil
}
