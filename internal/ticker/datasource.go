package ticker

import (
	"context"

	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
)

// DataSource is everything the orchestration needs from the backend.
// Implemented by the datasource HTTP client; tests provide fakes.
// Failures of individual calls are independent; a fetch error must
// never abort sibling fetches of the same refresh batch.
type DataSource interface {
	FetchMatch(ctx context.Context, matchID int) (*models.Match, error)
	FetchEvents(ctx context.Context, matchID int) ([]models.MatchEvent, error)
	FetchTickerTexts(ctx context.Context, matchID int) ([]models.TickerEntry, error)
	FetchPrematch(ctx context.Context, matchID int) ([]models.PrematchItem, error)
	FetchLiveStats(ctx context.Context, matchID int) ([]models.LiveStatItem, error)
	FetchLineups(ctx context.Context, matchID int) ([]models.Lineup, error)
	FetchMatchStats(ctx context.Context, matchID int) ([]models.MatchStat, error)
	FetchPlayerStats(ctx context.Context, matchID int) ([]models.PlayerStat, error)

	GenerateDraft(ctx context.Context, eventID int, style string) (*models.TickerEntry, error)
	Publish(ctx context.Context, entryID int, text string) error
	UpdateStatus(ctx context.Context, entryID int, patch models.EntryPatch) error
	CreateManualEntry(ctx context.Context, matchID int, text, icon string, minute int) (*models.TickerEntry, error)
}
