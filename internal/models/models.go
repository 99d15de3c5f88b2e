package models

import (
	"strings"
	"time"
)

// Mode selects how incoming match events are turned into published commentary.
type Mode string

const (
	ModeAuto   Mode = "auto"   // AI generates and publishes without review
	ModeCoop   Mode = "coop"   // AI drafts, operator decides
	ModeManual Mode = "manual" // operator writes everything
)

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m == ModeAuto || m == ModeCoop || m == ModeManual
}

// TickerEntry statuses. An empty status is treated as published for
// entries written before the status column existed.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusRejected  = "rejected"
)

// Styles is the closed set of commentary tones the generator accepts.
// Styles[0] is the default used by auto mode.
var Styles = []string{"neutral", "euphorisch", "kritisch"}

// ValidStyle reports whether s is a known commentary style.
func ValidStyle(s string) bool {
	for _, known := range Styles {
		if s == known {
			return true
		}
	}
	return false
}

// Match event types as delivered by the backend.
const (
	EventGoal  = "Goal"
	EventCard  = "Card"
	EventSubst = "subst"
)

// Match is one fixture as delivered by the backend.
type Match struct {
	ID        int    `json:"id"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Minute    int    `json:"minute"`
	Status    string `json:"status"`
	Round     string `json:"round,omitempty"`
}

// NormalizeStatus maps the backend's raw match status codes onto
// "live", "finished" or "scheduled".
func NormalizeStatus(status string) string {
	switch status {
	case "1H", "2H", "HT", "ET", "live":
		return "live"
	case "FT", "AET", "PEN", "finished":
		return "finished"
	default:
		return "scheduled"
	}
}

// MatchEvent is a raw match occurrence (goal, card, substitution).
// Events are immutable once received; commentary about an event lives
// in a separate TickerEntry addressed by EventID.
type MatchEvent struct {
	ID         int    `json:"id"`
	MatchID    int    `json:"match_id"`
	Minute     int    `json:"minute"`
	Type       string `json:"type"`
	Detail     string `json:"detail,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	AssistName string `json:"assist_name,omitempty"`
}

// TickerEntry is one piece of commentary, AI-generated or manual.
// Entries are never deleted, only transitioned between statuses.
type TickerEntry struct {
	ID         int        `json:"id"`
	MatchID    int        `json:"match_id"`
	EventID    *int       `json:"event_id"`
	Text       string     `json:"text"`
	Status     string     `json:"status"`
	Style      string     `json:"style,omitempty"`
	Confidence string     `json:"confidence,omitempty"`
	Minute     *int       `json:"minute,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	LLMModel   string     `json:"llm_model,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// IsPublished reports whether the entry counts as published. An unset
// status is a legacy compatibility shim for pre-status entries and is
// treated as published; new code must always write an explicit status.
func (t *TickerEntry) IsPublished() bool {
	return t.Status == StatusPublished || t.Status == ""
}

// IsManual reports whether the entry was authored by an operator
// rather than generated for a match event.
func (t *TickerEntry) IsManual() bool {
	return t.EventID == nil
}

// EntryPatch is a partial update applied to an existing ticker entry.
type EntryPatch struct {
	Text   string `json:"text,omitempty"`
	Status string `json:"status,omitempty"`
}

// PrematchItem is read-only editorial content shown before kickoff.
type PrematchItem struct {
	TickerEntryID int    `json:"ticker_entry_id"`
	Text          string `json:"text"`
	LLMModel      string `json:"llm_model,omitempty"`
}

// LiveStatItem is a read-only statistical note generated during the match.
type LiveStatItem struct {
	TickerEntryID int    `json:"ticker_entry_id"`
	Minute        int    `json:"minute"`
	Text          string `json:"text"`
	LLMModel      string `json:"llm_model,omitempty"`
}

// Lineup is one team's starting formation.
type Lineup struct {
	TeamName  string   `json:"team_name"`
	Formation string   `json:"formation,omitempty"`
	Players   []string `json:"players,omitempty"`
}

// MatchStat is one aggregate statistic line (possession, shots, ...).
type MatchStat struct {
	Name      string `json:"name"`
	HomeValue string `json:"home_value"`
	AwayValue string `json:"away_value"`
}

// PlayerStat is one per-player statistic line.
type PlayerStat struct {
	PlayerName string `json:"player_name"`
	TeamName   string `json:"team_name"`
	Goals      int    `json:"goals"`
	Assists    int    `json:"assists"`
	Minutes    int    `json:"minutes"`
}

// ParseResult is the outcome of parsing one slash command. It is a
// transient value, always recomputed from the raw input.
type ParseResult struct {
	Type      string   `json:"type"`
	Formatted string   `json:"formatted"`
	Warnings  []string `json:"warnings"`
	IsValid   bool     `json:"is_valid"`
}

// EventMeta is display metadata derived from an event's type.
type EventMeta struct {
	Icon  string `json:"icon"`
	Class string `json:"class"`
}

// MetaForEvent returns the icon and css class for an event type. Card
// events pick the red marker when the detail mentions a red card.
func MetaForEvent(eventType, detail string) EventMeta {
	switch eventType {
	case EventGoal:
		return EventMeta{Icon: "⚽", Class: "goal"}
	case EventCard:
		lowered := strings.ToLower(detail)
		if strings.Contains(lowered, "red") || strings.Contains(lowered, "rot") {
			return EventMeta{Icon: "🟥", Class: "card"}
		}
		return EventMeta{Icon: "🟨", Class: "card"}
	case EventSubst:
		return EventMeta{Icon: "🔄", Class: "sub"}
	default:
		return EventMeta{Icon: "•", Class: ""}
	}
}

// RawEventText is the fallback text shown for an event that has no
// commentary yet.
func RawEventText(ev *MatchEvent) string {
	switch ev.Type {
	case EventGoal:
		if ev.AssistName != "" && ev.AssistName != "null" {
			return "Tor! " + ev.PlayerName + " (Assist: " + ev.AssistName + ")"
		}
		return "Tor! " + ev.PlayerName
	case EventCard:
		return ev.Detail + " — " + ev.PlayerName
	case EventSubst:
		return ev.PlayerName + " ↔ " + ev.AssistName
	default:
		return ev.Detail
	}
}
