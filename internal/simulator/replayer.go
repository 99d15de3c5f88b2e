package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
)

// Replayer posts script events into the content backend, paced so a
// polling ticker session sees the match unfold over time.
type Replayer struct {
	httpClient *http.Client
	backendURL string
	matchID    int
}

// NewReplayer creates a replayer targeting one match on the backend.
func NewReplayer(backendURL string, matchID int) *Replayer {
	return &Replayer{
		backendURL: backendURL,
		matchID:    matchID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Ping verifies the backend knows the match before the replay starts.
func (r *Replayer) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/matches/%d", r.backendURL, r.matchID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error("Failed to close ping response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d for match %d", resp.StatusCode, r.matchID)
	}
	return nil
}

// SendEvent posts one event to the backend.
func (r *Replayer) SendEvent(ctx context.Context, ev ScriptEvent) error {
	url := fmt.Sprintf("%s/events/", r.backendURL)

	payload := map[string]interface{}{
		"match_id": r.matchID,
		"minute":   ev.Minute,
		"type":     ev.Type,
		"player":   ev.Player,
		"team":     ev.Team,
		"detail":   ev.Detail,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error("Failed to close event response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("event rejected with status %d and unreadable body", resp.StatusCode)
		}
		return fmt.Errorf("event rejected with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Replay sends the script in order. Offsets between events are divided
// by speed, so speed 2 replays twice as fast; speed 0 sends without
// pacing. A single failed event is logged and skipped.
func (r *Replayer) Replay(ctx context.Context, events []ScriptEvent, speed float64) error {
	if err := r.Ping(ctx); err != nil {
		return err
	}

	lastOffset := 0
	for i, ev := range events {
		if speed > 0 && ev.OffsetSeconds > lastOffset {
			wait := time.Duration(float64(ev.OffsetSeconds-lastOffset)/speed) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		lastOffset = ev.OffsetSeconds

		if err := r.SendEvent(ctx, ev); err != nil {
			log.Error("Failed to send event",
				zap.Int("line_number", ev.LineNumber),
				zap.String("type", ev.Type),
				zap.Error(err),
			)
			continue
		}

		log.Info("Sent event",
			zap.Int("sent", i+1),
			zap.Int("total", len(events)),
			zap.String("type", ev.Type),
			zap.Int("minute", ev.Minute),
		)
	}

	log.Info("Replay finished", zap.Int("event_count", len(events)))
	return nil
}
