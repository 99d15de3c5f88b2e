// Package simulator replays a recorded match script against the
// content backend so a ticker session can be exercised without a live
// fixture.
package simulator

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
)

// ScriptEvent is one line of a match script: a match event injected at
// a relative offset into the replay.
type ScriptEvent struct {
	LineNumber    int    `json:"-"`
	OffsetSeconds int    `json:"offset_seconds"`
	Minute        int    `json:"minute"`
	Type          string `json:"type"`
	Player        string `json:"player,omitempty"`
	Team          string `json:"team,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// ParseScript reads a JSON-lines match script. Empty lines and lines
// starting with # are skipped; malformed lines are logged and dropped.
// Events come back sorted by offset.
func ParseScript(filePath string) ([]ScriptEvent, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Error("Failed to close script file", zap.Error(closeErr))
		}
	}()

	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024 // 1MB
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	var events []ScriptEvent
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var ev ScriptEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			log.Warn("Failed to parse script line",
				zap.Int("line_number", lineNum),
				zap.Error(err),
			)
			continue
		}

		if ev.Type == "" {
			log.Warn("Script line has no event type, skipping",
				zap.Int("line_number", lineNum),
			)
			continue
		}
		if ev.Minute < 0 {
			ev.Minute = 0
		}

		ev.LineNumber = lineNum
		events = append(events, ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OffsetSeconds < events[j].OffsetSeconds
	})

	log.Info("Parsed match script", zap.Int("event_count", len(events)))
	return events, nil
}
