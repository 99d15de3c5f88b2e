// Package command turns operator slash-command shorthand into canonical
// ticker texts.
//
// Supported commands:
//
//	/goal [player] [team]
//	/card [player] [team] [yellow|red]
//	/sub  [player-in] [player-out] [team]
//	/note [free text...]
//
// Short forms: /g, /c, /s, /n
package command

import (
	"fmt"
	"strings"

	"github.com/JonasKimmer/liveticker-eintracht/internal/models"
)

var commands = map[string]string{
	"/goal": "goal",
	"/g":    "goal",
	"/card": "card",
	"/c":    "card",
	"/sub":  "sub",
	"/s":    "sub",
	"/note": "note",
	"/n":    "note",
}

type cardColor struct {
	Emoji string
	Label string
}

var cardColors = map[string]cardColor{
	"yellow": {Emoji: "🟨", Label: "Gelb"},
	"y":      {Emoji: "🟨", Label: "Gelb"},
	"gelb":   {Emoji: "🟨", Label: "Gelb"},
	"red":    {Emoji: "🟥", Label: "Rot"},
	"r":      {Emoji: "🟥", Label: "Rot"},
	"rot":    {Emoji: "🟥", Label: "Rot"},
}

// Parse converts raw editor input into a ParseResult. Input that does
// not start with "/" is not an error, it passes through as free text
// with IsValid=false. Parse is pure: identical arguments always yield
// identical results.
func Parse(input string, currentMinute int) models.ParseResult {
	trimmed := strings.TrimSpace(input)

	if !strings.HasPrefix(trimmed, "/") {
		return models.ParseResult{
			Type:      "invalid",
			Formatted: trimmed,
			Warnings:  []string{},
			IsValid:   false,
		}
	}

	tokens := strings.Fields(trimmed)
	cmdToken := strings.ToLower(tokens[0])
	commandType, ok := commands[cmdToken]
	if !ok {
		return models.ParseResult{
			Type:      "invalid",
			Formatted: trimmed,
			Warnings:  []string{"Unbekannter Command: " + cmdToken},
			IsValid:   false,
		}
	}

	args := tokens[1:]
	min := "??'"
	if currentMinute > 0 {
		min = fmt.Sprintf("%d'", currentMinute)
	}

	switch commandType {
	case "goal":
		player, team := arg(args, 0), arg(args, 1)
		warnings := []string{}
		if player == "" {
			warnings = append(warnings, "Fehlend: Spieler")
		}
		if team == "" {
			warnings = append(warnings, "Fehlend: Team")
		}
		return models.ParseResult{
			Type:      "goal",
			Formatted: fmt.Sprintf("%s ⚽ TOR — %s (%s)", min, orPlaceholder(player, "[SPIELER]"), orPlaceholder(team, "[TEAM]")),
			Warnings:  warnings,
			IsValid:   player != "" && team != "",
		}

	case "card":
		color := cardColors["yellow"]
		colorToken := ""
		for _, a := range args {
			if c, isColor := cardColors[strings.ToLower(a)]; isColor {
				color = c
				colorToken = strings.ToLower(a)
				break
			}
		}
		rest := make([]string, 0, len(args))
		for _, a := range args {
			if colorToken != "" && strings.ToLower(a) == colorToken {
				continue
			}
			rest = append(rest, a)
		}
		player, team := arg(rest, 0), arg(rest, 1)
		warnings := []string{}
		if player == "" {
			warnings = append(warnings, "Fehlend: Spieler")
		}
		if team == "" {
			warnings = append(warnings, "Fehlend: Team")
		}
		return models.ParseResult{
			Type:      "card",
			Formatted: fmt.Sprintf("%s %s KARTE — %s (%s)", min, color.Emoji, orPlaceholder(player, "[SPIELER]"), orPlaceholder(team, "[TEAM]")),
			Warnings:  warnings,
			IsValid:   player != "" && team != "",
		}

	case "sub":
		playerIn, playerOut, team := arg(args, 0), arg(args, 1), arg(args, 2)
		warnings := []string{}
		if playerIn == "" {
			warnings = append(warnings, "Fehlend: Spieler ein")
		}
		if playerOut == "" {
			warnings = append(warnings, "Fehlend: Spieler aus")
		}
		if team == "" {
			warnings = append(warnings, "Fehlend: Team")
		}
		return models.ParseResult{
			Type:      "sub",
			Formatted: fmt.Sprintf("%s 🔄 WECHSEL — %s ↔ %s (%s)", min, orPlaceholder(playerIn, "[EIN]"), orPlaceholder(playerOut, "[AUS]"), orPlaceholder(team, "[TEAM]")),
			Warnings:  warnings,
			IsValid:   playerIn != "" && playerOut != "" && team != "",
		}

	default: // note
		text := strings.Join(args, " ")
		warnings := []string{}
		if text == "" {
			warnings = append(warnings, "Fehlend: Text")
		}
		return models.ParseResult{
			Type:      "note",
			Formatted: fmt.Sprintf("%s — %s", min, orPlaceholder(text, "[TEXT]")),
			Warnings:  warnings,
			IsValid:   text != "",
		}
	}
}

// IsCommand reports whether the trimmed input starts with the command
// marker, i.e. whether Parse would treat it as a command at all.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
