package services

import (
	"fmt"
	"regexp"
	"strings"
)

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// reservedNames are substrings players cannot use, to keep impersonation
// of system roles out of the lobby.
var reservedNames = []string{"bot", "admin", "server", "null", "undefined"}

// ValidatePlayerName checks a join-time display name. Names are trimmed,
// capped at 20 characters and must not impersonate system roles.
func ValidatePlayerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if len(trimmed) > 20 {
		return "", fmt.Errorf("name must be 20 characters or less")
	}
	lower := strings.ToLower(trimmed)
	for _, word := range reservedNames {
		if strings.Contains(lower, word) {
			return "", fmt.Errorf("name contains reserved words")
		}
	}
	return trimmed, nil
}

// ValidateChoice checks a round submission: an integer between 0 and 100.
func ValidateChoice(value float64) (int, error) {
	if value != float64(int(value)) {
		return 0, fmt.Errorf("choice must be a whole number")
	}
	choice := int(value)
	if choice < 0 || choice > 100 {
		return 0, fmt.Errorf("choice must be between 0 and 100")
	}
	return choice, nil
}

// ValidRoomID reports whether an ID matches the six-character room code
// format produced by the room generator.
func ValidRoomID(roomID string) bool {
	return roomIDPattern.MatchString(roomID)
}
