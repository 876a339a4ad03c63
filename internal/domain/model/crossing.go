// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlayerID identifies a character. It is unique per character and stable
// across sessions.
type PlayerID string

// Valid reports whether the id is usable as a tracking key.
func (id PlayerID) Valid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// Crossing is produced when a character moves from below the threshold to at
// or above it. It is handed to a notification sink and never stored.
type Crossing struct {
	ID        string    `json:"id"`
	PlayerID  PlayerID  `json:"player_id"`
	Level     int       `json:"level"`     // level observed at the crossing
	Threshold int       `json:"threshold"` // threshold the level was compared against
	At        time.Time `json:"at"`
}

// NewCrossing builds a Crossing stamped with a fresh id and the current time.
func NewCrossing(id PlayerID, level, threshold int) Crossing {
	return Crossing{
		ID:        uuid.NewString(),
		PlayerID:  id,
		Level:     level,
		Threshold: threshold,
		At:        time.Now().UTC(),
	}
}

// Warning is the human-readable message delivered to a player for a Crossing.
type Warning struct {
	ID       string    `json:"id"`
	PlayerID PlayerID  `json:"player_id"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// WarningFor renders the player-facing text for c.
func WarningFor(c Crossing) Warning {
	return Warning{
		ID:       c.ID,
		PlayerID: c.PlayerID,
		Text: fmt.Sprintf(
			"You have reached level %d. Characters at level %d or above carry normal burden; inventory capacity is no longer unlimited.",
			c.Level, c.Threshold),
		At: c.At,
	}
}
