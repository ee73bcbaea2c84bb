package movedata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatVersion is written by FromSAN and accepted (not required) by Decode.
const FormatVersion = "1"

// Color is the side that played a ply.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// ColorForPly returns the side to move at a 1-based ply.
func ColorForPly(ply int) Color {
	if ply%2 == 1 {
		return White
	}
	return Black
}

// MoveTime is the time spent on a move, in seconds. The wire format allows
// either a JSON string or a JSON number; both are kept as text.
type MoveTime string

func (t *MoveTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = MoveTime(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("movetime: %w", err)
	}
	*t = MoveTime(n.String())
	return nil
}

func (t MoveTime) String() string { return string(t) }

// MoveRecord is one ply of a game.
type MoveRecord struct {
	Turn           int      `json:"turn"`
	Ply            int      `json:"ply"`
	Color          Color    `json:"color"`
	Notation       string   `json:"notation"`
	AdvantageLabel string   `json:"advantageLabel"`
	MoveTime       MoveTime `json:"movetime"`
}

// ExperimentalDataset is the one import container accepted from both the
// network and local files. Only Moves is consumed by the views.
type ExperimentalDataset struct {
	FormatVersion             string       `json:"formatVersion"`
	Moves                     []MoveRecord `json:"moves"`
	MoveDurationsCentiseconds []int        `json:"moveDurationsCentiseconds"`
}

// Validate checks the ordering invariants of Moves: ply strictly increasing
// and colors alternating with white on odd plies.
func (d *ExperimentalDataset) Validate() error {
	if d == nil {
		return staticErr("nil dataset")
	}
	prev := 0
	for i, m := range d.Moves {
		if m.Turn < 1 {
			return fmt.Errorf("moves[%d]: turn %d < 1", i, m.Turn)
		}
		if m.Ply < 1 {
			return fmt.Errorf("moves[%d]: ply %d < 1", i, m.Ply)
		}
		if m.Ply <= prev {
			return fmt.Errorf("moves[%d]: ply %d does not follow ply %d", i, m.Ply, prev)
		}
		if want := ColorForPly(m.Ply); m.Color != want {
			return fmt.Errorf("moves[%d]: ply %d must be %s, got %q", i, m.Ply, want, m.Color)
		}
		prev = m.Ply
	}
	return nil
}
