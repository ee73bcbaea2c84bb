package movedata

import (
	"errors"
	"testing"
)

const twoMoves = `{
  "formatVersion": "1",
  "moves": [
    {"turn": 1, "ply": 1, "color": "white", "notation": "1e4", "advantageLabel": "+0.2", "movetime": "3"},
    {"turn": 1, "ply": 2, "color": "black", "notation": "e5", "advantageLabel": "+0.1", "movetime": 4}
  ],
  "moveDurationsCentiseconds": [300, 400]
}`

func TestDecodeValid(t *testing.T) {
	ds, err := Decode([]byte(twoMoves))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ds.Moves) != 2 {
		t.Fatalf("expected 2 moves, got %d", len(ds.Moves))
	}
	if ds.Moves[0].Notation != "1e4" || ds.Moves[0].Color != White {
		t.Fatalf("unexpected first move: %+v", ds.Moves[0])
	}
	if ds.Moves[0].MoveTime != "3" || ds.Moves[1].MoveTime != "4" {
		t.Fatalf("movetime not normalised: %q %q", ds.Moves[0].MoveTime, ds.Moves[1].MoveTime)
	}
	if ds.FormatVersion != "1" || len(ds.MoveDurationsCentiseconds) != 2 {
		t.Fatalf("metadata not passed through: %+v", ds)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name string
		body string
		kind error
	}{
		{"malformed", `{"moves": [`, ErrMalformedJSON},
		{"bare array", `[{"turn": 1, "ply": 1, "color": "white", "notation": "e4"}]`, ErrBareArray},
		{"missing moves", `{"dataset": []}`, ErrSchema},
		{"bad color", `{"moves": [{"turn": 1, "ply": 1, "color": "red", "notation": "e4"}]}`, ErrSchema},
		{"zero ply", `{"moves": [{"turn": 1, "ply": 0, "color": "white", "notation": "e4"}]}`, ErrSchema},
		{"wrong side", `{"moves": [{"turn": 1, "ply": 1, "color": "black", "notation": "e4"}]}`, ErrInvariant},
		{"ply order", `{"moves": [
			{"turn": 1, "ply": 2, "color": "black", "notation": "e5"},
			{"turn": 1, "ply": 1, "color": "white", "notation": "e4"}]}`, ErrInvariant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestDecodeEmptyMoves(t *testing.T) {
	ds, err := Decode([]byte(`{"formatVersion": "1", "moves": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ds.Moves) != 0 {
		t.Fatalf("expected no moves, got %d", len(ds.Moves))
	}
}
