package movedata

import "testing"

func TestFromSAN(t *testing.T) {
	sans := []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Bxc6", "dxc6"}
	ds, err := FromSAN(sans, []int{120, 95, 300})
	if err != nil {
		t.Fatalf("FromSAN: %v", err)
	}
	if err := ds.Validate(); err != nil {
		t.Fatalf("generated dataset invalid: %v", err)
	}
	if len(ds.Moves) != len(sans) {
		t.Fatalf("expected %d moves, got %d", len(sans), len(ds.Moves))
	}
	last := ds.Moves[len(ds.Moves)-1]
	if last.Turn != 4 || last.Ply != 8 || last.Color != Black {
		t.Fatalf("unexpected last move: %+v", last)
	}
	if got := ds.Moves[6].AdvantageLabel; got != "+3" {
		t.Fatalf("after Bxc6 expected +3, got %q", got)
	}
	if got := last.AdvantageLabel; got != "+0" {
		t.Fatalf("after dxc6 expected +0, got %q", got)
	}
	if ds.Moves[0].MoveTime != "1.2" || ds.Moves[2].MoveTime != "3" || ds.Moves[3].MoveTime != "" {
		t.Fatalf("unexpected move times: %q %q %q", ds.Moves[0].MoveTime, ds.Moves[2].MoveTime, ds.Moves[3].MoveTime)
	}
}

func TestFromSANIllegal(t *testing.T) {
	if _, err := FromSAN([]string{"e4", "e4"}, nil); err == nil {
		t.Fatalf("expected error for illegal second move")
	}
}
