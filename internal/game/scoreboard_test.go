package game

import (
	"testing"

	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

func byPlayer(name string) func(types.ScoreEntry) bool {
	return func(e types.ScoreEntry) bool { return e.Player == name }
}

func assertDescending(t *testing.T, list []types.ScoreEntry) {
	t.Helper()
	for i := 1; i < len(list); i++ {
		if list[i].Score > list[i-1].Score {
			t.Fatalf("scores out of order at %d: %+v", i, list)
		}
	}
}

func TestUpdateScoreEntryKeepsRankOrder(t *testing.T) {
	list := []types.ScoreEntry{
		{Player: "amara", Score: 0},
		{Player: "bola", Score: 0},
		{Player: "chidi", Score: 0},
	}

	list = updateScoreEntry(list, byPlayer("chidi"), 20)
	list = updateScoreEntry(list, byPlayer("bola"), 10)
	list = updateScoreEntry(list, byPlayer("amara"), 30)

	assertDescending(t, list)
	if list[0].Player != "amara" || list[0].Score != 30 {
		t.Fatalf("leader = %+v, want amara at 30", list[0])
	}
	if list[2].Player != "bola" {
		t.Fatalf("last = %+v, want bola", list[2])
	}

	// Overtaking moves the entry up past equal and lower scores.
	list = updateScoreEntry(list, byPlayer("bola"), 40)
	assertDescending(t, list)
	if list[0].Player != "bola" {
		t.Fatalf("after overtake leader = %+v, want bola", list[0])
	}
}

func TestUpdateScoreEntryUnknownPlayerIsNoop(t *testing.T) {
	list := []types.ScoreEntry{{Player: "amara", Score: 5}}
	got := updateScoreEntry(list, byPlayer("nobody"), 99)
	if len(got) != 1 || got[0].Player != "amara" || got[0].Score != 5 {
		t.Fatalf("list changed for unknown player: %+v", got)
	}
}
