package game

import (
	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

// updateScoreEntry finds the display entry selected by match, sets its new
// score, and reinserts it at the rank found by binary search. The list stays
// sorted descending by score; relative order among equal scores is
// unspecified.
func updateScoreEntry(list []types.ScoreEntry, match func(types.ScoreEntry) bool, score int) []types.ScoreEntry {
	for i, entry := range list {
		if match(entry) {
			entry.Score = score
			list = append(list[:i], list[i+1:]...)
			return insertByScore(list, entry)
		}
	}
	return list
}

// insertByScore inserts the entry into a list sorted descending by score.
func insertByScore(list []types.ScoreEntry, entry types.ScoreEntry) []types.ScoreEntry {
	lo, hi := 0, len(list)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if entry.Score > list[mid].Score {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	list = append(list, types.ScoreEntry{})
	copy(list[lo+1:], list[lo:])
	list[lo] = entry
	return list
}
