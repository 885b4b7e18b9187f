package game

// flipRules parameterizes the one flip-resolution algorithm across the mode
// variants, instead of keeping four near-identical copies.
type flipRules interface {
	// slotKey names the pending-flip slot a player's flip resolves against.
	slotKey(player string) string
	// gated reports whether the per-game turn mutex guards this mode.
	gated() bool
	// frenzy reports whether the result is tagged for frenzy clients.
	frenzy() bool
}

// loserSlot is the synthetic shared slot for losers-choice: one player
// nominates a card there and the next player's flip resolves against it.
// The leading space keeps it out of the player namespace.
const loserSlot = " _loser"

// standardRules covers standard, tutorial, and stealth: per-player slots,
// turn-gated. Stealth differs only in broadcast visibility.
type standardRules struct{}

func (standardRules) slotKey(player string) string { return player }
func (standardRules) gated() bool                  { return true }
func (standardRules) frenzy() bool                 { return false }

type losersRules struct{}

func (losersRules) slotKey(string) string { return loserSlot }
func (losersRules) gated() bool           { return true }
func (losersRules) frenzy() bool          { return false }

// frenzyRules: per-player slots, no turn gate at all. Correctness relies on
// the per-player keying alone.
type frenzyRules struct{}

func (frenzyRules) slotKey(player string) string { return player }
func (frenzyRules) gated() bool                  { return false }
func (frenzyRules) frenzy() bool                 { return true }

func rulesFor(mode Mode) flipRules {
	switch mode {
	case ModeLosers:
		return losersRules{}
	case ModeFrenzy:
		return frenzyRules{}
	default:
		return standardRules{}
	}
}
