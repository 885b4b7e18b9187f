package game

import (
	"fmt"
	"strings"
)

// Mode selects the flip-rule variant a game plays under.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeTutorial Mode = "tutorial"
	ModeLosers   Mode = "losers"
	ModeStealth  Mode = "stealth"
	ModeFrenzy   Mode = "frenzy"
)

// ModeDescriptions are the lobby blurbs shown when a mode is selected.
var ModeDescriptions = map[Mode]string{
	ModeTutorial: "Meet <b>Coach Bot</b> --- he will be your guide in this mode. Type 'Hi Coach' in chat to introduce yourself. If you are new to this game or are just not familiar with some Yorùbá words, give this mode a try!",
	ModeStandard: "Think your memory skills are on point? On each player's turn, they will pick two cards from an open board of 16 to 200+ cards. If they pick the two cards that match, they score points for themselves or their team! When all cards have been paired and matched, the team with the most points wins. Time to see which of your friends has the best memory!",
	ModeLosers:   "This is the sore loser's mode of choice --- On each turn, one player picks a card for the next player and the next player must match the card. If they do match it, they get 2 points and can keep looking for additional matches for 1 point each. If they miss a match, they have to pick another card for the next player. Time to try your best to trip up your competition. You know what they say, right? If you can't beat them, annoy them!",
	ModeStealth:  "No peeking - You can't see your opponent's choices and they can't see yours. In this mode, you can only see the cards that you and your teammates flip. If you like more of a challenge, try this mode!",
	ModeFrenzy:   "<b>No turns. No Waiting. Pure madness!</b> All players race against each other or opposing teams to match as many pairs as they can before time runs out! The players with the most pairs matched at the end win. <i>Warning: This mode is not recommended for the clinically sane.</i>",
}

// ValidMode reports whether m is a playable mode.
func ValidMode(m Mode) bool {
	_, ok := ModeDescriptions[m]
	return ok
}

// Settings is the mutable configuration of an unstarted lobby. It is owned
// by exactly one lobby and borrowed by its game at start.
type Settings struct {
	Mode       Mode
	FFA        bool
	Size       int
	Teams      []*Team
	Categories []string
}

// MaxTeams is the number of selectable teams in team mode.
const MaxTeams = 4

// NewSettings returns the lobby defaults: standard free-for-all on an 8x8
// board with every category active.
func NewSettings(categories []string) *Settings {
	s := &Settings{
		Mode:       ModeStandard,
		FFA:        true,
		Size:       8,
		Categories: append([]string(nil), categories...),
	}
	for code := 1; code <= MaxTeams; code++ {
		s.Teams = append(s.Teams, NewTeam(code))
	}
	return s
}

// ModeTitle is the capitalized display name, special-casing losers.
func (s *Settings) ModeTitle() string {
	m := strings.ToUpper(string(s.Mode[0])) + string(s.Mode[1:])
	if m == "Losers" {
		m = "Loser's Choice"
	}
	return m
}

func (s *Settings) ModeDesc() string {
	return ModeDescriptions[s.Mode]
}

func (s *Settings) TeamModeTitle() string {
	if s.FFA {
		return "Free For All"
	}
	return "Teams"
}

func (s *Settings) TeamModeDesc() string {
	if s.FFA {
		return "Everyone for themselves in a classic free-for-all. The player with the highest score wins."
	}
	return "Pair up with your friends in up to 4 teams. The team with the highest score wins."
}

func (s *Settings) BoardLabel() string {
	return fmt.Sprintf("%dx%d", s.Size, s.Size)
}

// HasCategory reports whether the category is currently selected.
func (s *Settings) HasCategory(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// AddCategory selects a category; duplicates are ignored.
func (s *Settings) AddCategory(category string) bool {
	if s.HasCategory(category) {
		return false
	}
	s.Categories = append(s.Categories, category)
	return true
}

// RemoveCategory deselects a category.
func (s *Settings) RemoveCategory(category string) bool {
	for i, c := range s.Categories {
		if c == category {
			s.Categories = append(s.Categories[:i], s.Categories[i+1:]...)
			return true
		}
	}
	return false
}

// MovePlayerToTeam atomically reassigns the player, preserving the
// one-team-at-a-time invariant. No-op when already a member.
func MovePlayerToTeam(p *Player, team *Team) {
	if p.Team == team {
		return
	}
	if p.Team != nil {
		p.Team.RemoveMember(p)
	}
	team.AddMember(p)
}

// RefreshPlayerTeam reconciles the player's team reference against the teams
// that currently list them as a member. Defensive resync after settings
// mutation.
func (s *Settings) RefreshPlayerTeam(p *Player) {
	for _, team := range s.Teams {
		if team.HasMember(p) {
			team.AddMember(p)
		} else {
			team.RemoveMember(p)
		}
	}
}
