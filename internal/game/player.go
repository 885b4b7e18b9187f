package game

import "strings"

// MaxNameLength bounds a display name; names also may not contain whitespace.
const MaxNameLength = 15

// Player is a lobby member. The zero ConnID means no live connection; the
// same Player is reused across reconnects under the same name.
type Player struct {
	Name      string
	LobbyID   string
	Team      *Team
	ConnID    string
	Avatar    string
	Connected bool
}

func NewPlayer(name, lobbyID string) *Player {
	return &Player{Name: name, LobbyID: lobbyID}
}

// ValidateName enforces the display-name rules: 1-15 characters, no
// whitespace.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > MaxNameLength {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return ErrInvalidName
	}
	return nil
}

// AssignDefaultAvatar keys the avatar off the player's team color.
func (p *Player) AssignDefaultAvatar() {
	if p.Team == nil {
		p.Avatar = "pawn-grey"
		return
	}
	p.Avatar = "pawn-" + strings.ToLower(strings.Fields(p.Team.Color().Name)[0])
}
