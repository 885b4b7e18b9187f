package game

import (
	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

// Palette is the fixed 8-color palette teams and free-for-all players draw
// from. Class/Text carry the materialize CSS classes the client styles with.
var Palette = map[int]types.Color{
	1: {Name: "Red", Class: "red", Text: "red-text"},
	2: {Name: "Blue", Class: "blue darken-4", Text: "blue-text"},
	3: {Name: "Yellow", Class: "yellow darken-2", Text: "yellow-text text-darken-2"},
	4: {Name: "Brown", Class: "brown", Text: "brown-text"},
	5: {Name: "Pink", Class: "purple accent-1", Text: "purple-text text-accent-1"},
	6: {Name: "Cyan", Class: "light-blue lighten-1", Text: "light-blue-text text-lighten-1"},
	7: {Name: "Orange", Class: "orange", Text: "orange-text"},
	8: {Name: "Purple", Class: "deep-purple accent-3", Text: "deep-purple-text text-accent-3"},
}

// PaletteSize is the number of distinct colors available; lobby capacity may
// not exceed it or free-for-all color assignment would collide.
const PaletteSize = 8

// Team is a color-coded group of players keyed by name.
type Team struct {
	Code    int
	members map[string]*Player
}

func NewTeam(code int) *Team {
	return &Team{Code: code, members: make(map[string]*Player)}
}

func (t *Team) Len() int {
	return len(t.members)
}

func (t *Team) Color() types.Color {
	return Palette[t.Code]
}

// AddMember registers the player and points their team reference here.
// Idempotent; the caller removes the player from any prior team.
func (t *Team) AddMember(p *Player) {
	t.members[p.Name] = p
	p.Team = t
}

// RemoveMember drops the player and clears their team reference if it still
// points here.
func (t *Team) RemoveMember(p *Player) {
	delete(t.members, p.Name)
	if p.Team == t {
		p.Team = nil
	}
}

func (t *Team) HasMember(p *Player) bool {
	_, ok := t.members[p.Name]
	return ok
}

func (t *Team) Members() []*Player {
	out := make([]*Player, 0, len(t.members))
	for _, p := range t.members {
		out = append(out, p)
	}
	return out
}
