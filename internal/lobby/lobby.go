// Package lobby implements the pre-game holding area: roster, team
// assignment, settings mutation, and the start vote that creates a game.
package lobby

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/dictionary"
	"github.com/loyeleye/multiplayer-yoruba/internal/game"
	"github.com/loyeleye/multiplayer-yoruba/internal/realtime"
	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

// MaxPlayers caps a lobby at the color palette size so free-for-all color
// assignment can never collide.
const MaxPlayers = 8

// Hooks notifies the session directory of lobby lifecycle transitions.
type Hooks interface {
	// GameStarted registers the new game under its own id and rotates this
	// lobby out of the public queue. Runs before members are redirected.
	GameStarted(l *Lobby)
	// GameEnded retires the lobby after its game finished.
	GameEnded(l *Lobby, g *game.Game)
}

// Lobby owns its settings, roster, and start votes, and creates the Game on
// a successful vote.
type Lobby struct {
	mu       sync.Mutex
	id       string
	log      *zap.Logger
	rt       realtime.Broadcaster
	dict     *dictionary.Dictionary
	hooks    Hooks
	players  map[string]*game.Player
	joined   []string
	votes    map[string]struct{}
	settings *game.Settings
	game     *game.Game
	password string
}

func New(log *zap.Logger, rt realtime.Broadcaster, dict *dictionary.Dictionary, hooks Hooks) *Lobby {
	id := game.NewSessionID()
	return &Lobby{
		id:       id,
		log:      log.Named("lobby").With(zap.String("lobby_id", id)),
		rt:       rt,
		dict:     dict,
		hooks:    hooks,
		players:  make(map[string]*game.Player),
		votes:    make(map[string]struct{}),
		settings: game.NewSettings(dict.Categories()),
	}
}

func (l *Lobby) ID() string { return l.id }

// Password is the private-lobby key; empty for public lobbies.
func (l *Lobby) Password() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.password
}

func (l *Lobby) SetPassword(password string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.password = password
}

// AddPlayer creates and registers a player. With joinTeam set the player is
// auto-balanced onto the smaller of the first two teams and given a default
// avatar keyed by its color.
func (l *Lobby) AddPlayer(name string, joinTeam bool) (*game.Player, error) {
	if err := game.ValidateName(name); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.players) >= MaxPlayers {
		return nil, game.ErrLobbyFull
	}
	if _, ok := l.players[name]; ok {
		return nil, game.ErrNameCollision
	}
	p := game.NewPlayer(name, l.id)
	l.players[name] = p
	l.joined = append(l.joined, name)
	if joinTeam {
		team := l.settings.Teams[0]
		if l.settings.Teams[0].Len() > l.settings.Teams[1].Len() {
			team = l.settings.Teams[1]
		}
		team.AddMember(p)
		p.AssignDefaultAvatar()
	}
	return p, nil
}

// RemovePlayer drops the player from the roster. Team membership is kept so
// a reconnect under the same name can be reconciled.
func (l *Lobby) RemovePlayer(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.players[name]; !ok {
		return fmt.Errorf("removing %q: %w", name, game.ErrSessionNotFound)
	}
	delete(l.players, name)
	for i, n := range l.joined {
		if n == name {
			l.joined = append(l.joined[:i], l.joined[i+1:]...)
			break
		}
	}
	return nil
}

func (l *Lobby) Player(name string) (*game.Player, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.players[name]
	return p, ok
}

func (l *Lobby) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.players)
}

// VoteStart records a start vote; repeat votes by the same name are ignored.
func (l *Lobby) VoteStart(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.votes[name]; ok {
		return false
	}
	l.votes[name] = struct{}{}
	return true
}

// VoteFraction is votes over the current player count.
func (l *Lobby) VoteFraction() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.players) == 0 {
		return 0
	}
	return float64(len(l.votes)) / float64(len(l.players))
}

// StartGame announces the vote, lazily constructs the game, and kicks off
// its countdown with the current vote fraction.
func (l *Lobby) StartGame(initiator string) {
	l.rt.ToRoom(l.id, types.ChatAlert(fmt.Sprintf("%s wants to start the game.", initiator)))

	l.mu.Lock()
	if l.game == nil {
		l.game = game.New(l.log, l.rt, l.dict, l, l.settings, gameHooks{l})
	}
	g := l.game
	l.mu.Unlock()

	go g.Countdown(l.VoteFraction())
}

func (l *Lobby) Game() *game.Game {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.game
}

func (l *Lobby) DetachGame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.game = nil
}

func (l *Lobby) Settings() *game.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// UpdatePlayerConnection flags the player and forwards to a running game.
func (l *Lobby) UpdatePlayerConnection(name string, connected bool) {
	l.mu.Lock()
	p, ok := l.players[name]
	g := l.game
	l.mu.Unlock()
	if !ok {
		return
	}
	p.Connected = connected
	if g != nil {
		g.UpdatePlayerConnection(name, connected)
	}
}

// PlayerNames returns the roster in join order.
func (l *Lobby) PlayerNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.joined...)
}

// PlayerColors implements game.Roster: in free-for-all every player gets a
// distinct palette code in join order; in team mode the player's team code.
func (l *Lobby) PlayerColors(ffa bool) []game.PlayerColor {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playerColorsLocked(ffa)
}

func (l *Lobby) playerColorsLocked(ffa bool) []game.PlayerColor {
	out := make([]game.PlayerColor, 0, len(l.joined))
	for i, name := range l.joined {
		pc := game.PlayerColor{Name: name}
		if ffa {
			pc.Code = i%game.PaletteSize + 1
		} else if team := l.players[name].Team; team != nil {
			pc.Code = team.Code
		}
		out = append(out, pc)
	}
	return out
}

// PlayerTeamColors is the wire form of the roster used by connect alerts and
// lobby list updates.
func (l *Lobby) PlayerTeamColors() map[string]types.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]types.Color, len(l.joined))
	for _, pc := range l.playerColorsLocked(l.settings.FFA) {
		out[pc.Name] = game.Palette[pc.Code]
	}
	return out
}

func (l *Lobby) TeamOf(name string) (*game.Team, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.players[name]
	if !ok || p.Team == nil {
		return nil, false
	}
	return p.Team, true
}

// gameHooks adapts game lifecycle callbacks onto the lobby and its
// directory.
type gameHooks struct{ l *Lobby }

func (h gameHooks) GameStarted(g *game.Game) {
	h.l.log.Info("game started", zap.String("game_id", g.ID()))
	if h.l.hooks != nil {
		h.l.hooks.GameStarted(h.l)
	}
	h.l.rt.ToRoom(h.l.id, types.GotoGame(g.ID()))
}

func (h gameHooks) GameEnded(g *game.Game) {
	h.l.DetachGame()
	if h.l.hooks != nil {
		h.l.hooks.GameEnded(h.l, g)
	}
}

// Configure applies one lobby-config command path: ["set", key, value] or
// ["change", key, ...]. Unknown paths are dropped. No-op once the lobby's
// game has started.
func (l *Lobby) Configure(playerName string, path []string) {
	if len(path) < 2 {
		return
	}
	if g := l.Game(); g != nil && g.Started() {
		return
	}

	switch path[0] {
	case "set":
		l.configureSet(playerName, path)
	case "change":
		l.configureChange(playerName, path)
	}
}

func (l *Lobby) configureSet(playerName string, path []string) {
	if len(path) < 3 {
		return
	}
	value := path[2]

	l.mu.Lock()
	var cfg *types.ConfigAlert
	switch path[1] {
	case "mode":
		mode := game.Mode(value)
		if !game.ValidMode(mode) {
			l.mu.Unlock()
			return
		}
		l.settings.Mode = mode
		cfg = &types.ConfigAlert{
			Set:     "mode",
			Mode:    l.settings.ModeTitle(),
			Message: l.settings.ModeDesc(),
			Alert:   fmt.Sprintf("%s set the game mode to %q.", playerName, l.settings.ModeTitle()),
		}
	case "team":
		l.settings.FFA = value != "teams"
		players := make(map[string]types.Color)
		for _, pc := range l.playerColorsLocked(l.settings.FFA) {
			players[pc.Name] = game.Palette[pc.Code]
		}
		cfg = &types.ConfigAlert{
			Set:     "team",
			FFA:     l.settings.FFA,
			Title:   l.settings.TeamModeTitle(),
			Players: players,
			Message: l.settings.TeamModeDesc() + "<br><br>",
			Alert:   fmt.Sprintf("%s set the team mode to %q.", playerName, l.settings.TeamModeTitle()),
		}
	case "theme":
		if value == "all" {
			l.settings.Categories = l.dict.Categories()
			cfg = &types.ConfigAlert{
				Set:    "theme",
				Themes: append([]string(nil), l.settings.Categories...),
				Alert:  fmt.Sprintf("%s added all themes to the list.", playerName),
			}
		} else {
			l.settings.Categories = nil
			cfg = &types.ConfigAlert{
				Set:   "theme",
				Alert: fmt.Sprintf("%s cleared all themes from the list.", playerName),
			}
		}
	case "size":
		size, err := strconv.Atoi(value)
		if err != nil || size < 2 || size > 16 || size%2 != 0 {
			l.mu.Unlock()
			return
		}
		l.settings.Size = size
		cfg = &types.ConfigAlert{
			Set:   "size",
			Size:  fmt.Sprintf("<i>Board Size: %s</i>", l.settings.BoardLabel()),
			Alert: fmt.Sprintf("%s set the board size to %q.", playerName, l.settings.BoardLabel()),
		}
	}
	l.mu.Unlock()

	if cfg != nil {
		l.rt.ToRoom(l.id, types.ServerMessage{Type: types.EvtConfigAlert, Config: cfg})
	}
}

func (l *Lobby) configureChange(playerName string, path []string) {
	switch path[1] {
	case "team":
		if len(path) < 3 {
			return
		}
		idx, err := strconv.Atoi(path[2])
		l.mu.Lock()
		if err != nil || idx < 1 || idx > len(l.settings.Teams) {
			l.mu.Unlock()
			return
		}
		p, ok := l.players[playerName]
		if !ok {
			l.mu.Unlock()
			return
		}
		game.MovePlayerToTeam(p, l.settings.Teams[idx-1])
		p.AssignDefaultAvatar()
		l.mu.Unlock()
		l.rt.ToRoom(l.id, types.ServerMessage{Type: types.EvtUpdateLobby, Players: l.PlayerTeamColors()})
	case "theme":
		if len(path) < 4 {
			return
		}
		theme := strings.TrimSpace(path[3])
		switch path[2] {
		case "delete":
			l.mu.Lock()
			removed := l.settings.RemoveCategory(theme)
			l.mu.Unlock()
			if removed {
				l.rt.ToRoom(l.id, types.ServerMessage{
					Type: types.EvtUpdateChips,
					Chip: &types.ChipUpdate{Action: "delete", Theme: theme},
				})
			}
		case "add":
			// An unknown theme falls through to a delete so stray client
			// chips get cleaned up.
			if !l.dict.HasCategory(theme) {
				l.configureChange(playerName, []string{"change", "theme", "delete", theme})
				return
			}
			l.mu.Lock()
			added := l.settings.AddCategory(theme)
			l.mu.Unlock()
			if added {
				l.rt.ToRoom(l.id, types.ServerMessage{
					Type: types.EvtUpdateChips,
					Chip: &types.ChipUpdate{Action: "add", Theme: theme},
				})
			}
		}
	}
}
