// Package service is the process-wide session directory: it maps socket ids
// to players, players to lobbies, and game ids to games, and manages the
// public lobby queue and private lobbies. All routing state is owned by a
// single actor goroutine fed typed messages.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/dictionary"
	"github.com/loyeleye/multiplayer-yoruba/internal/game"
	"github.com/loyeleye/multiplayer-yoruba/internal/lobby"
	"github.com/loyeleye/multiplayer-yoruba/internal/realtime"
	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

type Msg interface{ isServiceMsg() }

// JoinLobby adds a named player to the open public lobby, or to the private
// lobby keyed by Password when one is given.
type JoinLobby struct {
	Name     string
	Password string
	Reply    chan JoinResult
}

type JoinResult struct {
	Lobby  *lobby.Lobby
	Player *game.Player
	Err    error
}

// IdentifyConn binds a live connection to an existing lobby member.
type IdentifyConn struct {
	ConnID  string
	Name    string
	LobbyID string // empty means the open public lobby
	Reply   chan error
}

// GameConnect joins a connection to a running (or counting down) game room,
// re-adding reconnecting players to the roster.
type GameConnect struct {
	ConnID string
	GameID string
	Name   string
	Reply  chan error
}

// ConfigureLobby applies a lobby-config command path for the player behind
// the connection.
type ConfigureLobby struct {
	ConnID   string
	Settings []string
}

// VoteStart records the connection's start vote and triggers the countdown.
type VoteStart struct{ ConnID string }

// Flip routes a request-flip to the connection's game.
type Flip struct {
	ConnID string
	CardID string
}

// Refresh resends the list snapshot to one connection.
type Refresh struct{ ConnID string }

// DisconnectConn tears down a connection's routing entries.
type DisconnectConn struct{ ConnID string }

// RoomFor resolves the lobby room a connection belongs to.
type RoomFor struct {
	ConnID string
	Reply  chan string
}

// LookupGame resolves a game by its own id, independent of its lobby.
type LookupGame struct {
	GameID string
	Reply  chan *game.Game
}

type Shutdown struct{}

// lobbyStarted and gameEnded are the lifecycle hooks routed back through the
// inbox so registry mutation stays on the actor goroutine.
type lobbyStarted struct {
	l    *lobby.Lobby
	done chan struct{}
}

type gameEnded struct {
	l *lobby.Lobby
	g *game.Game
}

func (JoinLobby) isServiceMsg()      {}
func (IdentifyConn) isServiceMsg()   {}
func (GameConnect) isServiceMsg()    {}
func (ConfigureLobby) isServiceMsg() {}
func (VoteStart) isServiceMsg()      {}
func (Flip) isServiceMsg()           {}
func (Refresh) isServiceMsg()        {}
func (DisconnectConn) isServiceMsg() {}
func (RoomFor) isServiceMsg()        {}
func (LookupGame) isServiceMsg()     {}
func (Shutdown) isServiceMsg()       {}
func (lobbyStarted) isServiceMsg()   {}
func (gameEnded) isServiceMsg()      {}

// Service is constructed once at process start and torn down at shutdown.
type Service struct {
	inbox       chan Msg
	log         *zap.Logger
	rt          realtime.Broadcaster
	dict        *dictionary.Dictionary
	lobbies     map[string]*lobby.Lobby
	open        *lobby.Lobby
	refillQueue []*lobby.Lobby
	private     map[string]*lobby.Lobby
	sockets     map[string]*game.Player
	games       map[string]*game.Game
	gameLobbies map[string]*lobby.Lobby
	ctx         context.Context
	cancel      context.CancelFunc
}

func New(parent context.Context, log *zap.Logger, rt realtime.Broadcaster, dict *dictionary.Dictionary) *Service {
	ctx, cancel := context.WithCancel(parent)
	s := &Service{
		inbox:       make(chan Msg, 64),
		log:         log.Named("service"),
		rt:          rt,
		dict:        dict,
		lobbies:     make(map[string]*lobby.Lobby),
		private:     make(map[string]*lobby.Lobby),
		sockets:     make(map[string]*game.Player),
		games:       make(map[string]*game.Game),
		gameLobbies: make(map[string]*lobby.Lobby),
		ctx:         ctx,
		cancel:      cancel,
	}
	s.open = s.newLobby()
	go s.loop()
	return s
}

func (s *Service) Inbox() chan<- Msg { return s.inbox }

func (s *Service) newLobby() *lobby.Lobby {
	l := lobby.New(s.log, s.rt, s.dict, hooks{s})
	s.lobbies[l.ID()] = l
	return l
}

// refillOrCreate promotes a queued lobby to be the open one, or creates a
// fresh lobby when the queue is empty.
func (s *Service) refillOrCreate() {
	if len(s.refillQueue) > 0 {
		s.open = s.refillQueue[0]
		s.refillQueue = s.refillQueue[1:]
		return
	}
	s.open = s.newLobby()
}

func (s *Service) loop() {
	for {
		select {
		case <-s.ctx.Done():
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case JoinLobby:
				msg.Reply <- s.joinLobby(msg.Name, msg.Password)

			case IdentifyConn:
				msg.Reply <- s.identify(msg.ConnID, msg.Name, msg.LobbyID)

			case GameConnect:
				msg.Reply <- s.gameConnect(msg.ConnID, msg.GameID, msg.Name)

			case ConfigureLobby:
				if p, l, ok := s.route(msg.ConnID); ok {
					l.Configure(p.Name, msg.Settings)
				}

			case VoteStart:
				if p, l, ok := s.route(msg.ConnID); ok {
					if l.VoteStart(p.Name) {
						l.StartGame(p.Name)
					}
				}

			case Flip:
				p, l, ok := s.route(msg.ConnID)
				if !ok || l.Game() == nil {
					s.rt.ToConn(msg.ConnID, types.Disconnected())
					break
				}
				l.Game().HandleFlip(msg.ConnID, p.Name, msg.CardID)

			case Refresh:
				if _, l, ok := s.route(msg.ConnID); ok && l.Game() != nil {
					l.Game().HandleRefresh(msg.ConnID)
				}

			case DisconnectConn:
				s.disconnect(msg.ConnID)

			case RoomFor:
				room := ""
				if _, l, ok := s.route(msg.ConnID); ok {
					room = l.ID()
				}
				msg.Reply <- room

			case LookupGame:
				msg.Reply <- s.games[msg.GameID]

			case lobbyStarted:
				s.registerStartedGame(msg.l)
				close(msg.done)

			case gameEnded:
				delete(s.games, msg.g.ID())
				delete(s.gameLobbies, msg.g.ID())
				s.endLobby(msg.l)

			case Shutdown:
				s.cancel()
				return
			}
		}
	}
}

func (s *Service) joinLobby(name, password string) JoinResult {
	if password != "" {
		// Private lobbies are get-or-create by password and never rotated by
		// the public queue.
		l, ok := s.private[password]
		if !ok {
			l = s.newLobby()
			l.SetPassword(password)
			s.private[password] = l
		}
		p, err := l.AddPlayer(name, true)
		return JoinResult{Lobby: l, Player: p, Err: err}
	}

	p, err := s.open.AddPlayer(name, true)
	if errors.Is(err, game.ErrLobbyFull) {
		s.refillOrCreate()
		p, err = s.open.AddPlayer(name, true)
	}
	return JoinResult{Lobby: s.open, Player: p, Err: err}
}

func (s *Service) identify(connID, name, lobbyID string) error {
	l := s.open
	if lobbyID != "" {
		var ok bool
		if l, ok = s.lobbies[lobbyID]; !ok {
			s.rt.ToConn(connID, types.Disconnected())
			return fmt.Errorf("identify %q: %w", lobbyID, game.ErrSessionNotFound)
		}
	}
	p, ok := l.Player(name)
	if !ok {
		s.rt.ToConn(connID, types.Disconnected())
		return fmt.Errorf("identify %q: %w", name, game.ErrSessionNotFound)
	}

	s.bindSocket(connID, p)
	s.rt.Join(connID, l.ID())
	s.rt.ToRoom(l.ID(), types.ConnectAlert(
		fmt.Sprintf("%s has joined the lobby.", name), l.PlayerTeamColors()))
	s.log.Info("connection identified",
		zap.String("conn", connID), zap.String("name", name), zap.String("lobby_id", l.ID()))
	return nil
}

func (s *Service) gameConnect(connID, gameID, name string) error {
	g, ok := s.games[gameID]
	l := s.gameLobbies[gameID]
	if !ok || l == nil {
		s.rt.ToConn(connID, types.Disconnected())
		return fmt.Errorf("game connect %q: %w", gameID, game.ErrSessionNotFound)
	}

	p, ok := l.Player(name)
	if !ok {
		var err error
		// Reconnecting player: restore the roster entry and reconcile the
		// team reference against surviving team membership.
		p, err = l.AddPlayer(name, false)
		if err != nil {
			s.rt.ToConn(connID, types.Disconnected())
			return err
		}
		l.Settings().RefreshPlayerTeam(p)
	}

	s.rt.Join(connID, g.ID())
	if !g.Settings().FFA && p.Team != nil {
		channel := g.TeamChannelName(p.Team.Code)
		g.RegisterTeamChannel(channel)
		s.rt.Join(connID, channel)
	}

	s.bindSocket(connID, p)
	l.UpdatePlayerConnection(name, true)
	s.rt.ToRoom(g.ID(), types.ConnectAlert(fmt.Sprintf("%s joined the game.", name), nil))
	s.log.Info("connection joined game",
		zap.String("conn", connID), zap.String("name", name), zap.String("game_id", gameID))
	return nil
}

// bindSocket points the routing table at the player, displacing any stale
// connection recorded under the same name.
func (s *Service) bindSocket(connID string, p *game.Player) {
	if p.ConnID != "" {
		delete(s.sockets, p.ConnID)
	}
	p.ConnID = connID
	s.sockets[connID] = p
}

func (s *Service) route(connID string) (*game.Player, *lobby.Lobby, bool) {
	p, ok := s.sockets[connID]
	if !ok {
		return nil, nil, false
	}
	l, ok := s.lobbies[p.LobbyID]
	if !ok {
		return nil, nil, false
	}
	return p, l, true
}

func (s *Service) disconnect(connID string) {
	p, l, ok := s.route(connID)
	if !ok {
		s.log.Warn("player not found for disconnected socket", zap.String("conn", connID))
		delete(s.sockets, connID)
		return
	}
	delete(s.sockets, connID)
	p.ConnID = ""

	// A full lobby that loses a member becomes eligible to be promoted back
	// to the open slot. Lobbies whose game is underway stay out of the queue;
	// new joiners must never land mid-game.
	if l.Len() == lobby.MaxPlayers && l != s.open && l.Password() == "" && l.Game() == nil {
		s.refillQueue = append(s.refillQueue, l)
	}

	if err := l.RemovePlayer(p.Name); err != nil {
		s.log.Warn("removing disconnected player", zap.Error(err))
	}
	s.rt.ToRoom(l.ID(), types.ConnectAlert(
		fmt.Sprintf("%s has left the lobby.", p.Name), l.PlayerTeamColors()))

	if g := l.Game(); g != nil && g.HasConnection(p.Name) {
		g.UpdatePlayerConnection(p.Name, false)
	}

	if l.Len() == 0 && l != s.open && l.Game() == nil {
		s.endLobby(l)
	}
}

// registerStartedGame makes the new game discoverable by its own id, rotates
// the lobby out of the public queue, and releases any private-password
// binding.
func (s *Service) registerStartedGame(l *lobby.Lobby) {
	g := l.Game()
	if g == nil {
		return
	}
	s.games[g.ID()] = g
	s.gameLobbies[g.ID()] = l
	if s.open == l {
		s.refillOrCreate()
	}
	if pw := l.Password(); pw != "" {
		delete(s.private, pw)
	}
	s.log.Info("game registered", zap.String("game_id", g.ID()), zap.String("lobby_id", l.ID()))
}

// endLobby removes every player, detaches any game registration, and drops
// the lobby from the tracker. Per-player removal errors are logged, not
// fatal.
func (s *Service) endLobby(l *lobby.Lobby) {
	for _, name := range l.PlayerNames() {
		if err := l.RemovePlayer(name); err != nil {
			s.log.Error("ending lobby", zap.String("lobby_id", l.ID()), zap.Error(err))
		}
	}
	for connID, p := range s.sockets {
		if p.LobbyID == l.ID() {
			delete(s.sockets, connID)
		}
	}
	for i, queued := range s.refillQueue {
		if queued == l {
			s.refillQueue = append(s.refillQueue[:i], s.refillQueue[i+1:]...)
			break
		}
	}
	if pw := l.Password(); pw != "" {
		delete(s.private, pw)
	}
	delete(s.lobbies, l.ID())
	if s.open == l {
		s.refillOrCreate()
	}
	s.log.Info("lobby ended", zap.String("lobby_id", l.ID()))
}

// hooks routes lobby lifecycle callbacks back through the inbox so registry
// mutation stays on the actor goroutine. GameStarted blocks until the game
// is discoverable, because the redirect that follows races clients straight
// to it.
type hooks struct{ s *Service }

func (h hooks) GameStarted(l *lobby.Lobby) {
	done := make(chan struct{})
	h.s.inbox <- lobbyStarted{l: l, done: done}
	<-done
}

func (h hooks) GameEnded(l *lobby.Lobby, g *game.Game) {
	go func() {
		h.s.inbox <- gameEnded{l: l, g: g}
	}()
}
