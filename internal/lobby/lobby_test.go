package lobby

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/dictionary"
	"github.com/loyeleye/multiplayer-yoruba/internal/game"
	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

type capture struct {
	mu   sync.Mutex
	msgs []types.ServerMessage
}

func (c *capture) Join(connID, room string)  {}
func (c *capture) Leave(connID, room string) {}

func (c *capture) ToRoom(room string, msg types.ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *capture) ToRoomExcept(room, except string, msg types.ServerMessage) {
	c.ToRoom(room, msg)
}

func (c *capture) ToConn(connID string, msg types.ServerMessage) {
	c.ToRoom("", msg)
}

func (c *capture) last(pred func(types.ServerMessage) bool) (types.ServerMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if pred(c.msgs[i]) {
			return c.msgs[i], true
		}
	}
	return types.ServerMessage{}, false
}

type hookRecorder struct {
	started chan *Lobby
	ended   chan *Lobby
}

func newHookRecorder() *hookRecorder {
	return &hookRecorder{started: make(chan *Lobby, 1), ended: make(chan *Lobby, 1)}
}

func (h *hookRecorder) GameStarted(l *Lobby)             { h.started <- l }
func (h *hookRecorder) GameEnded(l *Lobby, g *game.Game) { h.ended <- l }

func testDict(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	fsys := fstest.MapFS{
		"animals.txt": &fstest.MapFile{Data: []byte(
			"Animals\n" +
				"dog,aj[-a+]\n" +
				"fish,[.e]ja\n" +
				"bird,[.e]y[.e]\n" +
				"elephant,erin\n" +
				"rat,eku\n" +
				"snake,ej[-o-]\n" +
				"cow,m[-a-][-a+]l[-u-]\n" +
				"goat,ew[-u+]r[.e+]\n" +
				"horse,[.e][.s]in\n" +
				"monkey,[.o-]b[.o]\n")},
		"numbers.txt": &fstest.MapFile{Data: []byte(
			"Numbers\n" +
				"one,[.o-]kan\n" +
				"two,[-e-]j[-i-]\n" +
				"three,[.e-]ta\n")},
	}
	dict, err := dictionary.Load(fsys)
	if err != nil {
		t.Fatalf("loading test dictionary: %v", err)
	}
	return dict
}

func newTestLobby(t *testing.T, hooks Hooks) (*Lobby, *capture) {
	t.Helper()
	rt := &capture{}
	return New(zap.NewNop(), rt, testDict(t), hooks), rt
}

func TestAddPlayerBalancesTeams(t *testing.T) {
	l, _ := newTestLobby(t, nil)

	for i, name := range []string{"amara", "bola", "chidi", "dayo"} {
		p, err := l.AddPlayer(name, true)
		if err != nil {
			t.Fatalf("adding player %d: %v", i, err)
		}
		if p.Team == nil {
			t.Fatalf("player %s joined without a team", name)
		}
	}

	teams := l.Settings().Teams
	if teams[0].Len() != 2 || teams[1].Len() != 2 {
		t.Fatalf("team sizes = %d/%d, want 2/2", teams[0].Len(), teams[1].Len())
	}
}

func TestAddPlayerRejections(t *testing.T) {
	l, _ := newTestLobby(t, nil)

	if _, err := l.AddPlayer("two words", true); !errors.Is(err, game.ErrInvalidName) {
		t.Errorf("whitespace name error = %v, want ErrInvalidName", err)
	}

	if _, err := l.AddPlayer("amara", true); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := l.AddPlayer("amara", true); !errors.Is(err, game.ErrNameCollision) {
		t.Errorf("duplicate name error = %v, want ErrNameCollision", err)
	}

	for i := 1; i < MaxPlayers; i++ {
		if _, err := l.AddPlayer(fmt.Sprintf("player%d", i), true); err != nil {
			t.Fatalf("filling lobby at %d: %v", i, err)
		}
	}
	if _, err := l.AddPlayer("overflow", true); !errors.Is(err, game.ErrLobbyFull) {
		t.Errorf("overflow error = %v, want ErrLobbyFull", err)
	}
}

func TestRemovePlayerKeepsJoinOrder(t *testing.T) {
	l, _ := newTestLobby(t, nil)
	for _, name := range []string{"amara", "bola", "chidi"} {
		if _, err := l.AddPlayer(name, true); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	if err := l.RemovePlayer("bola"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := l.RemovePlayer("bola"); !errors.Is(err, game.ErrSessionNotFound) {
		t.Errorf("second remove error = %v, want ErrSessionNotFound", err)
	}

	names := l.PlayerNames()
	if len(names) != 2 || names[0] != "amara" || names[1] != "chidi" {
		t.Fatalf("roster = %v, want [amara chidi]", names)
	}
}

func TestVoteStartIsIdempotent(t *testing.T) {
	l, _ := newTestLobby(t, nil)
	l.AddPlayer("amara", true)
	l.AddPlayer("bola", true)

	if !l.VoteStart("amara") {
		t.Fatalf("first vote rejected")
	}
	if l.VoteStart("amara") {
		t.Fatalf("repeat vote accepted")
	}
	if got := l.VoteFraction(); got != 0.5 {
		t.Fatalf("vote fraction = %v, want 0.5", got)
	}
}

func TestPlayerColorsFollowJoinOrderInFFA(t *testing.T) {
	l, _ := newTestLobby(t, nil)
	names := []string{"amara", "bola", "chidi"}
	for _, name := range names {
		l.AddPlayer(name, true)
	}

	colors := l.PlayerColors(true)
	for i, pc := range colors {
		if pc.Name != names[i] {
			t.Errorf("color slot %d = %s, want %s", i, pc.Name, names[i])
		}
		if pc.Code != i+1 {
			t.Errorf("%s got code %d, want %d", pc.Name, pc.Code, i+1)
		}
	}
}

func TestConfigureSetMode(t *testing.T) {
	l, rt := newTestLobby(t, nil)
	l.AddPlayer("amara", true)

	l.Configure("amara", []string{"set", "mode", "losers"})
	if got := l.Settings().Mode; got != game.ModeLosers {
		t.Fatalf("mode = %v, want losers", got)
	}
	msg, ok := rt.last(func(m types.ServerMessage) bool { return m.Type == types.EvtConfigAlert })
	if !ok || msg.Config.Mode != "Loser's Choice" {
		t.Fatalf("config alert = %+v, want Loser's Choice", msg.Config)
	}

	l.Configure("amara", []string{"set", "mode", "speedrun"})
	if got := l.Settings().Mode; got != game.ModeLosers {
		t.Fatalf("unknown mode was applied: %v", got)
	}
}

func TestConfigureSetSizeRejectsOddAndOutOfRange(t *testing.T) {
	l, _ := newTestLobby(t, nil)
	l.AddPlayer("amara", true)

	for _, bad := range []string{"7", "0", "18", "x"} {
		l.Configure("amara", []string{"set", "size", bad})
		if got := l.Settings().Size; got != 8 {
			t.Fatalf("size after %q = %d, want unchanged 8", bad, got)
		}
	}
	l.Configure("amara", []string{"set", "size", "4"})
	if got := l.Settings().Size; got != 4 {
		t.Fatalf("size = %d, want 4", got)
	}
}

func TestConfigureThemeChips(t *testing.T) {
	l, rt := newTestLobby(t, nil)
	l.AddPlayer("amara", true)

	l.Configure("amara", []string{"change", "theme", "delete", "Animals"})
	if l.Settings().HasCategory("Animals") {
		t.Fatalf("theme not removed")
	}
	msg, ok := rt.last(func(m types.ServerMessage) bool { return m.Type == types.EvtUpdateChips })
	if !ok || msg.Chip.Action != "delete" || msg.Chip.Theme != "Animals" {
		t.Fatalf("chip update = %+v", msg.Chip)
	}

	l.Configure("amara", []string{"change", "theme", "add", " Animals "})
	if !l.Settings().HasCategory("Animals") {
		t.Fatalf("trimmed theme not re-added")
	}

	// An unknown theme falls through to the delete path, which only
	// broadcasts when the theme was actually selected. Nothing is added and
	// no chip goes out.
	l.Configure("amara", []string{"change", "theme", "add", "Verbs"})
	if l.Settings().HasCategory("Verbs") {
		t.Fatalf("unknown theme was added to the selection")
	}
	msg, ok = rt.last(func(m types.ServerMessage) bool { return m.Type == types.EvtUpdateChips })
	if !ok || msg.Chip.Theme == "Verbs" {
		t.Fatalf("chip update = %+v, want no broadcast for an unknown theme", msg.Chip)
	}
}

func TestConfigureChangeTeam(t *testing.T) {
	l, rt := newTestLobby(t, nil)
	p, _ := l.AddPlayer("amara", true)

	l.Configure("amara", []string{"set", "team", "teams"})
	if l.Settings().FFA {
		t.Fatalf("team mode not enabled")
	}

	l.Configure("amara", []string{"change", "team", "3"})
	if p.Team == nil || p.Team.Code != 3 {
		t.Fatalf("player team = %+v, want code 3", p.Team)
	}
	if _, ok := rt.last(func(m types.ServerMessage) bool { return m.Type == types.EvtUpdateLobby }); !ok {
		t.Fatalf("no lobby list update broadcast")
	}

	l.Configure("amara", []string{"change", "team", "9"})
	if p.Team.Code != 3 {
		t.Fatalf("out-of-range team change was applied")
	}
}

func TestStartGameFiresHooksAndRedirect(t *testing.T) {
	hooks := newHookRecorder()
	l, rt := newTestLobby(t, hooks)
	l.AddPlayer("amara", true)
	l.AddPlayer("bola", true)
	l.Settings().Size = 4

	l.VoteStart("amara")
	l.VoteStart("bola")
	l.StartGame("amara")

	// Unanimous vote skips the countdown entirely.
	select {
	case started := <-hooks.started:
		if started != l {
			t.Fatalf("hook fired for wrong lobby")
		}
	case <-time.After(time.Second):
		t.Fatalf("game never started")
	}

	g := l.Game()
	if g == nil || !g.Started() {
		t.Fatalf("lobby has no started game")
	}
	msg, ok := rt.last(func(m types.ServerMessage) bool { return m.Type == types.EvtGotoGame })
	if !ok || msg.GameID != g.ID() {
		t.Fatalf("redirect = %+v, want game id %s", msg, g.ID())
	}
}
