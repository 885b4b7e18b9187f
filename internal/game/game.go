// Package game holds the authoritative per-game state machine: board and
// match grid, turn order, per-mode flip resolution, scoring, connection
// tracking, and win detection.
package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mathrand "math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/dictionary"
	"github.com/loyeleye/multiplayer-yoruba/internal/realtime"
	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

// PointsPerMatch is scored for every successful pair.
const PointsPerMatch = 10

// PlayerColor pairs a player name with their palette code, in join order.
type PlayerColor struct {
	Name string
	Code int
}

// Roster is the lobby surface the game reads its players from.
type Roster interface {
	ID() string
	PlayerNames() []string
	// PlayerColors returns every player's color code in join order. In
	// free-for-all each player gets a distinct code; in team mode it is the
	// player's team code.
	PlayerColors(ffa bool) []PlayerColor
	TeamOf(name string) (*Team, bool)
}

// Hooks notifies the session directory of lifecycle transitions.
type Hooks interface {
	// GameStarted fires exactly once, after the board is loaded.
	GameStarted(g *Game)
	// GameEnded fires exactly once, after the room has been told to leave.
	GameEnded(g *Game)
}

// NewSessionID returns a random id for lobbies and games.
func NewSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// Game runs forming -> counting-down -> active -> ended. All mutation happens
// under mu; disableFlip additionally gates the turn-based flip critical
// section across the broadcast/advance suspension points.
type Game struct {
	mu       sync.Mutex
	id       string
	log      *zap.Logger
	rt       realtime.Broadcaster
	dict     *dictionary.Dictionary
	roster   Roster
	settings *Settings
	hooks    Hooks

	words            []string
	matchGrid        [][]bool
	order            []types.TurnRecord
	turn             int
	colors           map[string]types.Color
	codes            map[string]int
	flipped          map[string]string
	scores           map[string]int
	teamScores       map[int]int
	scoreDisplay     []types.ScoreEntry
	teamScoreDisplay []types.ScoreEntry
	connections      map[string]bool
	teamChannels     map[string]struct{}
	tutorialGloss    map[string]string

	started          bool
	ended            bool
	countdownToStart int
	disableFlip      bool
	losersStreak     bool

	tick      time.Duration
	turnDelay time.Duration
	winDelay  time.Duration
}

func New(log *zap.Logger, rt realtime.Broadcaster, dict *dictionary.Dictionary, roster Roster, settings *Settings, hooks Hooks) *Game {
	id := NewSessionID()
	return &Game{
		id:               id,
		log:              log.Named("game").With(zap.String("game_id", id)),
		rt:               rt,
		dict:             dict,
		roster:           roster,
		settings:         settings,
		hooks:            hooks,
		connections:      make(map[string]bool),
		teamChannels:     make(map[string]struct{}),
		countdownToStart: 1337,
		tick:             10 * time.Second,
		turnDelay:        2 * time.Second,
		winDelay:         10 * time.Second,
	}
}

func (g *Game) ID() string { return g.id }

func (g *Game) Settings() *Settings { return g.settings }

func (g *Game) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

func (g *Game) Ended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ended
}

// TeamChannelName is the broadcast room for one team inside this game.
func (g *Game) TeamChannelName(code int) string {
	return g.id + "_" + strconv.Itoa(code)
}

// RegisterTeamChannel records a team room so stealth visibility can fan out
// per team.
func (g *Game) RegisterTeamChannel(channel string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teamChannels[channel] = struct{}{}
}

// countdownTicksFor maps the start-vote fraction to a number of countdown
// ticks. More votes, faster start.
func countdownTicksFor(votePercentage float64) int {
	switch {
	case votePercentage > 0.99:
		return 0
	case votePercentage > 0.74:
		return 1
	case votePercentage > 0.49:
		return 2
	case votePercentage > 0.24:
		return 4
	case votePercentage > 0.01:
		return 6
	default:
		return 4
	}
}

// Countdown announces the remaining time each tick and then starts the game.
// A countdown already running can only be superseded by a faster one: each
// tick aborts if a lower count has been installed or the game has started.
func (g *Game) Countdown(votePercentage float64) {
	for c := countdownTicksFor(votePercentage); c > 0; c-- {
		g.mu.Lock()
		if c >= g.countdownToStart || g.started {
			g.mu.Unlock()
			return
		}
		g.countdownToStart = c
		tick := g.tick
		g.alertLocked(fmt.Sprintf("Game starting in %d seconds...", c*int(tick.Seconds())))
		g.mu.Unlock()
		time.Sleep(tick)
	}
	if err := g.Start(); err != nil {
		g.mu.Lock()
		g.alertLocked("Game failed to start!")
		g.mu.Unlock()
		g.log.Error("start failed", zap.Error(err))
	}
}

// Start loads the board, teams, scores, and grid exactly once and activates
// the game. Idempotent against re-entry from overlapping countdowns.
func (g *Game) Start() error {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return nil
	}
	g.alertLocked("Starting game...")
	g.loadColorsLocked()
	g.loadOrderLocked()
	if err := g.loadWordsLocked(); err != nil {
		g.mu.Unlock()
		return err
	}
	g.loadScoresLocked()
	g.loadMatchGridLocked()
	g.disableFlip = false
	g.started = true
	g.mu.Unlock()

	if g.hooks != nil {
		g.hooks.GameStarted(g)
	}
	return nil
}

func (g *Game) loadColorsLocked() {
	g.colors = make(map[string]types.Color)
	g.codes = make(map[string]int)
	for _, pc := range g.roster.PlayerColors(g.settings.FFA) {
		g.colors[pc.Name] = Palette[pc.Code]
		g.codes[pc.Name] = pc.Code
	}
}

func (g *Game) loadOrderLocked() {
	g.flipped = make(map[string]string)
	g.order = nil
	for _, pc := range g.roster.PlayerColors(g.settings.FFA) {
		if g.settings.Mode != ModeFrenzy {
			g.order = append(g.order, types.TurnRecord{
				Player:    pc.Name,
				Connected: true,
				Color:     Palette[pc.Code],
			})
		}
		g.flipped[pc.Name] = ""
	}
	g.flipped[loserSlot] = ""
	for i := range g.order {
		j := mathrand.Intn(len(g.order))
		g.order[i], g.order[j] = g.order[j], g.order[i]
	}
	g.turn = 0
}

func (g *Game) loadWordsLocked() error {
	if len(g.words) > 0 {
		return nil
	}

	var pool []dictionary.Pair
	for _, c := range g.settings.Categories {
		pool = append(pool, g.dict.WordsOf(c)...)
	}
	numWords := g.settings.Size * g.settings.Size
	if numWords > 2*len(pool) {
		return fmt.Errorf("%w: board needs %d words, categories %v hold %d pairs",
			ErrNotEnoughWords, numWords, g.settings.Categories, len(pool))
	}

	if g.settings.Mode == ModeTutorial {
		g.tutorialGloss = make(map[string]string)
	}

	words := make([]string, 0, numWords)
	for k := 0; k < numWords/2; k++ {
		i := mathrand.Intn(len(pool))
		pair := pool[i]
		pool = append(pool[:i], pool[i+1:]...)
		if g.tutorialGloss != nil {
			g.tutorialGloss[pair.Yoruba] = pair.English
		}
		words = append(words, pair.English, pair.Yoruba)
	}
	for i := range words {
		j := mathrand.Intn(len(words))
		words[i], words[j] = words[j], words[i]
	}
	g.words = words
	return nil
}

func (g *Game) loadScoresLocked() {
	g.teamScoreDisplay = nil
	if !g.settings.FFA {
		g.teamScores = make(map[int]int)
		for _, team := range g.settings.Teams {
			if team.Len() > 0 {
				g.teamScores[team.Code] = 0
				g.teamScoreDisplay = append(g.teamScoreDisplay, types.ScoreEntry{
					Team:  team.Code,
					Color: team.Color(),
				})
			}
		}
	}
	g.scores = make(map[string]int)
	g.scoreDisplay = nil
	for _, name := range g.roster.PlayerNames() {
		g.scores[name] = 0
		g.scoreDisplay = append(g.scoreDisplay, types.ScoreEntry{
			Player: name,
			Color:  g.colors[name],
		})
	}
}

func (g *Game) loadMatchGridLocked() {
	size := g.settings.Size
	g.matchGrid = make([][]bool, size)
	for i := range g.matchGrid {
		g.matchGrid[i] = make([]bool, size)
	}
}

// addScoreLocked updates the player's running score and, in team mode, their
// team aggregate; both rank-ordered displays are maintained. Callers hold
// g.mu.
func (g *Game) addScoreLocked(player string, delta int) {
	g.scores[player] += delta
	score := g.scores[player]
	g.scoreDisplay = updateScoreEntry(g.scoreDisplay,
		func(e types.ScoreEntry) bool { return e.Player == player }, score)

	if !g.settings.FFA {
		code := g.codes[player]
		g.teamScores[code] += delta
		g.teamScoreDisplay = updateScoreEntry(g.teamScoreDisplay,
			func(e types.ScoreEntry) bool { return e.Team == code }, g.teamScores[code])
	}
}

// ActiveTurn returns the current turn's record, skipping disconnected slots.
func (g *Game) ActiveTurn() types.TurnRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeLocked()
}

// activeLocked scans cyclically from the current turn for a connected
// record. The disconnect handler guarantees at least one exists while the
// game runs, so the bounded scan always finds one.
func (g *Game) activeLocked() types.TurnRecord {
	for range g.order {
		rec := g.order[g.turn%len(g.order)]
		if rec.Connected {
			return rec
		}
		g.turn++
	}
	return g.order[g.turn%len(g.order)]
}

// displayTurnsLocked rotates a copy of the order so the active player comes
// first. Display only; the canonical order is untouched.
func (g *Game) displayTurnsLocked() []types.TurnRecord {
	if len(g.order) == 0 {
		return nil
	}
	idx := g.turn % len(g.order)
	out := make([]types.TurnRecord, 0, len(g.order))
	out = append(out, g.order[idx:]...)
	out = append(out, g.order[:idx]...)
	return out
}

func (g *Game) wordAtLocked(c CardID) string {
	return g.words[c.index(g.settings.Size)]
}

// updateMatchGridLocked resolves both cells. A move against an already
// resolved cell is a consistency violation.
func (g *Game) updateMatchGridLocked(a, b CardID) error {
	if g.matchGrid[a.Row][a.Col] || g.matchGrid[b.Row][b.Col] {
		return ErrAlreadyMatched
	}
	g.matchGrid[a.Row][a.Col] = true
	g.matchGrid[b.Row][b.Col] = true
	return nil
}

func (g *Game) gridAllMatchedLocked() bool {
	for _, row := range g.matchGrid {
		for _, cell := range row {
			if !cell {
				return false
			}
		}
	}
	return true
}

// resolveFlipLocked is the one flip algorithm shared by every mode. A first
// flip stores the card in the mode's slot and returns ID2 empty; a second
// flip compares cross-lookup translations both ways and clears the slot.
func (g *Game) resolveFlipLocked(rules flipRules, card CardID, player string) *types.FlipResult {
	key := rules.slotKey(player)
	other := g.flipped[key]
	word := g.wordAtLocked(card)
	match := false

	if other == "" {
		g.flipped[key] = card.String()
	} else {
		otherCard, _ := ParseCardID(other)
		match = g.dict.IsPair(word, g.wordAtLocked(otherCard))
		g.flipped[key] = ""
	}

	res := &types.FlipResult{
		ID:            card.String(),
		ID2:           other,
		Player:        player,
		Word:          word,
		Match:         match,
		Points:        PointsPerMatch,
		FrenzyEnabled: rules.frenzy(),
	}
	if rules.frenzy() {
		res.Color = g.colors[player].Class
		res.Team = g.colors[player].Name
	} else {
		active := g.activeLocked()
		res.Color = active.Color.Class
		res.Team = active.Color.Name
	}
	if eng, ok := g.tutorialGloss[word]; ok {
		res.EnglishMeaning = eng
	}
	return res
}

// HandleFlip resolves one request-flip event end to end: gating, slot
// resolution, visibility-aware broadcast, grid/score updates, streaks, turn
// advance, and win detection.
func (g *Game) HandleFlip(connID, player, rawCard string) {
	card, err := ParseCardID(rawCard)

	g.mu.Lock()
	if !g.started || g.ended {
		g.mu.Unlock()
		return
	}
	if err != nil || !card.inBounds(g.settings.Size) {
		g.log.Warn("ignoring malformed flip", zap.String("player", player), zap.String("card", rawCard))
		g.mu.Unlock()
		return
	}

	rules := rulesFor(g.settings.Mode)
	if rules.gated() {
		if g.disableFlip {
			g.mu.Unlock()
			return
		}
		if g.activeLocked().Player != player {
			g.mu.Unlock()
			return
		}
		g.disableFlip = true
	}

	res := g.resolveFlipLocked(rules, card, player)
	g.broadcastFlipLocked(connID, res)
	if res.EnglishMeaning != "" {
		g.toastLocked(fmt.Sprintf("%q: %q", res.Word, res.EnglishMeaning), "")
	}

	if res.ID2 == "" {
		// First pick: awaiting the second. In losers-choice the placed card
		// is a nomination for the next player, so the turn hands over unless
		// the placer is on a match streak.
		if g.settings.Mode == ModeLosers && !g.losersStreak {
			g.mu.Unlock()
			go g.endTurn(g.turnDelay)
			return
		}
		g.disableFlip = false
		g.mu.Unlock()
		return
	}

	if res.Match {
		a, _ := ParseCardID(res.ID)
		b, _ := ParseCardID(res.ID2)
		if err := g.updateMatchGridLocked(a, b); err != nil {
			// Hostile or buggy client: eject it rather than corrupt the grid.
			g.log.Warn("grid consistency violation, kicking connection",
				zap.String("player", player), zap.Error(err))
			g.rt.ToConn(connID, types.Disconnected())
			g.alertLocked(fmt.Sprintf("%s has been kicked from the game.", player))
		}
		g.sendResolutionLocked(types.EvtResponseMatch, connID, res)
		g.addScoreLocked(player, res.Points)
		if rules.gated() {
			g.disableFlip = false
		}
		if g.settings.Mode == ModeLosers {
			g.losersStreak = true
		}
		won := g.gridAllMatchedLocked()
		g.mu.Unlock()
		if won {
			g.winSequence()
		}
		return
	}

	// No match.
	g.sendResolutionLocked(types.EvtResponseUnflip, connID, res)
	if g.settings.Mode == ModeLosers {
		// The miss passes the picker role on without advancing the turn.
		g.disableFlip = false
		g.losersStreak = false
		g.mu.Unlock()
		return
	}
	if rules.gated() {
		g.mu.Unlock()
		go g.endTurn(g.turnDelay)
		return
	}
	g.mu.Unlock()
}

// broadcastFlipLocked sends the flip result to the room. Stealth mode
// replaces the word with a placeholder for everyone but the flipper and, in
// team play, their teammates.
func (g *Game) broadcastFlipLocked(connID string, res *types.FlipResult) {
	if g.settings.Mode == ModeStealth {
		g.broadcastStealthFlipLocked(connID, res)
		return
	}
	g.sendResolutionLocked(types.EvtResponseFlip, connID, res)
}

const hiddenWord = "???"

func (g *Game) broadcastStealthFlipLocked(connID string, res *types.FlipResult) {
	if g.settings.FFA {
		hidden := *res
		hidden.Word = hiddenWord
		g.rt.ToRoomExcept(g.id, connID, types.ServerMessage{Type: types.EvtResponseFlip, Flip: &hidden})
		mine := *res
		mine.IsActivePlayer = true
		g.rt.ToConn(connID, types.ServerMessage{Type: types.EvtResponseFlip, Flip: &mine})
		return
	}

	own := g.TeamChannelName(g.codes[res.Player])
	for channel := range g.teamChannels {
		if channel == own {
			mine := *res
			mine.IsActivePlayer = true
			g.rt.ToConn(connID, types.ServerMessage{Type: types.EvtResponseFlip, Flip: &mine})
			mates := *res
			g.rt.ToRoomExcept(channel, connID, types.ServerMessage{Type: types.EvtResponseFlip, Flip: &mates})
		} else {
			hidden := *res
			hidden.Word = hiddenWord
			g.rt.ToRoom(channel, types.ServerMessage{Type: types.EvtResponseFlip, Flip: &hidden})
		}
	}
}

// sendResolutionLocked fans an event out to the room, tagging the flipper's
// own copy with IsActivePlayer.
func (g *Game) sendResolutionLocked(event, connID string, res *types.FlipResult) {
	rest := *res
	g.rt.ToRoomExcept(g.id, connID, types.ServerMessage{Type: event, Flip: &rest})
	mine := *res
	mine.IsActivePlayer = true
	g.rt.ToConn(connID, types.ServerMessage{Type: event, Flip: &mine})
}

// endTurn clears the flip gate after the visible delay, advances the turn,
// and rebroadcasts the lists (and, outside losers-choice, the grid).
func (g *Game) endTurn(delay time.Duration) {
	time.Sleep(delay)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended {
		return
	}
	g.disableFlip = false
	g.turn++
	if len(g.order) > 1 {
		active := g.activeLocked()
		g.rt.ToRoom(g.id, types.ServerMessage{Type: types.EvtNextTurn, Turn: &active})
	}
	g.refreshListsLocked()
	if g.settings.Mode != ModeLosers {
		g.refreshGridLocked()
	}
}

// HasConnection reports whether the player has ever been tracked by this
// game. Guards disconnect handling for lobby members who never joined.
func (g *Game) HasConnection(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.connections[name]
	return ok
}

// UpdatePlayerConnection tracks a join or leave. When every tracked
// connection is gone the game ends; when the active player leaves the turn
// is forced forward so the game never waits on an absent player.
func (g *Game) UpdatePlayerConnection(name string, connected bool) {
	g.mu.Lock()
	if g.ended {
		g.mu.Unlock()
		return
	}
	g.connections[name] = connected

	idx := -1
	for i := range g.order {
		if g.order[i].Player == name {
			idx = i
			break
		}
	}
	wasActive := false
	if idx >= 0 && !connected {
		wasActive = g.activeLocked().Player == name
	}
	color := g.colors[name]
	if idx >= 0 {
		g.order[idx].Connected = connected
		color = g.order[idx].Color
	}

	if connected {
		g.alertLocked(name + " joined the game.")
		g.toastLocked(`<i class="material-icons left">check_circle</i>`+name+" joined the game.", "rounded "+color.Class)
		g.refreshListsLocked()
		g.refreshGridLocked()
		g.mu.Unlock()
		return
	}

	g.alertLocked(name + " left the game.")
	g.toastLocked(`<i class="material-icons left">cancel</i>`+name+" left the game.", "rounded "+color.Class)

	allDisconnected := true
	for _, up := range g.connections {
		if up {
			allDisconnected = false
			break
		}
	}
	if allDisconnected {
		g.mu.Unlock()
		g.EndGame()
		return
	}

	if wasActive {
		g.mu.Unlock()
		go g.endTurn(0)
		return
	}
	g.refreshListsLocked()
	g.refreshGridLocked()
	g.mu.Unlock()
}

// winSequence broadcasts the ranked result, waits out the display delay, and
// tears the game down.
func (g *Game) winSequence() {
	g.mu.Lock()
	payload := g.winPayloadLocked()
	delay := g.winDelay
	g.rt.ToRoom(g.id, types.ServerMessage{Type: types.EvtResponseWin, Win: payload})
	g.mu.Unlock()

	go func() {
		time.Sleep(delay)
		g.EndGame()
	}()
}

func (g *Game) winPayloadLocked() *types.WinPayload {
	winners := types.Winners{Score: -1}
	if g.settings.FFA {
		for player, score := range g.scores {
			switch {
			case score > winners.Score:
				winners.Score = score
				winners.Team = []string{player}
			case score == winners.Score:
				winners.Team = append(winners.Team, player)
			}
		}
	} else {
		for code, score := range g.teamScores {
			switch {
			case score > winners.Score:
				winners.Score = score
				winners.Team = []string{strconv.Itoa(code)}
			case score == winners.Score:
				winners.Team = append(winners.Team, strconv.Itoa(code))
			}
		}
	}

	rankings := g.scoreDisplay
	if !g.settings.FFA {
		rankings = g.teamScoreDisplay
	}
	return &types.WinPayload{
		FFA:      g.settings.FFA,
		Winners:  winners,
		Rankings: append([]types.ScoreEntry(nil), rankings...),
	}
}

// EndGame notifies the room, detaches from the lobby, and retires both from
// the registry via the hooks. Idempotent.
func (g *Game) EndGame() {
	g.mu.Lock()
	if g.ended {
		g.mu.Unlock()
		return
	}
	g.ended = true
	g.mu.Unlock()

	g.rt.ToRoom(g.id, types.Disconnected())
	if g.hooks != nil {
		g.hooks.GameEnded(g)
	}
	g.log.Info("game ended")
}

// HandleRefresh resends the current lists to a single connection.
func (g *Game) HandleRefresh(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rt.ToConn(connID, g.listMessageLocked())
}

// Snapshot is the read-only view handed to the HTTP entry endpoints.
type Snapshot struct {
	GameID    string
	Mode      Mode
	Size      int
	FFA       bool
	Started   bool
	Scores    []types.ScoreEntry
	Turns     []types.TurnRecord
	Teams     []types.ScoreEntry
	Grid      [][]bool
	FirstTurn *types.TurnRecord
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := Snapshot{
		GameID:  g.id,
		Mode:    g.settings.Mode,
		Size:    g.settings.Size,
		FFA:     g.settings.FFA,
		Started: g.started,
		Scores:  append([]types.ScoreEntry(nil), g.scoreDisplay...),
		Turns:   g.displayTurnsLocked(),
		Teams:   append([]types.ScoreEntry(nil), g.teamScoreDisplay...),
		Grid:    g.gridSnapshotLocked(),
	}
	if g.started && g.settings.Mode != ModeFrenzy && len(g.order) > 0 {
		first := g.activeLocked()
		snap.FirstTurn = &first
	}
	return snap
}

func (g *Game) listMessageLocked() types.ServerMessage {
	return types.ServerMessage{
		Type:   types.EvtRefreshList,
		Scores: append([]types.ScoreEntry(nil), g.scoreDisplay...),
		Turns:  g.displayTurnsLocked(),
		Teams:  append([]types.ScoreEntry(nil), g.teamScoreDisplay...),
	}
}

func (g *Game) refreshListsLocked() {
	g.rt.ToRoom(g.id, g.listMessageLocked())
}

func (g *Game) gridSnapshotLocked() [][]bool {
	grid := make([][]bool, len(g.matchGrid))
	for i, row := range g.matchGrid {
		grid[i] = append([]bool(nil), row...)
	}
	return grid
}

func (g *Game) refreshGridLocked() {
	g.rt.ToRoom(g.id, types.ServerMessage{Type: types.EvtRefreshGrid, Grid: g.gridSnapshotLocked()})
}

// alertLocked posts to the lobby room until the game starts, to the game
// room after.
func (g *Game) alertLocked(msg string) {
	room := g.roster.ID()
	if g.started {
		room = g.id
	}
	g.rt.ToRoom(room, types.ChatAlert(msg))
}

func (g *Game) toastLocked(text, classes string) {
	room := g.roster.ID()
	if g.started {
		room = g.id
	}
	g.rt.ToRoom(room, types.ToastAlert(text, classes))
}
