package types

// ClientMessage is the closed set of inbound events. Type selects the
// variant; dispatchers must reject unknown tags.
type ClientMessage struct {
	Type     string   `json:"type"`
	Name     string   `json:"name,omitempty"`
	LobbyID  string   `json:"lobby_id,omitempty"`
	GameID   string   `json:"game_id,omitempty"`
	CardID   string   `json:"card_id,omitempty"`
	Text     string   `json:"text,omitempty"`
	Settings []string `json:"settings,omitempty"` // lobby-config subcommand path, e.g. ["set","mode","frenzy"]
}

// Inbound event tags.
const (
	EvtResponseConnect = "response-connect"
	EvtGameConnect     = "game-connect"
	EvtChat            = "chat"
	EvtChatBot         = "chat-bot"
	EvtLobbyConfig     = "lobby-config"
	EvtStartGame       = "start-game"
	EvtRequestFlip     = "request-flip"
	EvtRequestRefresh  = "request-refresh"
)

// Outbound event tags.
const (
	EvtRequestConnect = "request-connect"
	EvtConnectAlert   = "connect-alert"
	EvtChatAlert      = "chat-alert"
	EvtToastAlert     = "toast-alert"
	EvtConfigAlert    = "config-alert"
	EvtUpdateLobby    = "update-lobbylist"
	EvtUpdateChips    = "update-chips"
	EvtGotoGame       = "goto-game"
	EvtResponseFlip   = "response-flip"
	EvtResponseMatch  = "response-match"
	EvtResponseUnflip = "response-unflip"
	EvtRefreshList    = "refresh-list"
	EvtRefreshGrid    = "refresh-grid"
	EvtNextTurn       = "next-turn"
	EvtResponseWin    = "response-win"
	EvtDisconnect     = "dc"
	EvtError          = "error"
)

// Color is the display triple carried by every roster/score payload: a
// human-readable name plus the materialize card and text CSS classes the
// client styles with.
type Color struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Text  string `json:"text"`
}

// TurnRecord is one slot in a game's turn order.
type TurnRecord struct {
	Player    string `json:"player"`
	Connected bool   `json:"connected"`
	Color     Color  `json:"color"`
}

// ScoreEntry is one row of a rank-ordered score display. Exactly one of
// Player or Team is set depending on whether the game is free-for-all.
type ScoreEntry struct {
	Player string `json:"player,omitempty"`
	Team   int    `json:"team,omitempty"`
	Score  int    `json:"score"`
	Color  Color  `json:"color"`
}

// FlipResult is the resolution of a single card flip. ID2 is empty while a
// first pick is awaiting its partner.
type FlipResult struct {
	ID             string `json:"id"`
	ID2            string `json:"id2,omitempty"`
	Player         string `json:"player"`
	IsActivePlayer bool   `json:"isActivePlayer"`
	Word           string `json:"word"`
	Color          string `json:"color"`
	Team           string `json:"team"`
	Match          bool   `json:"match"`
	Points         int    `json:"points"`
	EnglishMeaning string `json:"englishMeaning,omitempty"`
	FrenzyEnabled  bool   `json:"frenzyEnabled"`
}

// Winners is the set of players (or team codes) tied at the maximum score.
type Winners struct {
	Team  []string `json:"team"`
	Score int      `json:"score"`
}

// WinPayload is broadcast once the grid is fully matched.
type WinPayload struct {
	FFA      bool         `json:"ffa"`
	Winners  Winners      `json:"winners"`
	Rankings []ScoreEntry `json:"rankings"`
}

// ConfigAlert mirrors a lobby setting change back to the room together with
// a human-readable description.
type ConfigAlert struct {
	Set     string           `json:"set"`
	Mode    string           `json:"mode,omitempty"`
	FFA     bool             `json:"ffa,omitempty"`
	Title   string           `json:"title,omitempty"`
	Size    string           `json:"size,omitempty"`
	Themes  []string         `json:"themes,omitempty"`
	Players map[string]Color `json:"players,omitempty"`
	Message string           `json:"message,omitempty"`
	Alert   string           `json:"alert,omitempty"`
}

// ChipUpdate reflects a single theme chip being added or removed.
type ChipUpdate struct {
	Action string `json:"action"`
	Theme  string `json:"theme"`
}

// ServerMessage is the closed set of outbound events. Type selects the
// variant; only the fields of that variant are populated.
type ServerMessage struct {
	Type    string           `json:"type"`
	Alert   string           `json:"alert,omitempty"`
	Text    string           `json:"text,omitempty"`
	Classes string           `json:"classes,omitempty"`
	Sender  string           `json:"sender,omitempty"`
	GameID  string           `json:"game_id,omitempty"`
	Players map[string]Color `json:"players,omitempty"`
	Flip    *FlipResult      `json:"flip,omitempty"`
	Scores  []ScoreEntry     `json:"scorelist,omitempty"`
	Turns   []TurnRecord     `json:"turnslist,omitempty"`
	Teams   []ScoreEntry     `json:"teamslist,omitempty"`
	Grid    [][]bool         `json:"grid,omitempty"`
	Turn    *TurnRecord      `json:"turn,omitempty"`
	Win     *WinPayload      `json:"win,omitempty"`
	Config  *ConfigAlert     `json:"config,omitempty"`
	Chip    *ChipUpdate      `json:"chip,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func ChatAlert(msg string) ServerMessage {
	return ServerMessage{Type: EvtChatAlert, Alert: msg}
}

func ToastAlert(text, classes string) ServerMessage {
	return ServerMessage{Type: EvtToastAlert, Text: text, Classes: classes}
}

func ConnectAlert(alert string, players map[string]Color) ServerMessage {
	return ServerMessage{Type: EvtConnectAlert, Alert: alert, Players: players}
}

func GotoGame(gameID string) ServerMessage {
	return ServerMessage{Type: EvtGotoGame, GameID: gameID}
}

func Disconnected() ServerMessage {
	return ServerMessage{Type: EvtDisconnect}
}
