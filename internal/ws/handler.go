// Package ws bridges websocket connections onto the session directory: one
// reader loop per connection decoding client events, one writer goroutine
// draining the connection's hub outbox.
package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/chatbot"
	"github.com/loyeleye/multiplayer-yoruba/internal/realtime"
	"github.com/loyeleye/multiplayer-yoruba/internal/service"
	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

const writeTimeout = 3 * time.Second

func Handler(log *zap.Logger, hub *realtime.Hub, svc *service.Service, bot *chatbot.Bot) http.HandlerFunc {
	log = log.Named("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := randID(8)
		out := hub.Register(connID)
		defer func() {
			svc.Inbox() <- service.DisconnectConn{ConnID: connID}
			hub.Unregister(connID)
		}()

		// Writer goroutine. The outbox closes when the hub drops us, so a
		// slow or stale connection unwinds through conn.Close.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				werr := conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if werr != nil {
					return
				}
			}
			conn.Close(websocket.StatusGoingAway, "dropped")
		}()

		// A fresh connection must announce who it is.
		hub.ToConn(connID, types.ServerMessage{Type: types.EvtRequestConnect})

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				hub.ToConn(connID, types.ServerMessage{Type: types.EvtError, Error: "bad json"})
				continue
			}
			dispatch(r.Context(), log, hub, svc, bot, connID, cm)
		}
	}
}

func dispatch(ctx context.Context, log *zap.Logger, hub *realtime.Hub, svc *service.Service, bot *chatbot.Bot, connID string, cm types.ClientMessage) {
	switch cm.Type {
	case types.EvtResponseConnect:
		reply := make(chan error, 1)
		svc.Inbox() <- service.IdentifyConn{ConnID: connID, Name: cm.Name, LobbyID: cm.LobbyID, Reply: reply}
		if err := <-reply; err != nil {
			log.Warn("identify failed", zap.String("conn", connID), zap.Error(err))
		}

	case types.EvtGameConnect:
		reply := make(chan error, 1)
		svc.Inbox() <- service.GameConnect{ConnID: connID, GameID: cm.GameID, Name: cm.Name, Reply: reply}
		if err := <-reply; err != nil {
			log.Warn("game connect failed", zap.String("conn", connID), zap.Error(err))
		}

	case types.EvtChat:
		room := make(chan string, 1)
		svc.Inbox() <- service.RoomFor{ConnID: connID, Reply: room}
		if r := <-room; r != "" {
			hub.ToRoom(r, types.ServerMessage{Type: types.EvtChat, Sender: cm.Name, Text: cm.Text})
		}

	case types.EvtChatBot:
		room := make(chan string, 1)
		svc.Inbox() <- service.RoomFor{ConnID: connID, Reply: room}
		r := <-room
		if r == "" {
			return
		}
		// The fetch runs off the reader loop; a silent bot beats a stalled
		// connection.
		go func() {
			msg, err := bot.Message(ctx)
			if err != nil {
				return
			}
			hub.ToRoom(r, types.ServerMessage{Type: types.EvtChatBot, Text: msg})
		}()

	case types.EvtLobbyConfig:
		svc.Inbox() <- service.ConfigureLobby{ConnID: connID, Settings: cm.Settings}

	case types.EvtStartGame:
		svc.Inbox() <- service.VoteStart{ConnID: connID}

	case types.EvtRequestFlip:
		svc.Inbox() <- service.Flip{ConnID: connID, CardID: cm.CardID}

	case types.EvtRequestRefresh:
		svc.Inbox() <- service.Refresh{ConnID: connID}

	default:
		hub.ToConn(connID, types.ServerMessage{Type: types.EvtError, Error: "unknown type"})
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
