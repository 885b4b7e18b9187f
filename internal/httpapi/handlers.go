package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/game"
	"github.com/loyeleye/multiplayer-yoruba/internal/service"
)

type joinRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

type joinResponse struct {
	LobbyID string `json:"lobby_id"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	Private bool   `json:"private"`
}

// JoinLobby seats a named player in the open public lobby, or in the private
// lobby keyed by password when one is supplied.
func JoinLobby(log *zap.Logger, svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}

		reply := make(chan service.JoinResult, 1)
		svc.Inbox() <- service.JoinLobby{Name: req.Name, Password: req.Password, Reply: reply}
		res := <-reply
		if res.Err != nil {
			switch {
			case errors.Is(res.Err, game.ErrInvalidName):
				http.Error(w, res.Err.Error(), http.StatusBadRequest)
			case errors.Is(res.Err, game.ErrNameCollision):
				http.Error(w, "name already taken", http.StatusConflict)
			case errors.Is(res.Err, game.ErrLobbyFull):
				http.Error(w, "lobby is full", http.StatusServiceUnavailable)
			default:
				log.Error("joining lobby", zap.Error(res.Err))
				http.Error(w, "failed to join lobby", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(joinResponse{
			LobbyID: res.Lobby.ID(),
			Name:    res.Player.Name,
			Avatar:  res.Player.Avatar,
			Private: res.Lobby.Password() != "",
		})
	}
}

type gameEntryRequest struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
}

// EnterGame validates a game page load and returns the board snapshot the
// client renders before its websocket catches up. Unknown ids get a 404 so
// the client bounces back to the lobby entry page.
func EnterGame(log *zap.Logger, svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gameEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}

		reply := make(chan *game.Game, 1)
		svc.Inbox() <- service.LookupGame{GameID: req.GameID, Reply: reply}
		g := <-reply
		if g == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(g.Snapshot())
	}
}

// LobbyQR renders a PNG QR code pointing a phone at the lobby join page.
func LobbyQR(log *zap.Logger, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID := chi.URLParam(r, "lobbyID")
		joinURL := fmt.Sprintf("%s/?lobby=%s", publicURL, lobbyID)
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			log.Error("encoding lobby qr", zap.Error(err))
			http.Error(w, "failed to render qr code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
