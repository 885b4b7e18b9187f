package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/chatbot"
	"github.com/loyeleye/multiplayer-yoruba/internal/realtime"
	"github.com/loyeleye/multiplayer-yoruba/internal/service"
	"github.com/loyeleye/multiplayer-yoruba/internal/ws"
)

func SetupRoutes(log *zap.Logger, hub *realtime.Hub, svc *service.Service, bot *chatbot.Bot, publicURL string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/lobby", JoinLobby(log, svc))
	r.Post("/game", EnterGame(log, svc))
	r.Get("/lobbies/{lobbyID}/qr", LobbyQR(log, publicURL))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(log, hub, svc, bot))
	return r
}
