package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/chatbot"
	"github.com/loyeleye/multiplayer-yoruba/internal/dictionary"
	"github.com/loyeleye/multiplayer-yoruba/internal/realtime"
	"github.com/loyeleye/multiplayer-yoruba/internal/service"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	fsys := fstest.MapFS{
		"animals.txt": &fstest.MapFile{Data: []byte("Animals\ndog,aj[-a+]\nfish,[.e]ja\n")},
	}
	dict, err := dictionary.Load(fsys)
	if err != nil {
		t.Fatalf("loading test dictionary: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zap.NewNop()
	hub := realtime.NewHub(log)
	svc := service.New(ctx, log, hub, dict)
	bot := chatbot.New(log, "")
	return SetupRoutes(log, hub, svc, bot, "http://play.example.com")
}

func TestJoinLobbyEndpoint(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lobby",
		strings.NewReader(`{"name":"amara"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var res joinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.LobbyID == "" || res.Name != "amara" || res.Private {
		t.Fatalf("response = %+v", res)
	}

	// Same name again collides.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lobby",
		strings.NewReader(`{"name":"amara"}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}

	// Whitespace names are rejected outright.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lobby",
		strings.NewReader(`{"name":"two words"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid name status = %d, want 400", rec.Code)
	}
}

func TestJoinPrivateLobbyEndpoint(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lobby",
		strings.NewReader(`{"name":"amara","password":"sesame"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var res joinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !res.Private {
		t.Fatalf("private join not flagged: %+v", res)
	}
}

func TestEnterGameUnknownID(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/game",
		strings.NewReader(`{"game_id":"nope","name":"amara"}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestLobbyQREndpoint(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lobbies/abc123/qr", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("content type = %q, want image/png", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("empty qr body")
	}
}

func TestHealthz(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
