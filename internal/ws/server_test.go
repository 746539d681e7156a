package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/studyarena/backend/internal/battle"
	"github.com/studyarena/backend/internal/bot"
	"github.com/studyarena/backend/internal/game"
	"github.com/studyarena/backend/internal/progression"
)

// stubRng keeps the service deterministic: no critical hits, bots miss.
type stubRng struct{}

func (stubRng) Float64() float64 { return 0.99 }
func (stubRng) Intn(n int) int   { return 0 }

func newTestServer(t *testing.T) (*httptest.Server, *game.Service) {
	t.Helper()

	rewards := progression.NewRewardEngine(progression.DefaultRewardConfig())
	hub := NewHub(zerolog.Nop())
	svc := game.NewService(
		progression.NewCoordinator(progression.DefaultCurve(), rewards, stubRng{}),
		progression.NewAchievementEvaluator(),
		battle.NewEngine(rewards),
		progression.NewStore(t.TempDir()),
		battle.NewStore(),
		bot.NewSimulator(stubRng{}),
		hub,
		zerolog.Nop(),
		game.Options{TickInterval: time.Hour},
	)
	mux := http.NewServeMux()
	NewServer(svc, hub, zerolog.Nop()).SetupRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, svc
}

func dialWS(t *testing.T, srv *httptest.Server, playerID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?player=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd game.Command) {
	t.Helper()
	data, err := json.Marshal(Message{Type: MsgCommand, Payload: cmd})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return env
}

func TestWS_CommandRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv, "p1")

	sendCommand(t, conn, game.Command{Type: game.CmdAddXP, AddXP: &game.AddXPCommand{Amount: 100}})

	env := readEnvelope(t, conn)
	if env.Type != MsgSnapshot {
		t.Fatalf("Type = %q, want snapshot", env.Type)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(env.Payload, &snap); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if snap.Progress.XP != 100 {
		t.Errorf("XP = %d, want 100", snap.Progress.XP)
	}
}

func TestWS_LevelUpNotifications(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv, "p1")

	sendCommand(t, conn, game.Command{Type: game.CmdAddXP, AddXP: &game.AddXPCommand{Amount: 1000}})

	// One dispatch produces level-up and achievement frames plus the
	// snapshot reply; collect until the snapshot arrives.
	seen := map[MessageType]bool{}
	for i := 0; i < 8; i++ {
		env := readEnvelope(t, conn)
		seen[env.Type] = true
		if env.Type == MsgSnapshot {
			break
		}
	}

	for _, want := range []MessageType{MsgLevelUp, MsgAchievementUnlocked, MsgSnapshot} {
		if !seen[want] {
			t.Errorf("missing %s frame, saw %v", want, seen)
		}
	}
}

func TestWS_BadFrame(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv, "p1")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{nope")); err != nil {
		t.Fatal(err)
	}

	env := readEnvelope(t, conn)
	if env.Type != MsgError {
		t.Fatalf("Type = %q, want error", env.Type)
	}
	var p ErrorPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Code != "bad_frame" {
		t.Errorf("Code = %q, want bad_frame", p.Code)
	}
}

func TestWS_DispatchError(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv, "p1")

	// Submitting without a battle is an invalid transition.
	sendCommand(t, conn, game.Command{Type: game.CmdSubmitAnswer, SubmitAnswer: &game.SubmitAnswerCommand{ChoiceIndex: 0}})

	env := readEnvelope(t, conn)
	if env.Type != MsgError {
		t.Fatalf("Type = %q, want error", env.Type)
	}
	var p ErrorPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Code != "invalid_state_transition" {
		t.Errorf("Code = %q, want invalid_state_transition", p.Code)
	}
}

func TestWS_MissingPlayerParam(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded without player param")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("resp = %+v, want 400", resp)
	}
}

func TestHTTP_Progress(t *testing.T) {
	srv, svc := newTestServer(t)

	if _, err := svc.Dispatch("p1", game.Command{Type: game.CmdAddXP, AddXP: &game.AddXPCommand{Amount: 100}}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/api/progress/p1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var snap game.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Progress.XP != 100 {
		t.Errorf("XP = %d, want 100", snap.Progress.XP)
	}
}

func TestHTTP_ProgressUnknownPlayer(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/progress/ghost")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown player", resp.StatusCode)
	}
}

func TestHTTP_Achievements(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/achievements")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var registry []progression.Achievement
	if err := json.NewDecoder(resp.Body).Decode(&registry); err != nil {
		t.Fatal(err)
	}
	if len(registry) == 0 {
		t.Error("empty achievement registry")
	}
}

func TestHTTP_Lootboxes(t *testing.T) {
	srv, svc := newTestServer(t)

	if _, err := svc.Dispatch("p1", game.Command{Type: game.CmdAddXP, AddXP: &game.AddXPCommand{Amount: 1000}}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/api/lootboxes/p1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var boxes []progression.Lootbox
	if err := json.NewDecoder(resp.Body).Decode(&boxes); err != nil {
		t.Fatal(err)
	}
	if len(boxes) != 1 {
		t.Errorf("lootboxes = %d, want 1 after level-up", len(boxes))
	}
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/achievements", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	s := &Server{log: zerolog.Nop()}

	tests := []struct {
		err  error
		want int
	}{
		{progression.ErrNotFound, http.StatusNotFound},
		{progression.ErrSyncFailed, http.StatusInternalServerError},
		{progression.ErrInvalidInput, http.StatusBadRequest},
		{progression.ErrAlreadyClaimed, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.writeError(rec, tt.err)
		if rec.Code != tt.want {
			t.Errorf("writeError(%v) status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}
