package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adaptive-quiz-service/internal/adaptive"
	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/coldstart"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/infra/memory"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	profiles := memory.NewProfileStore()
	history := memory.NewHistoryStore()
	models := memory.NewModelStore()
	documents := memory.NewDocumentRepository(memory.NewStaticDocumentLoader([]domain.Document{
		{ID: "doc-1", Topic: "algebra", Tags: []string{"mathematics"}, Difficulty: domain.DifficultyIntermediate},
	}), time.Minute)
	trainer := app.NewTrainer(history, models, adaptive.DefaultTrainConfig())
	profiler := coldstart.NewProfiler(profiles)
	service := app.NewLearningService(profiles, profiler, documents, history, models, trainer)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (payload %s)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

// readUntil skips interleaved profile pushes, which race with direct replies.
func readUntil(conn *websocket.Conn, t *testing.T, expect string) json.RawMessage {
	t.Helper()
	for i := 0; i < 5; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == expect {
			return payload
		}
		if typ != "profile" {
			t.Fatalf("expected type %s, got %s (payload %s)", expect, typ, payload)
		}
	}
	t.Fatalf("no %s message received", expect)
	return nil
}

func TestWebSocketOnboardAndAnswerFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "u1")

	// A new user is prompted to onboard first.
	readNext(conn, t, "onboardRequired")

	onboard := map[string]any{
		"type": "onboard",
		"payload": map[string]any{
			"background": map[string]any{
				"educationLevel": "undergraduate",
				"interests":      []string{"algebra"},
			},
		},
	}
	if err := conn.WriteJSON(onboard); err != nil {
		t.Fatalf("write onboard: %v", err)
	}
	payload := readUntil(conn, t, "onboarded")
	var profile domain.UserProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.BaseDifficulty != domain.DifficultyIntermediate {
		t.Fatalf("base difficulty = %s, want intermediate", profile.BaseDifficulty)
	}

	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"question": map[string]any{
				"id":            "q1",
				"topic":         "algebra",
				"type":          "multiple-choice",
				"difficulty":    "intermediate",
				"correctAnswer": "B",
			},
			"answer":              "B",
			"responseTimeSeconds": 12,
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	payload = readUntil(conn, t, "answerResult")
	var result app.SubmitResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.Record.Correct {
		t.Fatalf("expected correct answer, got %+v", result)
	}
	if result.Proficiency < 0 || result.Proficiency > 1 {
		t.Fatalf("proficiency %f out of range", result.Proficiency)
	}
}

func TestWebSocketReturningUserGetsProfile(t *testing.T) {
	server := newTestServer(t)

	conn := dial(t, server, "u1")
	readNext(conn, t, "onboardRequired")
	onboard := map[string]any{
		"type":    "onboard",
		"payload": map[string]any{"background": map[string]any{"interests": []string{"physics"}}},
	}
	if err := conn.WriteJSON(onboard); err != nil {
		t.Fatalf("write onboard: %v", err)
	}
	readUntil(conn, t, "onboarded")
	conn.Close()

	// A second connection for the same user starts with the stored profile.
	again := dial(t, server, "u1")
	_, payload := readNext(again, t, "profile")
	var profile domain.UserProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if !profile.HasDomain("science") {
		t.Fatalf("expected science domain, got %v", profile.RelevantDomains)
	}
}

func TestWebSocketRecommendations(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "u1")

	readNext(conn, t, "onboardRequired")
	onboard := map[string]any{
		"type":    "onboard",
		"payload": map[string]any{"background": map[string]any{"interests": []string{"algebra"}}},
	}
	if err := conn.WriteJSON(onboard); err != nil {
		t.Fatalf("write onboard: %v", err)
	}
	readUntil(conn, t, "onboarded")

	req := map[string]any{"type": "recommendations", "payload": map[string]any{"limit": 1}}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write recommendations: %v", err)
	}
	payload := readUntil(conn, t, "recommendations")
	var docs []domain.Document
	if err := json.Unmarshal(payload, &docs); err != nil {
		t.Fatalf("decode documents: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Fatalf("recommendations = %v, want [doc-1]", docs)
	}
}

func TestWebSocketRejectsMissingUser(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebSocketUnknownMessageType(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "u1")

	readNext(conn, t, "onboardRequired")
	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "error")
}
