package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizlab-service/internal/domain"
)

func wsHeader(t *testing.T, client *http.Client, server *httptest.Server) http.Header {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	header := http.Header{}
	for _, cookie := range client.Jar.Cookies(u) {
		header.Add("Cookie", cookie.String())
	}
	return header
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return msg.Type, msg.Payload
}

func TestResultsSocketStreamsAttempts(t *testing.T) {
	server := newTestServer(t)

	creator := newClient(t)
	signIn(t, creator, server, "creator@example.com")

	resp := doJSON(t, creator, http.MethodPost, server.URL+"/api/quizzes", map[string]string{"title": "Live"})
	var quiz domain.Quiz
	decodeBody(t, resp, &quiz)

	questions := []domain.Question{
		{QID: "q1", Type: domain.QuestionSingle, Text: "?", Options: []string{"A", "B"}, AnswerIndices: []int{0}},
	}
	resp = doJSON(t, creator, http.MethodPatch, server.URL+"/api/quizzes/"+quiz.ID, map[string]any{"questions": questions})
	resp.Body.Close()
	resp = doJSON(t, creator, http.MethodPost, server.URL+"/api/quizzes/"+quiz.ID+"/publish", map[string]bool{"published": true})
	resp.Body.Close()

	wsURL := "ws" + server.URL[len("http"):] + "/ws/results?quizId=" + quiz.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, wsHeader(t, creator, server))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	frameType, payload := readFrame(t, conn)
	if frameType != "watching" {
		t.Fatalf("expected watching frame, got %s", frameType)
	}
	if payload["quizId"] != quiz.ID || payload["title"] != "Live" {
		t.Fatalf("unexpected watching payload: %+v", payload)
	}

	learner := newClient(t)
	signIn(t, learner, server, "learner@example.com")
	resp = doJSON(t, learner, http.MethodPost, server.URL+"/api/attempts", map[string]any{
		"quizId":  quiz.ID,
		"answers": []map[string]any{{"qid": "q1", "selectedIndices": []int{0}}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	frameType, payload = readFrame(t, conn)
	if frameType != "attempt" {
		t.Fatalf("expected attempt frame, got %s", frameType)
	}
	attempt, ok := payload["attempt"].(map[string]any)
	if !ok {
		t.Fatalf("missing attempt in payload: %+v", payload)
	}
	if attempt["userId"] != "learner@example.com" {
		t.Fatalf("unexpected attempt user: %+v", attempt)
	}
	if attempt["score"] != float64(1) || attempt["total"] != float64(1) {
		t.Fatalf("expected 1/1, got %+v", attempt)
	}
}

func TestResultsSocketRequiresQuizID(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signIn(t, client, server, "creator@example.com")

	resp := doJSON(t, client, http.MethodGet, server.URL+"/ws/results", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without quizId, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestResultsSocketDeniesLearnerOnDraft(t *testing.T) {
	server := newTestServer(t)

	creator := newClient(t)
	signIn(t, creator, server, "creator@example.com")
	resp := doJSON(t, creator, http.MethodPost, server.URL+"/api/quizzes", map[string]string{"title": "Draft"})
	var quiz domain.Quiz
	decodeBody(t, resp, &quiz)

	learner := newClient(t)
	signIn(t, learner, server, "learner@example.com")

	wsURL := "ws" + server.URL[len("http"):] + "/ws/results?quizId=" + quiz.ID
	_, wsResp, err := websocket.DefaultDialer.Dial(wsURL, wsHeader(t, learner, server))
	if err == nil {
		t.Fatalf("expected dial to fail for draft quiz")
	}
	if wsResp == nil || wsResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", wsResp)
	}
}
