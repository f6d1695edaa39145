package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizlab-service/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// handleResultsWS streams scored attempts for a quiz over a websocket, for
// creator/admin dashboards watching submissions live. Access is checked by
// fetching the quiz through the service, which applies the caller's role.
func (a *API) handleResultsWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	identity := auth.IdentityFromContext(r.Context())
	quiz, err := a.service.GetQuiz(r.Context(), identity, quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	updates, cancel := a.feed.Subscribe(quizID)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	defer cancel()

	if err := conn.WriteJSON(outboundMessage{Type: "watching", Payload: map[string]string{
		"quizId": quiz.ID,
		"title":  quiz.Title,
	}}); err != nil {
		return
	}

	// Reader only detects the peer closing; inbound frames carry nothing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case result, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "attempt", Payload: result}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
