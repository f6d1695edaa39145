package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"quizlab-service/internal/app"
	"quizlab-service/internal/auth"
	"quizlab-service/internal/domain"
	"quizlab-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	quizzes := app.NewQuizRepository(store)
	users := app.NewUserRepository(store)
	feed := app.NewResultsFeed()
	scorer := app.NewAttemptScorer(quizzes, store, feed)
	service := app.NewQuizService(quizzes, users, scorer)
	sessions := memory.NewSessionStore(time.Hour)

	defaultRole := func(email string) domain.Role {
		return auth.DefaultRole([]string{"admin@example.com"}, []string{"creator@example.com"}, email)
	}
	api := NewAPI(service, sessions, feed, defaultRole)
	server := httptest.NewServer(api.Routes())
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func signIn(t *testing.T, client *http.Client, server *httptest.Server, email string) domain.User {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, server.URL+"/api/session", map[string]string{
		"email": email,
		"name":  email,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign in %s: status %d", email, resp.StatusCode)
	}
	var user domain.User
	decodeBody(t, resp, &user)
	return user
}

func TestSignInIssuesSessionCookie(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	user := signIn(t, client, server, "Admin@Example.com")
	if user.Email != "admin@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected configured admin role, got %s", user.Role)
	}

	// The cookie authenticates follow-up requests.
	resp := doJSON(t, client, http.MethodGet, server.URL+"/api/users/admin@example.com", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("self lookup: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSignOutClearsSession(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signIn(t, client, server, "creator@example.com")

	resp := doJSON(t, client, http.MethodDelete, server.URL+"/api/session", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("sign out: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPost, server.URL+"/api/quizzes", map[string]string{"title": "Basics"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign out, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateQuizRequiresSession(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodPost, server.URL+"/api/quizzes", map[string]string{"title": "Basics"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	signIn(t, client, server, "learner@example.com")
	resp = doJSON(t, client, http.MethodPost, server.URL+"/api/quizzes", map[string]string{"title": "Basics"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for learner, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestQuizLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)

	creator := newClient(t)
	signIn(t, creator, server, "creator@example.com")

	resp := doJSON(t, creator, http.MethodPost, server.URL+"/api/quizzes", map[string]string{"title": "AWS Basics"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var quiz domain.Quiz
	decodeBody(t, resp, &quiz)

	questions := []domain.Question{
		{QID: "q1", Type: domain.QuestionSingle, Text: "Managed NoSQL?", Options: []string{"EC2", "DynamoDB"}, AnswerIndices: []int{1}, Explanation: "DynamoDB is the managed NoSQL store."},
	}
	resp = doJSON(t, creator, http.MethodPatch, server.URL+"/api/quizzes/"+quiz.ID, map[string]any{"questions": questions})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, creator, http.MethodPost, server.URL+"/api/quizzes/"+quiz.ID+"/publish", map[string]bool{"published": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	learner := newClient(t)
	signIn(t, learner, server, "learner@example.com")

	resp = doJSON(t, learner, http.MethodGet, server.URL+"/api/quizzes/"+quiz.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("learner get: status %d", resp.StatusCode)
	}
	var redacted domain.Quiz
	decodeBody(t, resp, &redacted)
	if len(redacted.Questions) != 1 {
		t.Fatalf("expected one question, got %+v", redacted.Questions)
	}
	if redacted.Questions[0].AnswerIndices != nil || redacted.Questions[0].Explanation != "" {
		t.Fatalf("answer key leaked over HTTP: %+v", redacted.Questions[0])
	}

	resp = doJSON(t, learner, http.MethodPost, server.URL+"/api/attempts", map[string]any{
		"quizId":  quiz.ID,
		"answers": []map[string]any{{"qid": "q1", "selectedIndices": []int{1}}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d", resp.StatusCode)
	}
	var result submitAttemptResponse
	decodeBody(t, resp, &result)
	if result.Score != 1 || result.Total != 1 {
		t.Fatalf("expected 1/1, got %d/%d", result.Score, result.Total)
	}
	if len(result.PerQuestion) != 1 || !result.PerQuestion[0].Correct {
		t.Fatalf("unexpected verdicts: %+v", result.PerQuestion)
	}

	// Delete is admin-only.
	resp = doJSON(t, creator, http.MethodDelete, server.URL+"/api/quizzes/"+quiz.ID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("creator delete: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	admin := newClient(t)
	signIn(t, admin, server, "admin@example.com")
	resp = doJSON(t, admin, http.MethodDelete, server.URL+"/api/quizzes/"+quiz.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin delete: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, creator, http.MethodGet, server.URL+"/api/quizzes/"+quiz.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnpublishedHiddenFromLearnerList(t *testing.T) {
	server := newTestServer(t)

	creator := newClient(t)
	signIn(t, creator, server, "creator@example.com")
	resp := doJSON(t, creator, http.MethodPost, server.URL+"/api/quizzes", map[string]string{"title": "Draft"})
	var quiz domain.Quiz
	decodeBody(t, resp, &quiz)

	learner := newClient(t)
	signIn(t, learner, server, "learner@example.com")

	resp = doJSON(t, learner, http.MethodGet, server.URL+"/api/quizzes", nil)
	var listed []domain.Quiz
	decodeBody(t, resp, &listed)
	if len(listed) != 0 {
		t.Fatalf("draft quiz leaked into learner listing: %+v", listed)
	}

	resp = doJSON(t, learner, http.MethodGet, server.URL+"/api/quizzes/"+quiz.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for draft quiz, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleEndpointRequiresAdmin(t *testing.T) {
	server := newTestServer(t)

	learner := newClient(t)
	signIn(t, learner, server, "learner@example.com")

	target := fmt.Sprintf("%s/api/users/%s/role", server.URL, "learner@example.com")
	resp := doJSON(t, learner, http.MethodPut, target, map[string]string{"role": "creator"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("learner self-promotion: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	admin := newClient(t)
	signIn(t, admin, server, "admin@example.com")
	resp = doJSON(t, admin, http.MethodPut, target, map[string]string{"role": "creator"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin set role: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The promotion takes effect without a new session.
	resp = doJSON(t, learner, http.MethodPost, server.URL+"/api/quizzes", map[string]string{"title": "Now allowed"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("promoted learner create: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, admin, http.MethodPut, target, map[string]string{"role": "owner"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown role: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGetUserCrossAccountForbidden(t *testing.T) {
	server := newTestServer(t)

	learner := newClient(t)
	signIn(t, learner, server, "learner@example.com")
	other := newClient(t)
	signIn(t, other, server, "other@example.com")

	resp := doJSON(t, learner, http.MethodGet, server.URL+"/api/users/other@example.com", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-account lookup: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
