package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"quizlab-service/internal/app"
	"quizlab-service/internal/auth"
	"quizlab-service/internal/domain"
)

const sessionCookie = "quizlab_session"

// API wires the caller-facing operations to HTTP. Authentication is a
// session cookie resolved by the identity middleware; everything else is
// plain JSON in and out.
type API struct {
	service     *app.QuizService
	sessions    auth.SessionStore
	feed        *app.ResultsFeed
	defaultRole func(email string) domain.Role
}

func NewAPI(service *app.QuizService, sessions auth.SessionStore, feed *app.ResultsFeed, defaultRole func(email string) domain.Role) *API {
	return &API{
		service:     service,
		sessions:    sessions,
		feed:        feed,
		defaultRole: defaultRole,
	}
}

// Routes returns the full handler, identity middleware included.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/session", a.handleSignIn)
	mux.HandleFunc("DELETE /api/session", a.handleSignOut)

	mux.HandleFunc("GET /api/quizzes", a.handleListQuizzes)
	mux.HandleFunc("POST /api/quizzes", a.handleCreateQuiz)
	mux.HandleFunc("GET /api/quizzes/{id}", a.handleGetQuiz)
	mux.HandleFunc("PATCH /api/quizzes/{id}", a.handleUpdateQuiz)
	mux.HandleFunc("DELETE /api/quizzes/{id}", a.handleDeleteQuiz)
	mux.HandleFunc("POST /api/quizzes/{id}/publish", a.handleSetPublished)

	mux.HandleFunc("POST /api/attempts", a.handleSubmitAttempt)

	mux.HandleFunc("GET /api/users/{email}", a.handleGetUser)
	mux.HandleFunc("PUT /api/users/{email}/role", a.handleSetRole)

	mux.HandleFunc("GET /ws/results", a.handleResultsWS)

	return a.withIdentity(mux)
}

type signInRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// handleSignIn ensures the user document and issues a session cookie. The
// email is trusted here the way the original trusted its OAuth callback;
// credential verification is the provider's job, not this service's.
func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email required"})
		return
	}

	user, err := a.service.EnsureUser(r.Context(), email, req.Name, req.Image, a.defaultRole(email))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	token, err := a.sessions.Create(r.Context(), auth.Identity{Email: user.Email, Role: user.Role})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		_ = a.sessions.Delete(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

type createQuizRequest struct {
	Title string `json:"title"`
}

func (a *API) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	quiz, err := a.service.CreateQuiz(r.Context(), auth.IdentityFromContext(r.Context()), req.Title)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.service.GetQuiz(r.Context(), auth.IdentityFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	filter := app.ListFilter{CreatorID: strings.TrimSpace(r.URL.Query().Get("creatorId"))}
	quizzes, err := a.service.ListQuizzes(r.Context(), auth.IdentityFromContext(r.Context()), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

type updateQuizRequest struct {
	Title     *string            `json:"title"`
	Questions *[]domain.Question `json:"questions"`
	Published *bool              `json:"published"`
}

func (a *API) handleUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var req updateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	patch := app.QuizPatch{Title: req.Title, Questions: req.Questions, Published: req.Published}
	if err := a.service.UpdateQuiz(r.Context(), auth.IdentityFromContext(r.Context()), r.PathValue("id"), patch); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

type setPublishedRequest struct {
	Published bool `json:"published"`
}

func (a *API) handleSetPublished(w http.ResponseWriter, r *http.Request) {
	var req setPublishedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := a.service.SetPublished(r.Context(), auth.IdentityFromContext(r.Context()), r.PathValue("id"), req.Published); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *API) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteQuiz(r.Context(), auth.IdentityFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

type submitAttemptRequest struct {
	QuizID  string              `json:"quizId"`
	Answers []domain.Submission `json:"answers"`
}

type submitAttemptResponse struct {
	AttemptID   string                   `json:"attemptId"`
	Score       int                      `json:"score"`
	Total       int                      `json:"total"`
	PerQuestion []domain.QuestionVerdict `json:"perQuestion"`
}

func (a *API) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid answers JSON"})
		return
	}
	result, err := a.service.SubmitAttempt(r.Context(), auth.IdentityFromContext(r.Context()), req.QuizID, req.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitAttemptResponse{
		AttemptID:   result.Attempt.ID,
		Score:       result.Attempt.Score,
		Total:       result.Attempt.Total,
		PerQuestion: result.Verdict,
	})
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.service.GetUser(r.Context(), auth.IdentityFromContext(r.Context()), r.PathValue("email"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type setRoleRequest struct {
	Role domain.Role `json:"role"`
}

func (a *API) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := a.service.SetUserRole(r.Context(), auth.IdentityFromContext(r.Context()), r.PathValue("email"), req.Role); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// withIdentity resolves the session cookie to an identity in the request
// context. Unknown or expired tokens leave the request anonymous; the
// service layer decides what anonymity is allowed to do.
func (a *API) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			if identity, err := a.sessions.Get(r.Context(), cookie.Value); err == nil {
				r = r.WithContext(auth.WithIdentity(r.Context(), identity))
			}
		}
		next.ServeHTTP(w, r)
	})
}
