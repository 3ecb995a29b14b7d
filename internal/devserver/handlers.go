package devserver

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ava-companion/ava/internal/api"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response in the {"detail": ...} shape the
// client parses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// handleSignIn handles POST /auth/signin.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := mintToken(user.ID, s.cfg.JWTSecret, s.cfg.JWTExpiration)
	if err != nil {
		s.logger.Error("failed to mint token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

// handleSignUp handles POST /auth/signup.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	user, err := s.users.Create(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := mintToken(user.ID, s.cfg.JWTSecret, s.cfg.JWTExpiration)
	if err != nil {
		s.logger.Error("failed to mint token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleSendMessage handles POST /chat. Both turns are appended to the
// transcript; the reply is also returned in the response body.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text cannot be empty")
		return
	}

	history, err := s.transcripts.History(ctx, userID, 50)
	if err != nil {
		s.logger.Error("failed to load history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	reply, err := s.replies.Generate(ctx, userID, history, req.Text)
	if err != nil {
		s.logger.Error("reply generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate reply")
		return
	}

	now := time.Now().UTC()
	err = s.transcripts.Append(ctx, userID,
		api.Message{ID: newMessageID(), Role: api.RoleUser, Content: req.Text, CreatedAt: now},
		api.Message{ID: newMessageID(), Role: api.RoleAssistant, Content: reply, CreatedAt: now.Add(time.Millisecond)},
	)
	if err != nil {
		s.logger.Error("failed to append transcript", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store messages")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// handleChatHistory handles GET /chat/history.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	messages, err := s.transcripts.History(ctx, userID, limit)
	if err != nil {
		s.logger.Error("failed to load history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if messages == nil {
		messages = []api.Message{}
	}

	writeJSON(w, http.StatusOK, messages)
}

// handleGetPreferences handles GET /preferences/. A user who has never
// saved preferences gets a 404, which the client treats as "none set yet".
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	prefs, ok := s.prefs.Get(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "no preferences set")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// handlePatchPreferences handles PATCH /preferences/ with merge semantics.
func (s *Server) handlePatchPreferences(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var patch api.Preferences
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.WhatsAppPhone != nil && !validE164(*patch.WhatsAppPhone) {
		writeError(w, http.StatusBadRequest, "Phone must be in E.164 format: +1234567890")
		return
	}

	s.prefs.Patch(userID, patch)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type personaRequest struct {
	Personality string `json:"personality"`
}

// handlePatchPersona handles PATCH /avatars/me/persona.
func (s *Server) handlePatchPersona(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var req personaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !api.ValidPersona(req.Personality) {
		writeError(w, http.StatusBadRequest, "unknown persona")
		return
	}

	s.prefs.SetPersona(userID, req.Personality)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// newMessageID mints a server-side message ID. UUIDv7 keeps IDs sortable by
// creation time.
func newMessageID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// validE164 checks a phone number: + followed by digits only.
func validE164(phone string) bool {
	if !strings.HasPrefix(phone, "+") || len(phone) < 8 {
		return false
	}
	for _, c := range phone[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
