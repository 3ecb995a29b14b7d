package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIn(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "u123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/signin", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body["email"])
		assert.Equal(t, "hunter2", body["password"])

		json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	}))
	defer server.Close()

	client := New(server.URL, StaticToken(""))
	identity, err := client.SignIn(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, token, identity.Token)
	assert.Equal(t, "u123", identity.UserID)
}

func TestSignIn_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "server message surfaced verbatim",
			status:  http.StatusUnauthorized,
			body:    `{"detail":"Invalid credentials"}`,
			wantMsg: "Invalid credentials",
		},
		{
			name:    "unparseable body falls back",
			status:  http.StatusInternalServerError,
			body:    `<html>boom</html>`,
			wantMsg: "Sign in failed",
		},
		{
			name:    "empty body falls back",
			status:  http.StatusBadGateway,
			body:    ``,
			wantMsg: "Sign in failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := New(server.URL, StaticToken(""))
			_, err := client.SignIn(context.Background(), "alice@example.com", "wrong")
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestAuthorizationHeaderAttachment(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Message{})
	}))
	defer server.Close()

	t.Run("token attached", func(t *testing.T) {
		client := New(server.URL, StaticToken("tok-abc"))
		_, err := client.ChatHistory(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok-abc", gotAuth)
	})

	t.Run("empty token sent as-is", func(t *testing.T) {
		// The layer does not gate on session presence; a malformed header
		// is the server's to reject.
		client := New(server.URL, StaticToken(""))
		_, err := client.ChatHistory(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer ", gotAuth)
	})
}

func TestChatHistory_PreservesServerOrder(t *testing.T) {
	messages := []Message{
		{ID: "m3", Role: RoleAssistant, Content: "hey you", CreatedAt: time.Now().UTC()},
		{ID: "m1", Role: RoleUser, Content: "hi", CreatedAt: time.Now().UTC().Add(-time.Hour)},
		{ID: "m2", Role: RoleUser, Content: "anyone there?", CreatedAt: time.Now().UTC().Add(-time.Minute)},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/history", r.URL.Path)
		json.NewEncoder(w).Encode(messages)
	}))
	defer server.Close()

	client := New(server.URL, StaticToken("tok"))
	got, err := client.ChatHistory(context.Background())
	require.NoError(t, err)

	// Whatever order the server returns is the order displayed, even when
	// timestamps disagree: the client never re-sorts.
	require.Len(t, got, 3)
	assert.Equal(t, "m3", got[0].ID)
	assert.Equal(t, "m1", got[1].ID)
	assert.Equal(t, "m2", got[2].ID)
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body["text"])

		json.NewEncoder(w).Encode(map[string]string{"reply": "hello there"})
	}))
	defer server.Close()

	client := New(server.URL, StaticToken("tok"))
	reply, err := client.SendMessage(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
}

func TestUnauthorizedSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid token"}`))
	}))
	defer server.Close()

	client := New(server.URL, StaticToken("expired"))
	_, err := client.ChatHistory(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := New(server.URL, StaticToken("tok"))
	_, err := client.ChatHistory(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestCorrelationIDHeader(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Correlation-ID")
		json.NewEncoder(w).Encode([]Message{})
	}))
	defer server.Close()

	client := New(server.URL, StaticToken("tok"))
	_, err := client.ChatHistory(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}
