package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-companion/ava/internal/api"
	"github.com/ava-companion/ava/internal/config"
	"github.com/ava-companion/ava/internal/session"
	"github.com/ava-companion/ava/pkg/logger"
)

// newTestApp wires an App against the given base URL with a session file in
// a temp dir, capturing output in the returned buffer.
func newTestApp(t *testing.T, baseURL string) (*App, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Client{
		BaseURL:      baseURL,
		SessionFile:  filepath.Join(t.TempDir(), "session.json"),
		PollInterval: 3 * time.Second,
	}

	a := NewApp(cfg, logger.NewNop())
	out := &bytes.Buffer{}
	a.Out = out
	a.In = strings.NewReader("")
	return a, out
}

func run(t *testing.T, a *App, args ...string) error {
	t.Helper()
	root := a.Root()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.Execute()
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestGuardedCommandsRequireSession(t *testing.T) {
	a, _ := newTestApp(t, "http://localhost:0")

	for _, args := range [][]string{
		{"chat"},
		{"settings"},
		{"settings", "set", "--spiciness", "mild"},
		{"persona", "playful"},
	} {
		err := run(t, a, args...)
		assert.ErrorIs(t, err, errSignedOut, "args: %v", args)
	}
}

func TestGuardAllowsSignedInSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.Preferences{})
	}))
	defer ts.Close()

	a, out := newTestApp(t, ts.URL)
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))

	require.NoError(t, run(t, a, "settings"))
	assert.Contains(t, out.String(), "Settings")
	assert.Contains(t, out.String(), "(unset)")
}

func TestLoginStoresSession(t *testing.T) {
	token := signedToken(t, "u123")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/signin", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	}))
	defer ts.Close()

	a, out := newTestApp(t, ts.URL)
	require.NoError(t, run(t, a, "login", "--email", "alice@example.com", "--password", "hunter2"))

	sess := a.Sessions.Current()
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, "u123", sess.UserID)
	assert.Contains(t, out.String(), "Signed in.")
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
	}))
	defer ts.Close()

	a, out := newTestApp(t, ts.URL)
	err := run(t, a, "login", "--email", "alice@example.com", "--password", "nope")
	require.Error(t, err)

	// The server's message is shown verbatim and nothing is persisted.
	assert.Contains(t, out.String(), "Invalid credentials")
	assert.False(t, a.Sessions.Current().Present())
	_, statErr := os.Stat(a.Config.SessionFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLogoutClearsSession(t *testing.T) {
	a, out := newTestApp(t, "http://localhost:0")
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))

	// Logout is purely local; the unreachable base URL proves no call is made.
	require.NoError(t, run(t, a, "logout"))
	assert.False(t, a.Sessions.Current().Present())
	assert.Contains(t, out.String(), "Signed out.")

	// The cleared session survives a restart.
	rehydrated := session.NewStore(session.NewFileStorage(a.Config.SessionFile))
	assert.False(t, rehydrated.Current().Present())
}

func TestSettingsSetBuffersIntoOneUpdate(t *testing.T) {
	var patches atomic.Int32
	var lastPatch api.Preferences

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			phrase := "switch it up"
			json.NewEncoder(w).Encode(api.Preferences{ModeSwitchPhrase: &phrase})
		case http.MethodPatch:
			patches.Add(1)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&lastPatch))
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}
	}))
	defer ts.Close()

	a, out := newTestApp(t, ts.URL)
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))

	require.NoError(t, run(t, a, "settings", "set",
		"--spiciness", "spicy",
		"--phone", "+15551234567",
		"--whatsapp-notifications=false",
	))

	// Three edits, one PATCH.
	assert.Equal(t, int32(1), patches.Load())
	assert.Contains(t, out.String(), "Settings saved")

	require.NotNil(t, lastPatch.SpicinessLevel)
	assert.Equal(t, api.SpicinessSpicy, *lastPatch.SpicinessLevel)
	require.NotNil(t, lastPatch.WhatsAppPhone)
	assert.Equal(t, "+15551234567", *lastPatch.WhatsAppPhone)
	assert.Equal(t, map[string]any{"whatsapp_enabled": false}, lastPatch.NotifPrefs)

	// The untouched phrase rides along from the server copy rather than
	// being dropped from the update.
	require.NotNil(t, lastPatch.ModeSwitchPhrase)
	assert.Equal(t, "switch it up", *lastPatch.ModeSwitchPhrase)
}

func TestSettingsSetRejectsBadValues(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.Preferences{})
	}))
	defer ts.Close()

	a, _ := newTestApp(t, ts.URL)
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))

	err := run(t, a, "settings", "set", "--spiciness", "nuclear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spiciness must be")

	err = run(t, a, "settings", "set", "--platform", "fax")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform must be")
}

func TestSettingsSetNothingToChange(t *testing.T) {
	var patches atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patches.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.Preferences{})
	}))
	defer ts.Close()

	a, out := newTestApp(t, ts.URL)
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))

	require.NoError(t, run(t, a, "settings", "set"))
	assert.Contains(t, out.String(), "Nothing to change.")
	assert.Equal(t, int32(0), patches.Load())
}

func TestPersonaCommand(t *testing.T) {
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/avatars/me/persona", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer ts.Close()

	a, out := newTestApp(t, ts.URL)
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))

	require.NoError(t, run(t, a, "persona", "shy"))
	assert.Equal(t, map[string]string{"personality": "shy"}, gotBody)
	assert.Contains(t, out.String(), "shy")
}

func TestPersonaRejectsUnknownLabel(t *testing.T) {
	a, _ := newTestApp(t, "http://localhost:0")
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))

	err := run(t, a, "persona", "sassy")
	require.Error(t, err)
}

// syncBuffer captures output from the chat screen, which renders from a
// background goroutine alongside the input loop.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestChatSendIsSingleFlightAndRefetchesHistory(t *testing.T) {
	var (
		mu          sync.Mutex
		transcript  []api.Message
		historyGets atomic.Int32
		chatPosts   atomic.Int32
		inFlight    atomic.Int32
		overlapped  atomic.Bool
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat/history":
			historyGets.Add(1)
			mu.Lock()
			msgs := append([]api.Message(nil), transcript...)
			mu.Unlock()
			json.NewEncoder(w).Encode(msgs)
		case "/chat":
			if inFlight.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(30 * time.Millisecond)

			var req struct {
				Text string `json:"text"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			reply := "reply to " + req.Text

			now := time.Now().UTC()
			mu.Lock()
			transcript = append(transcript,
				api.Message{ID: fmt.Sprintf("m%d", len(transcript)+1), Role: api.RoleUser, Content: req.Text, CreatedAt: now},
				api.Message{ID: fmt.Sprintf("m%d", len(transcript)+2), Role: api.RoleAssistant, Content: reply, CreatedAt: now},
			)
			mu.Unlock()

			inFlight.Add(-1)
			chatPosts.Add(1)
			json.NewEncoder(w).Encode(map[string]string{"reply": reply})
		}
	}))
	defer ts.Close()

	a, _ := newTestApp(t, ts.URL)
	out := &syncBuffer{}
	a.Out = out
	// With polling an hour out, every history fetch past the first comes
	// from a forced refetch after a send.
	a.Config.PollInterval = time.Hour
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))

	pr, pw := io.Pipe()
	a.In = pr

	done := make(chan error, 1)
	go func() { done <- run(t, a, "chat") }()

	// Both lines queued at once; the loop must resolve one send before it
	// reads the next.
	_, err := pw.Write([]byte("hello\nworld\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return chatPosts.Load() == 2 &&
			strings.Contains(out.String(), "you: hello") &&
			strings.Contains(out.String(), "reply to world")
	}, 5*time.Second, 10*time.Millisecond)

	_, err = pw.Write([]byte("/quit\n"))
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.False(t, overlapped.Load(), "a second send was issued while one was in flight")
	// With polling parked, any fetch past the first is a forced refetch
	// after a successful send. Back-to-back kicks may coalesce into one.
	assert.GreaterOrEqual(t, historyGets.Load(), int32(2))
	// Snapshots render incrementally; an already-shown turn never reprints.
	assert.Equal(t, 1, strings.Count(out.String(), "you: hello"))
	assert.Equal(t, 1, strings.Count(out.String(), "you: world"))
}

func TestChatSignOut(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]api.Message{})
	}))
	defer ts.Close()

	a, _ := newTestApp(t, ts.URL)
	out := &syncBuffer{}
	a.Out = out
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))
	a.In = strings.NewReader("/signout\n")

	require.NoError(t, run(t, a, "chat"))
	assert.False(t, a.Sessions.Current().Present())
	assert.Contains(t, out.String(), "Signed out.")
}

func TestChatUnauthorizedSendKeepsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat/history":
			json.NewEncoder(w).Encode([]api.Message{})
		case "/chat":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "invalid token"})
		}
	}))
	defer ts.Close()

	a, _ := newTestApp(t, ts.URL)
	out := &syncBuffer{}
	a.Out = out
	require.NoError(t, a.Sessions.SetAuth(signedToken(t, "u123"), "u123"))
	a.In = strings.NewReader("hello\n/quit\n")

	// The rejected send surfaces inline and the loop stays usable.
	require.NoError(t, run(t, a, "chat"))
	assert.Contains(t, out.String(), "invalid token")
	assert.Contains(t, out.String(), "Run `ava login` to sign in again.")

	// A 401 never clears the session on its own.
	assert.True(t, a.Sessions.Current().Present())
}

func TestPhotoWithoutURLShowsPlaceholder(t *testing.T) {
	// Unreachable base URL: no request of any kind is attempted.
	a, out := newTestApp(t, "http://localhost:0")

	require.NoError(t, run(t, a, "photo"))
	assert.Contains(t, out.String(), "No photo URL provided.")
	assert.NotContains(t, out.String(), "saved to")
}

func TestPhotoBrokenLinkIsQuiet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	a, out := newTestApp(t, "http://localhost:0")

	// A dead link hides the image without surfacing an error, but the
	// expiry note still shows.
	require.NoError(t, run(t, a, "photo", ts.URL+"/expired.jpg"))
	assert.NotContains(t, out.String(), "saved to")
	assert.Contains(t, out.String(), "This link expires in 24 hours")
}

func TestPhotoDownload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Parameters after the media type must not defeat extension mapping.
		w.Header().Set("Content-Type", "image/png; charset=binary")
		w.Write([]byte("not really a png"))
	}))
	defer ts.Close()

	a, out := newTestApp(t, "http://localhost:0")

	require.NoError(t, run(t, a, "photo", ts.URL+"/photo.png"))
	assert.Contains(t, out.String(), "Photo from Ava saved to ")
	assert.Contains(t, out.String(), "This link expires in 24 hours")

	line := strings.SplitN(out.String(), "\n", 2)[0]
	path := strings.TrimPrefix(line, "Photo from Ava saved to ")
	assert.True(t, strings.HasSuffix(path, ".png"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(data))
	os.Remove(path)
}
