// Package devserver is a runnable miniature of the companion-chat backend.
// It implements the REST surface the client consumes so the terminal client
// can be exercised end to end without the production stack.
package devserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ava-companion/ava/internal/config"
	"github.com/ava-companion/ava/internal/llm"
	"github.com/ava-companion/ava/pkg/logger"
)

// Server holds the stub backend's state and routes.
type Server struct {
	cfg    *config.Server
	logger *logger.Logger

	users       *userRegistry
	transcripts TranscriptStore
	prefs       *prefsStore
	replies     *replyService
}

// New assembles a server from configuration. The transcript store is
// in-memory unless a NATS URL is configured, in which case it is backed by
// a JetStream append log.
func New(ctx context.Context, cfg *config.Server, log *logger.Logger) (*Server, error) {
	var transcripts TranscriptStore = NewMemoryTranscriptStore()
	if cfg.NATSURL != "" {
		ns, err := NewNATSTranscriptStore(ctx, cfg.NATSURL, cfg.NATSToken)
		if err != nil {
			return nil, err
		}
		transcripts = ns
		log.Info("using JetStream transcript store", zap.String("url", cfg.NATSURL))
	}

	provider, apiKey := llm.ProviderCanned, ""
	switch {
	case cfg.AnthropicAPIKey != "":
		provider, apiKey = llm.ProviderAnthropic, cfg.AnthropicAPIKey
	case cfg.OpenAIAPIKey != "":
		provider, apiKey = llm.ProviderOpenAI, cfg.OpenAIAPIKey
	}
	llmClient, err := llm.NewClient(provider, apiKey)
	if err != nil {
		return nil, err
	}
	log.Info("reply provider selected", zap.String("provider", llmClient.Name()))

	prefs := newPrefsStore()

	return &Server{
		cfg:         cfg,
		logger:      log,
		users:       newUserRegistry(),
		transcripts: transcripts,
		prefs:       prefs,
		replies:     newReplyService(llmClient, prefs, log),
	}, nil
}

// Router builds the HTTP routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/signin", s.handleSignIn)
	r.Post("/auth/signup", s.handleSignUp)

	// Authenticated surface
	r.Group(func(r chi.Router) {
		r.Use(auth(s.cfg.JWTSecret))
		r.Use(rateLimit(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow))

		r.Post("/chat", s.handleSendMessage)
		r.Get("/chat/history", s.handleChatHistory)

		r.Get("/preferences/", s.handleGetPreferences)
		r.Patch("/preferences/", s.handlePatchPreferences)

		r.Patch("/avatars/me/persona", s.handlePatchPersona)
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if closer, ok := s.transcripts.(interface{ Close() }); ok {
		defer closer.Close()
	}

	server := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ServerReadTimeout,
		WriteTimeout: s.cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("port", s.cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func rateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := GetUserID(r.Context()); userID != "" {
				return "user:" + userID, nil
			}
			return "ip:" + r.RemoteAddr, nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"detail":"rate limit exceeded"}`))
		}),
	)
}
