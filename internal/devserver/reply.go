package devserver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ava-companion/ava/internal/api"
	"github.com/ava-companion/ava/internal/llm"
	"github.com/ava-companion/ava/pkg/logger"
	"github.com/ava-companion/ava/pkg/metrics"
)

// replyService turns a user message plus recent history into a companion
// reply, shaping the system prompt from the user's persona and spiciness
// preferences.
type replyService struct {
	client llm.Client
	prefs  *prefsStore
	logger *logger.Logger
}

func newReplyService(client llm.Client, prefs *prefsStore, log *logger.Logger) *replyService {
	return &replyService{client: client, prefs: prefs, logger: log}
}

// Generate produces the assistant reply for one user turn.
func (s *replyService) Generate(ctx context.Context, userID string, history []api.Message, text string) (string, error) {
	persona := s.prefs.Persona(userID)
	spiciness := "mild"
	if prefs, ok := s.prefs.Get(userID); ok && prefs.SpicinessLevel != nil {
		spiciness = string(*prefs.SpicinessLevel)
	}

	messages := make([]llm.ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: string(api.RoleUser), Content: text})

	start := time.Now()
	resp, err := s.client.Complete(ctx, &llm.CompletionRequest{
		System:   llm.CompanionPrompt("Ava", persona, spiciness),
		Messages: messages,
	})
	if err != nil {
		metrics.RecordReply(s.client.Name(), "error", time.Since(start).Seconds())
		return "", err
	}
	metrics.RecordReply(s.client.Name(), "ok", time.Since(start).Seconds())

	s.logger.WithUser(userID).Debug("reply generated",
		zap.String("provider", s.client.Name()),
		zap.String("persona", persona),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)

	return resp.Content, nil
}
