package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/ava-companion/ava/internal/api"
)

const (
	// transcriptStream is the name of the transcripts stream.
	transcriptStream = "TRANSCRIPTS"

	// transcriptSubjectPrefix is the prefix for all transcript subjects.
	transcriptSubjectPrefix = "transcript"
)

// NATSTranscriptStore persists transcripts as a JetStream append log, one
// subject per user. Survives server restarts, unlike the memory store.
type NATSTranscriptStore struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewNATSTranscriptStore connects to NATS and ensures the transcripts
// stream exists.
func NewNATSTranscriptStore(ctx context.Context, url, token string) (*NATSTranscriptStore, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store := &NATSTranscriptStore{conn: nc, js: js}
	if err := store.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return store, nil
}

func (s *NATSTranscriptStore) ensureStream(ctx context.Context) error {
	if _, err := s.js.Stream(ctx, transcriptStream); err == nil {
		return nil
	}

	_, err := s.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        transcriptStream,
		Subjects:    []string{fmt.Sprintf("%s.>", transcriptSubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Per-user chat transcripts",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// isFetchTimeout reports whether a batch error just means the replay drained
// within the wait window. Fetch wraps the deadline error, so plain equality
// would miss it.
func isFetchTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// userSubject returns the subject holding one user's transcript.
func userSubject(userID string) string {
	return fmt.Sprintf("%s.%s", transcriptSubjectPrefix, userID)
}

// Append publishes messages to the user's transcript subject in order.
func (s *NATSTranscriptStore) Append(ctx context.Context, userID string, msgs ...api.Message) error {
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if _, err := s.js.Publish(ctx, userSubject(userID), data); err != nil {
			return fmt.Errorf("failed to publish message: %w", err)
		}
	}
	return nil
}

// History replays the user's subject through an ephemeral consumer and
// returns the most recent messages in chronological order.
func (s *NATSTranscriptStore) History(ctx context.Context, userID string, limit int) ([]api.Message, error) {
	consumer, err := s.js.CreateConsumer(ctx, transcriptStream, jetstream.ConsumerConfig{
		FilterSubject: userSubject(userID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	var messages []api.Message
	for {
		batch, err := consumer.Fetch(100, jetstream.FetchMaxWait(500*time.Millisecond))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages: %w", err)
		}

		count := 0
		for msg := range batch.Messages() {
			var message api.Message
			if err := json.Unmarshal(msg.Data(), &message); err != nil {
				continue
			}
			messages = append(messages, message)
			count++
		}
		if err := batch.Error(); err != nil && !isFetchTimeout(err) {
			return nil, fmt.Errorf("batch error: %w", err)
		}
		if count == 0 {
			break
		}
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// Close closes the NATS connection.
func (s *NATSTranscriptStore) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
