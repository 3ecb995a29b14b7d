package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

// CannedClient generates offline replies so the development server works
// without any API key configured. Replies are deterministic for a given
// input, which keeps end-to-end tests stable.
type CannedClient struct{}

// NewCannedClient creates a canned reply client.
func NewCannedClient() *CannedClient {
	return &CannedClient{}
}

// Name returns the provider name.
func (c *CannedClient) Name() string {
	return "canned"
}

var cannedReplies = []string{
	"Tell me more about that.",
	"I was just thinking about you. What's on your mind?",
	"Haha, okay. And then what happened?",
	"Mm, I like where this is going.",
	"You always know how to get my attention.",
	"That sounds like quite a day. I'm all ears.",
}

// Complete picks a reply keyed off the last user turn.
func (c *CannedClient) Complete(_ context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	var last string
	if len(req.Messages) > 0 {
		last = req.Messages[len(req.Messages)-1].Content
	}

	h := fnv.New32a()
	fmt.Fprint(h, last)
	reply := cannedReplies[int(h.Sum32())%len(cannedReplies)]

	return &CompletionResponse{
		Content:    reply,
		Model:      "canned",
		StopReason: "end_turn",
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
