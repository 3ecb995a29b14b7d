package api

import (
	"context"
)

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Reply string `json:"reply"`
}

// ChatHistory returns the transcript in server order. The client never
// re-sorts; order is assumed chronological.
func (c *Client) ChatHistory(ctx context.Context) ([]Message, error) {
	var messages []Message
	err := c.do(ctx, request{
		op:       "chat_history",
		method:   "GET",
		path:     "/chat/history",
		authed:   true,
		fallback: "Failed to load history",
	}, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage posts one user turn and returns the assistant's reply. This
// layer performs no validation; callers reject empty or whitespace-only
// text before calling.
func (c *Client) SendMessage(ctx context.Context, text string) (string, error) {
	var resp sendMessageResponse
	err := c.do(ctx, request{
		op:       "send_message",
		method:   "POST",
		path:     "/chat",
		body:     sendMessageRequest{Text: text},
		authed:   true,
		fallback: "Failed to send message",
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Reply, nil
}
