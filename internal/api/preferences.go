package api

import (
	"context"
	"errors"
	"net/http"
)

type personaRequest struct {
	Personality string `json:"personality"`
}

// GetPreferences returns the stored preferences. A 404 means no preferences
// have been set yet and yields an empty record, not an error.
func (c *Client) GetPreferences(ctx context.Context) (Preferences, error) {
	var prefs Preferences
	err := c.do(ctx, request{
		op:       "get_preferences",
		method:   "GET",
		path:     "/preferences/",
		authed:   true,
		fallback: "Failed to load preferences",
	}, &prefs)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return Preferences{}, nil
		}
		return Preferences{}, err
	}
	return prefs, nil
}

// UpdatePreferences sends a partial update. Only the fields present in the
// patch are written; the server merges, never replaces.
func (c *Client) UpdatePreferences(ctx context.Context, patch Preferences) error {
	return c.do(ctx, request{
		op:       "update_preferences",
		method:   "PATCH",
		path:     "/preferences/",
		body:     patch,
		authed:   true,
		fallback: "Failed to update preferences",
	}, nil)
}

// UpdatePersona sets the persona label. Write-only from the client's side;
// the current persona is never read back.
func (c *Client) UpdatePersona(ctx context.Context, label string) error {
	return c.do(ctx, request{
		op:       "update_persona",
		method:   "PATCH",
		path:     "/avatars/me/persona",
		body:     personaRequest{Personality: label},
		authed:   true,
		fallback: "Failed to update persona",
	}, nil)
}
