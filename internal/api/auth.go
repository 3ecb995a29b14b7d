package api

import (
	"context"
)

// Identity is the result of a successful sign-in or sign-up.
type Identity struct {
	Token  string
	UserID string
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// SignIn exchanges credentials for a token. The user ID is derived by
// decoding the subject claim out of the issued token. On rejection the
// server's message is surfaced verbatim, with a generic fallback when the
// response is not parseable.
func (c *Client) SignIn(ctx context.Context, email, password string) (Identity, error) {
	return c.credentialExchange(ctx, "sign_in", "/auth/signin", email, password, "Sign in failed")
}

// SignUp creates an account and signs it in. Same contract as SignIn.
func (c *Client) SignUp(ctx context.Context, email, password string) (Identity, error) {
	return c.credentialExchange(ctx, "sign_up", "/auth/signup", email, password, "Sign up failed")
}

func (c *Client) credentialExchange(ctx context.Context, op, path, email, password, fallback string) (Identity, error) {
	var resp tokenResponse
	err := c.do(ctx, request{
		op:       op,
		method:   "POST",
		path:     path,
		body:     credentialsRequest{Email: email, Password: password},
		fallback: fallback,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}

	userID, err := SubjectFromToken(resp.AccessToken)
	if err != nil {
		return Identity{}, err
	}

	return Identity{Token: resp.AccessToken, UserID: userID}, nil
}
