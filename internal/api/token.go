package api

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SubjectFromToken decodes the claims segment of a three-segment token and
// returns its subject claim.
//
// This is a display/UX convenience only and never a trust boundary: the
// signature is not verified here, and every protected call relies solely on
// server-side verification.
func SubjectFromToken(token string) (string, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("decode token claims: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token carries no subject claim")
	}
	return sub, nil
}
