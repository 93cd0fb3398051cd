package ws

import (
	"net/http"
	"strings"

	"nutrihub/internal/auth"
)

// extractToken extracts the JWT token from a websocket handshake request.
// Priority: 1. token query parameter, 2. Authorization header.
func extractToken(r *http.Request) string {
	// Browser clients cannot set headers on a websocket handshake, so
	// the token travels as a query parameter
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	return ""
}

// authenticate validates the handshake request and returns its claims
func authenticate(r *http.Request) (*auth.Claims, error) {
	token := extractToken(r)
	if token == "" {
		return nil, errNoToken
	}
	return auth.ParseToken(token)
}
