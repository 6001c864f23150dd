package server

import (
	"net/http"
	"strings"
)

// extractToken pulls the API key from the request. Precedence: Authorization
// header (must be Bearer), then X-API-Key, then the api_key query parameter.
// A non-Bearer Authorization header yields an empty token rather than falling
// through to the other sources.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if !strings.HasPrefix(auth, "Bearer ") {
			return ""
		}
		return strings.TrimPrefix(auth, "Bearer ")
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}

	return r.URL.Query().Get("api_key")
}
