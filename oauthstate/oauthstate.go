package oauthstate

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

const (
	cookieName = "jira_oauth_state"
	// State tokens are bound to one authorization attempt and expire quickly.
	stateTTL = 5 * time.Minute
)

// Store issues and verifies single-use CSRF state tokens for OAuth authorization
// attempts. Tokens live in an http-only cookie on the initiating browser, so a
// callback can only succeed in the browser context that started the flow.
type Store struct {
	secureCookies bool
}

// NewStore creates a state store. secureCookies should be true outside local dev.
func NewStore(secureCookies bool) *Store {
	return &Store{secureCookies: secureCookies}
}

// Issue generates a cryptographically random state token and sets it as a
// short-lived cookie on the response.
func (s *Store) Issue(w http.ResponseWriter) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	token := hex.EncodeToString(raw)

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	return token, nil
}

// ConsumeAndVerify reads the stored state token, deletes it unconditionally, and
// reports whether it matches candidate. A token verifies at most once - repeated
// calls and mismatches both leave no stored state behind.
func (s *Store) ConsumeAndVerify(w http.ResponseWriter, r *http.Request, candidate string) bool {
	cookie, err := r.Cookie(cookieName)

	// Delete regardless of outcome: single use even on mismatch.
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil || cookie.Value == "" || candidate == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(candidate)) == 1
}
