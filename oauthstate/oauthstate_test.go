package oauthstate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueState(t *testing.T, store *Store) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	token, err := store.Issue(rec)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return token, cookies[0]
}

func requestWithCookie(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/integration/callback", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestStore_Issue(t *testing.T) {
	store := NewStore(false)
	token, cookie := issueState(t, store)

	assert.Len(t, token, 32) // 16 random bytes, hex encoded
	assert.Equal(t, "jira_oauth_state", cookie.Name)
	assert.Equal(t, token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 300, cookie.MaxAge)

	other, _ := issueState(t, store)
	assert.NotEqual(t, token, other, "state tokens must be unique per attempt")
}

func TestStore_SecureCookies(t *testing.T) {
	_, insecure := issueState(t, NewStore(false))
	assert.False(t, insecure.Secure)

	_, secure := issueState(t, NewStore(true))
	assert.True(t, secure.Secure)
}

func TestStore_ConsumeAndVerify(t *testing.T) {
	store := NewStore(false)

	t.Run("matching token verifies", func(t *testing.T) {
		token, cookie := issueState(t, store)

		rec := httptest.NewRecorder()
		assert.True(t, store.ConsumeAndVerify(rec, requestWithCookie(cookie), token))
	})

	t.Run("deletes cookie on success", func(t *testing.T) {
		token, cookie := issueState(t, store)

		rec := httptest.NewRecorder()
		store.ConsumeAndVerify(rec, requestWithCookie(cookie), token)

		cleared := rec.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Equal(t, "jira_oauth_state", cleared[0].Name)
		assert.Empty(t, cleared[0].Value)
		assert.Negative(t, cleared[0].MaxAge)
	})

	t.Run("deletes cookie on mismatch", func(t *testing.T) {
		_, cookie := issueState(t, store)

		rec := httptest.NewRecorder()
		assert.False(t, store.ConsumeAndVerify(rec, requestWithCookie(cookie), "attacker-controlled"))

		cleared := rec.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Negative(t, cleared[0].MaxAge)
	})

	t.Run("fails with no stored state", func(t *testing.T) {
		token, _ := issueState(t, store)

		rec := httptest.NewRecorder()
		assert.False(t, store.ConsumeAndVerify(rec, requestWithCookie(nil), token))
	})

	t.Run("fails with empty candidate", func(t *testing.T) {
		_, cookie := issueState(t, store)

		rec := httptest.NewRecorder()
		assert.False(t, store.ConsumeAndVerify(rec, requestWithCookie(cookie), ""))
	})

	t.Run("verifies exactly once", func(t *testing.T) {
		token, cookie := issueState(t, store)

		rec := httptest.NewRecorder()
		req := requestWithCookie(cookie)
		assert.True(t, store.ConsumeAndVerify(rec, req, token))

		// The browser would no longer send the cookie after deletion; a replayed
		// callback carries no stored state.
		rec2 := httptest.NewRecorder()
		assert.False(t, store.ConsumeAndVerify(rec2, requestWithCookie(nil), token))
	})
}
