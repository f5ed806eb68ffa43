package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintbackend/clients"
)

func TestExchangeCodeForTokens(t *testing.T) {
	t.Run("successful exchange", func(t *testing.T) {
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/oauth/token", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "at-123",
				"refresh_token": "rt-456",
				"expires_in":    3600,
				"scope":         "read:jira-work offline_access",
				"token_type":    "Bearer",
			})
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "https://app.example.com/callback", server.URL, server.URL)

		tokens, err := client.ExchangeCodeForTokens(context.Background(), "auth-code-xyz")
		require.NoError(t, err)

		assert.Equal(t, "authorization_code", gotBody["grant_type"])
		assert.Equal(t, "cid", gotBody["client_id"])
		assert.Equal(t, "csecret", gotBody["client_secret"])
		assert.Equal(t, "auth-code-xyz", gotBody["code"])
		assert.Equal(t, "https://app.example.com/callback", gotBody["redirect_uri"])

		assert.Equal(t, "at-123", tokens.AccessToken)
		assert.Equal(t, "rt-456", tokens.RefreshToken)
		assert.Equal(t, "read:jira-work offline_access", tokens.Scopes)
		assert.WithinDuration(t, time.Now().Add(time.Hour), tokens.ExpiresAt, 5*time.Second)
	})

	t.Run("empty code rejected without request", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		_, err := client.ExchangeCodeForTokens(context.Background(), "")
		assert.Error(t, err)
		assert.False(t, called)
	})

	t.Run("provider rejection surfaces status and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		_, err := client.ExchangeCodeForTokens(context.Background(), "bad-code")
		require.Error(t, err)

		var providerErr *clients.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, http.StatusBadRequest, providerErr.StatusCode)
		assert.Contains(t, providerErr.Body, "invalid_grant")
		assert.False(t, providerErr.IsUnauthorized())
	})
}

func TestRefreshAccessToken(t *testing.T) {
	t.Run("rotates both tokens", func(t *testing.T) {
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "new-at",
				"refresh_token": "new-rt",
				"expires_in":    3600,
			})
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		tokens, err := client.RefreshAccessToken(context.Background(), "old-rt")
		require.NoError(t, err)

		assert.Equal(t, "refresh_token", gotBody["grant_type"])
		assert.Equal(t, "old-rt", gotBody["refresh_token"])
		assert.Equal(t, "new-at", tokens.AccessToken)
		assert.Equal(t, "new-rt", tokens.RefreshToken)
	})

	t.Run("keeps old refresh token when provider omits it", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "new-at",
				"expires_in":   3600,
			})
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		tokens, err := client.RefreshAccessToken(context.Background(), "old-rt")
		require.NoError(t, err)
		assert.Equal(t, "old-rt", tokens.RefreshToken)
	})

	t.Run("revoked grant is an unauthorized provider error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		_, err := client.RefreshAccessToken(context.Background(), "revoked-rt")
		require.Error(t, err)

		var providerErr *clients.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.True(t, providerErr.IsUnauthorized())
	})
}

func TestGetAccessibleResources(t *testing.T) {
	t.Run("returns resources with scopes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/oauth/token/accessible-resources", r.URL.Path)
			assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
			w.Write([]byte(`[
				{"id":"cloud-1","name":"site-one","url":"https://one.atlassian.net","scopes":["read:jira-work","write:jira-work"]},
				{"id":"cloud-2","name":"site-two","url":"https://two.atlassian.net","scopes":["read:jira-work"]}
			]`))
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		resources, err := client.GetAccessibleResources(context.Background(), "at-123")
		require.NoError(t, err)
		require.Len(t, resources, 2)
		assert.Equal(t, "cloud-1", resources[0].ID)
		assert.True(t, resources[0].HasScope("write:jira-work"))
		assert.False(t, resources[1].HasScope("write:jira-work"))
	})

	t.Run("empty list is not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		resources, err := client.GetAccessibleResources(context.Background(), "at-123")
		require.NoError(t, err)
		assert.Empty(t, resources)
	})
}

func TestSearchIssues(t *testing.T) {
	t.Run("sends bounded jql query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ex/jira/cloud-1/rest/api/3/search", r.URL.Path)
			assert.Equal(t, "project = PROJ", r.URL.Query().Get("jql"))
			assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
			assert.Equal(t, "summary,description,status,assignee,priority", r.URL.Query().Get("fields"))
			w.Write([]byte(`{"issues":[{"key":"PROJ-1"}]}`))
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		raw, err := client.SearchIssues(context.Background(), "cloud-1", "at-123", "PROJ")
		require.NoError(t, err)
		assert.JSONEq(t, `{"issues":[{"key":"PROJ-1"}]}`, string(raw))
	})

	t.Run("empty project key rejected", func(t *testing.T) {
		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", "http://unused", "http://unused")

		_, err := client.SearchIssues(context.Background(), "cloud-1", "at-123", "")
		assert.Error(t, err)
	})

	t.Run("expired token surfaces as unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"token expired"}`))
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		_, err := client.SearchIssues(context.Background(), "cloud-1", "stale", "PROJ")
		require.Error(t, err)

		var providerErr *clients.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.True(t, providerErr.IsUnauthorized())
	})
}

func TestCreateIssue(t *testing.T) {
	t.Run("builds ADF payload and decodes created issue", func(t *testing.T) {
		var gotPayload map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/ex/jira/cloud-1/rest/api/3/issue", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"10001","key":"PROJ-42","self":"https://one.atlassian.net/rest/api/3/issue/10001"}`))
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		created, err := client.CreateIssue(context.Background(), "cloud-1", "at-123", clients.JiraCreateIssueParams{
			ProjectKey:  "PROJ",
			Title:       "Fix the thing",
			Description: "It is broken",
			Priority:    "High",
			Labels:      []string{"bug"},
		})
		require.NoError(t, err)
		assert.Equal(t, "PROJ-42", created.Key)
		assert.Equal(t, "10001", created.ID)

		fields := gotPayload["fields"].(map[string]any)
		assert.Equal(t, "Fix the thing", fields["summary"])
		assert.Equal(t, map[string]any{"key": "PROJ"}, fields["project"])
		assert.Equal(t, map[string]any{"name": "Task"}, fields["issuetype"])
		assert.Equal(t, map[string]any{"name": "High"}, fields["priority"])

		desc := fields["description"].(map[string]any)
		assert.Equal(t, "doc", desc["type"])
	})

	t.Run("omits optional fields when absent", func(t *testing.T) {
		var gotPayload map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"10002","key":"PROJ-43","self":""}`))
		}))
		defer server.Close()

		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", server.URL, server.URL)

		_, err := client.CreateIssue(context.Background(), "cloud-1", "at-123", clients.JiraCreateIssueParams{
			ProjectKey: "PROJ",
			Title:      "Bare issue",
		})
		require.NoError(t, err)

		fields := gotPayload["fields"].(map[string]any)
		assert.NotContains(t, fields, "description")
		assert.NotContains(t, fields, "priority")
		assert.NotContains(t, fields, "labels")
	})

	t.Run("missing title rejected", func(t *testing.T) {
		client := NewJiraClientWithBaseURLs("cid", "csecret", "uri", "http://unused", "http://unused")

		_, err := client.CreateIssue(context.Background(), "cloud-1", "at-123", clients.JiraCreateIssueParams{
			ProjectKey: "PROJ",
		})
		assert.Error(t, err)
	})
}
