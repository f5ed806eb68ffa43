package core

import (
	"errors"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrNotIntegrated indicates that no Jira integration record exists for the user.
// Callers should prompt the user to connect Jira, not to retry.
var ErrNotIntegrated = errors.New("jira not integrated")

// ErrCredentialsRevoked indicates the stored Jira credentials were rejected by
// Atlassian, either on a refresh-grant call or on a downstream API call. The only
// recovery is reconnecting the integration.
var ErrCredentialsRevoked = errors.New("jira credentials invalid or revoked")

// ErrNoAccessibleResources indicates the OAuth flow completed but the granted token
// has no accessible Jira Cloud resources at all.
var ErrNoAccessibleResources = errors.New("no accessible jira resources")

// ErrNoResourceWithRequiredScopes indicates accessible resources exist, but none of
// them carries the minimum read scope the application depends on.
var ErrNoResourceWithRequiredScopes = errors.New("no jira resource with required scopes")

// ErrProviderUnreachable indicates the request never produced an HTTP response
// from the provider - DNS failure, refused connection or timeout.
var ErrProviderUnreachable = errors.New("provider unreachable")

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}
