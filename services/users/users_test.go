package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintbackend/db"
	"sprintbackend/testutils"
)

func setupUsersTest(t *testing.T) (*UsersService, func()) {
	cfg, err := testutils.LoadTestConfig()
	require.NoError(t, err)

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	require.NoError(t, err)

	repo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	service := NewUsersService(repo)

	return service, func() { dbConn.Close() }
}

func TestUsersService_GetOrCreateUser(t *testing.T) {
	service, cleanup := setupUsersTest(t)
	defer cleanup()

	t.Run("creates user on first call and returns same user after", func(t *testing.T) {
		providerID := uuid.New().String()
		email := fmt.Sprintf("%s@example.com", providerID)

		created, err := service.GetOrCreateUser(context.Background(), "clerk", providerID, email)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "clerk", created.AuthProvider)
		assert.Equal(t, providerID, created.AuthProviderID)
		assert.Equal(t, email, created.Email)

		again, err := service.GetOrCreateUser(context.Background(), "clerk", providerID, email)
		require.NoError(t, err)
		assert.Equal(t, created.ID, again.ID)
	})

	t.Run("empty auth provider rejected", func(t *testing.T) {
		_, err := service.GetOrCreateUser(context.Background(), "", "some-id", "a@b.com")
		assert.Error(t, err)
	})

	t.Run("empty auth provider ID rejected", func(t *testing.T) {
		_, err := service.GetOrCreateUser(context.Background(), "clerk", "", "a@b.com")
		assert.Error(t, err)
	})
}
