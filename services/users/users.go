package users

import (
	"context"
	"fmt"
	"log"

	"sprintbackend/db"
	"sprintbackend/models"
)

type UsersService struct {
	usersRepo *db.PostgresUsersRepository
}

func NewUsersService(repo *db.PostgresUsersRepository) *UsersService {
	return &UsersService{usersRepo: repo}
}

func (s *UsersService) GetOrCreateUser(
	ctx context.Context,
	authProvider, authProviderID, email string,
) (*models.User, error) {
	log.Printf("📋 Starting to get or create user for authProvider: %s, authProviderID: %s", authProvider, authProviderID)

	if authProvider == "" {
		return nil, fmt.Errorf("auth_provider cannot be empty")
	}

	if authProviderID == "" {
		return nil, fmt.Errorf("auth_provider_id cannot be empty")
	}

	user, err := s.usersRepo.GetUserByAuthProvider(ctx, authProvider, authProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by auth provider: %w", err)
	}
	if user != nil {
		log.Printf("📋 Completed successfully - retrieved existing user with ID: %s", user.ID)
		return user, nil
	}

	user, err = s.usersRepo.CreateUser(ctx, authProvider, authProviderID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("📋 Completed successfully - created user with ID: %s", user.ID)
	return user, nil
}
