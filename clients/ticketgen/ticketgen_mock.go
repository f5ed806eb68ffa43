package ticketgen

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sprintbackend/clients"
)

// MockTicketGeneratorClient is a mock implementation of clients.TicketGeneratorClient
type MockTicketGeneratorClient struct {
	mock.Mock
}

// NewMockTicketGeneratorClient creates a new mock client for testing
func NewMockTicketGeneratorClient() *MockTicketGeneratorClient {
	return &MockTicketGeneratorClient{}
}

func (m *MockTicketGeneratorClient) GenerateTicket(
	ctx context.Context,
	req clients.TicketGenerationRequest,
) (*clients.TicketGenerationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.TicketGenerationResult), args.Error(1)
}
