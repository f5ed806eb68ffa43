package ticketgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sprintbackend/clients"
)

// TicketGeneratorClient implements clients.TicketGeneratorClient against the AI
// ticket generation service.
type TicketGeneratorClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewTicketGeneratorClient creates a ticket generation client. The generous
// timeout accommodates model inference latency.
func NewTicketGeneratorClient(baseURL, apiKey string) clients.TicketGeneratorClient {
	return &TicketGeneratorClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// GenerateTicket forwards the prompt to the ticket service and returns its
// response verbatim - status code and body included - so callers can relay it.
func (c *TicketGeneratorClient) GenerateTicket(
	ctx context.Context,
	genReq clients.TicketGenerationRequest,
) (*clients.TicketGenerationResult, error) {
	jsonBody, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/generate-ticket", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ticket generation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket generation response: %w", err)
	}

	return &clients.TicketGenerationResult{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(body),
	}, nil
}
