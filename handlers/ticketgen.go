package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"sprintbackend/clients"
	"sprintbackend/config"
)

// TicketGenerationHandler proxies ticket generation requests to the external AI
// service, relaying its responses verbatim.
type TicketGenerationHandler struct {
	serviceConfig config.TicketServiceConfig
	ticketClient  clients.TicketGeneratorClient
}

func NewTicketGenerationHandler(
	serviceConfig config.TicketServiceConfig,
	ticketClient clients.TicketGeneratorClient,
) *TicketGenerationHandler {
	return &TicketGenerationHandler{
		serviceConfig: serviceConfig,
		ticketClient:  ticketClient,
	}
}

func (h *TicketGenerationHandler) HandleGenerateTicket(w http.ResponseWriter, r *http.Request) {
	log.Printf("🤖 Ticket generation request received from %s", r.RemoteAddr)

	var req clients.TicketGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Prompt == "" {
		log.Printf("❌ Missing prompt in request")
		h.writeErrorResponse(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	if h.serviceConfig.APIKey == "" {
		log.Printf("❌ Ticket generation service API key is not configured")
		h.writeErrorResponse(w, http.StatusInternalServerError, "Server configuration error: API key not set")
		return
	}

	result, err := h.ticketClient.GenerateTicket(r.Context(), req)
	if err != nil {
		log.Printf("❌ Ticket generation request failed: %v", err)
		h.writeErrorResponse(w, http.StatusBadGateway, "Failed to reach ticket generation service.")
		return
	}

	// Relay the downstream status and body untouched
	log.Printf("✅ Ticket generation completed with status: %d", result.StatusCode)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	if _, err := w.Write(result.Body); err != nil {
		log.Printf("❌ Failed to write ticket generation response: %v", err)
	}
}

func (h *TicketGenerationHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		log.Printf("❌ Failed to encode error response: %v", err)
	}
}
