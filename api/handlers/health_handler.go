package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	version string
	busy    func() bool
	history bool
}

// NewHealthHandler creates a new health handler. busy reports whether a
// transfer is running.
func NewHealthHandler(version string, busy func() bool, history bool) *HealthHandler {
	return &HealthHandler{
		version: version,
		busy:    busy,
		history: history,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Transfer struct {
		Busy bool `json:"busy"`
	} `json:"transfer"`
	History bool `json:"history"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
		History: h.history,
	}
	if h.busy != nil {
		response.Transfer.Busy = h.busy()
	}

	c.JSON(http.StatusOK, response)
}
