package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/landing/backend/internal/apperror"
	"github.com/landing/backend/internal/repository"
	"github.com/landing/backend/internal/validation"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler reports liveness after verifying the store answers.
type HealthHandler struct {
	db  repository.DB
	now func() time.Time
}

// NewHealthHandler creates a HealthHandler checking db.
func NewHealthHandler(db repository.DB) *HealthHandler {
	return &HealthHandler{db: db, now: time.Now}
}

// Health handles GET /health.
func (h *HealthHandler) Health(ctx context.Context, _ validation.Schema) (int, any, error) {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return 0, nil, apperror.Unavailable("Database unavailable", err)
	}
	return http.StatusOK, healthResponse{Status: "ok", Timestamp: h.now().UTC()}, nil
}
