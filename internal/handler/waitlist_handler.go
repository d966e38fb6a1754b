package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/landing/backend/internal/apperror"
	"github.com/landing/backend/internal/logging"
	"github.com/landing/backend/internal/metrics"
	"github.com/landing/backend/internal/service"
	"github.com/landing/backend/internal/validation"
)

// WaitlistHandler handles waitlist signups.
type WaitlistHandler struct {
	waitlist service.WaitlistService
	metrics  *metrics.Metrics
}

// NewWaitlistHandler creates a WaitlistHandler. m may be nil.
func NewWaitlistHandler(waitlist service.WaitlistService, m *metrics.Metrics) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist, metrics: m}
}

// Subscribe handles POST /v1/waitlist.
func (h *WaitlistHandler) Subscribe(ctx context.Context, input validation.Schema) (int, any, error) {
	req, ok := input.(*validation.WaitlistSchema)
	if !ok {
		return 0, nil, fmt.Errorf("waitlist: unexpected input %T", input)
	}

	sub, err := h.waitlist.Subscribe(ctx, req.Email)
	if err != nil {
		if apperror.Is(err, apperror.KindConflict) {
			h.metrics.Signup(metrics.SignupConflict)
		}
		return 0, nil, err
	}

	h.metrics.Signup(metrics.SignupCreated)
	logging.FromContext(ctx).Info("subscriber created", "subscriber_id", sub.ID)
	return http.StatusCreated, sub, nil
}
