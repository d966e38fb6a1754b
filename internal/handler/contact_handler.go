package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/landing/backend/internal/logging"
	"github.com/landing/backend/internal/metrics"
	"github.com/landing/backend/internal/model"
	"github.com/landing/backend/internal/service"
	"github.com/landing/backend/internal/validation"
)

// ContactHandler handles contact form submission.
type ContactHandler struct {
	contactService service.ContactService
	metrics        *metrics.Metrics
}

// NewContactHandler creates a ContactHandler with the given service. m may be nil.
func NewContactHandler(contactService service.ContactService, m *metrics.Metrics) *ContactHandler {
	return &ContactHandler{contactService: contactService, metrics: m}
}

// Submit handles POST /v1/contact. name, email and message are required and
// already normalized by the validation stage.
func (h *ContactHandler) Submit(ctx context.Context, input validation.Schema) (int, any, error) {
	req, ok := input.(*validation.ContactSchema)
	if !ok {
		return 0, nil, fmt.Errorf("contact: unexpected input %T", input)
	}

	msg := &model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := h.contactService.Submit(ctx, msg); err != nil {
		return 0, nil, err
	}

	h.metrics.ContactMessage()
	logging.FromContext(ctx).Info("contact message stored", "message_id", msg.ID)
	return http.StatusCreated, msg, nil
}
