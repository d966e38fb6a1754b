package service

import (
	"context"

	"github.com/landing/backend/internal/model"
)

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit stores a new contact message. msg.ID and msg.CreatedAt are
	// populated by the implementation.
	Submit(ctx context.Context, msg *model.ContactMessage) error

	// List returns contact messages newest first.
	List(ctx context.Context, opts model.ListOptions) ([]*model.ContactMessage, error)

	Get(ctx context.Context, id int64) (*model.ContactMessage, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
}
