package service

import (
	"context"
	"fmt"

	"github.com/landing/backend/internal/model"
	"github.com/landing/backend/internal/repository"
)

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo repository.ContactRepository
}

// NewContactService creates a ContactService backed by the given repository.
func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactServiceImpl{repo: repo}
}

// Submit persists msg. Input is assumed validated and normalized.
func (s *contactServiceImpl) Submit(ctx context.Context, msg *model.ContactMessage) error {
	if err := s.repo.Create(ctx, msg); err != nil {
		return fmt.Errorf("save contact message: %w", err)
	}
	return nil
}

func (s *contactServiceImpl) List(ctx context.Context, opts model.ListOptions) ([]*model.ContactMessage, error) {
	return s.repo.List(ctx, opts.WithDefaults(model.DefaultContactListLimit))
}

func (s *contactServiceImpl) Get(ctx context.Context, id int64) (*model.ContactMessage, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *contactServiceImpl) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *contactServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteByID(ctx, id)
}
