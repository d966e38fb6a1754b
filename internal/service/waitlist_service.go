package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/landing/backend/internal/model"
	"github.com/landing/backend/internal/repository"
)

// WaitlistService manages waitlist signups.
type WaitlistService interface {
	// Subscribe adds email to the waitlist. A duplicate address fails with an
	// apperror of kind CONFLICT.
	Subscribe(ctx context.Context, email string) (*model.Subscriber, error)

	List(ctx context.Context, opts model.ListOptions) ([]*model.Subscriber, error)
	Find(ctx context.Context, email string) (*model.Subscriber, error)
	Count(ctx context.Context) (int64, error)
	Remove(ctx context.Context, email string) error
}

type waitlistServiceImpl struct {
	repo repository.SubscriberRepository
}

// NewWaitlistService creates a WaitlistService backed by the given repository.
func NewWaitlistService(repo repository.SubscriberRepository) WaitlistService {
	return &waitlistServiceImpl{repo: repo}
}

func (s *waitlistServiceImpl) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	sub, err := s.repo.Create(ctx, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("create subscriber: %w", err)
	}
	return sub, nil
}

func (s *waitlistServiceImpl) List(ctx context.Context, opts model.ListOptions) ([]*model.Subscriber, error) {
	return s.repo.List(ctx, opts.WithDefaults(model.DefaultSubscriberListLimit))
}

func (s *waitlistServiceImpl) Find(ctx context.Context, email string) (*model.Subscriber, error) {
	return s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *waitlistServiceImpl) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *waitlistServiceImpl) Remove(ctx context.Context, email string) error {
	return s.repo.DeleteByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
