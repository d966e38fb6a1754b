package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/landing/backend/internal/apperror"
	"github.com/landing/backend/internal/model"
	"github.com/landing/backend/internal/repository"
)

type mockSubscriberRepository struct {
	createFunc func(ctx context.Context, email string) (*model.Subscriber, error)
	findFunc   func(ctx context.Context, email string) (*model.Subscriber, error)
	listFunc   func(ctx context.Context, opts model.ListOptions) ([]*model.Subscriber, error)
	countFunc  func(ctx context.Context) (int64, error)
	deleteFunc func(ctx context.Context, email string) error
}

func (m *mockSubscriberRepository) Create(ctx context.Context, email string) (*model.Subscriber, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, email)
	}
	return &model.Subscriber{ID: 1, Email: email, CreatedAt: time.Now()}, nil
}

func (m *mockSubscriberRepository) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m *mockSubscriberRepository) List(ctx context.Context, opts model.ListOptions) ([]*model.Subscriber, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, opts)
	}
	return nil, nil
}

func (m *mockSubscriberRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockSubscriberRepository) DeleteByEmail(ctx context.Context, email string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, email)
	}
	return nil
}

func TestWaitlistService_Subscribe_LowercasesEmail(t *testing.T) {
	var stored string
	mock := &mockSubscriberRepository{
		createFunc: func(ctx context.Context, email string) (*model.Subscriber, error) {
			stored = email
			return &model.Subscriber{ID: 5, Email: email}, nil
		},
	}
	svc := NewWaitlistService(mock)

	sub, err := svc.Subscribe(context.Background(), "USER@Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != "user@example.com" {
		t.Errorf("expected lowercased email stored, got %q", stored)
	}
	if sub.ID != 5 {
		t.Errorf("expected id=5, got %d", sub.ID)
	}
}

func TestWaitlistService_Subscribe_ConflictPropagates(t *testing.T) {
	mock := &mockSubscriberRepository{
		createFunc: func(ctx context.Context, email string) (*model.Subscriber, error) {
			return nil, apperror.Conflict(repository.MsgAlreadySubscribed, errors.New("23505"))
		},
	}
	svc := NewWaitlistService(mock)

	_, err := svc.Subscribe(context.Background(), "a@b.com")
	if !apperror.Is(err, apperror.KindConflict) {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestWaitlistService_List_AppliesDefaultLimit(t *testing.T) {
	var captured model.ListOptions
	mock := &mockSubscriberRepository{
		listFunc: func(ctx context.Context, opts model.ListOptions) ([]*model.Subscriber, error) {
			captured = opts
			return nil, nil
		},
	}
	svc := NewWaitlistService(mock)

	if _, err := svc.List(context.Background(), model.ListOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Limit != 100 {
		t.Errorf("expected default limit=100, got %d", captured.Limit)
	}
}

func TestWaitlistService_FindAndRemove_NormalizeEmail(t *testing.T) {
	var found, removed string
	mock := &mockSubscriberRepository{
		findFunc: func(ctx context.Context, email string) (*model.Subscriber, error) {
			found = email
			return &model.Subscriber{Email: email}, nil
		},
		deleteFunc: func(ctx context.Context, email string) error {
			removed = email
			return nil
		},
	}
	svc := NewWaitlistService(mock)

	if _, err := svc.Find(context.Background(), " Mixed@Case.IO "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Remove(context.Background(), "Mixed@Case.IO"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != "mixed@case.io" || removed != "mixed@case.io" {
		t.Errorf("expected normalized email, got find=%q remove=%q", found, removed)
	}
}
