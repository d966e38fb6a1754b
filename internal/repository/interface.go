package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/landing/backend/internal/model"
)

// DB checks that the store is reachable.
type DB interface {
	Ping(ctx context.Context) error
}

// Querier is the query surface the stores use. Both *Pool and
// *pgxpool.Pool satisfy it. Caller values are always passed as positional
// parameters, never formatted into sql.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SubscriberRepository persists waitlist subscribers.
type SubscriberRepository interface {
	Create(ctx context.Context, email string) (*model.Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*model.Subscriber, error)
	List(ctx context.Context, opts model.ListOptions) ([]*model.Subscriber, error)
	Count(ctx context.Context) (int64, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// ContactRepository persists contact form messages.
type ContactRepository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
	FindByID(ctx context.Context, id int64) (*model.ContactMessage, error)
	List(ctx context.Context, opts model.ListOptions) ([]*model.ContactMessage, error)
	Count(ctx context.Context) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
}
