package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/landing/backend/internal/apperror"
	"github.com/landing/backend/internal/model"
)

// MsgAlreadySubscribed is the client-facing message for a duplicate signup.
const MsgAlreadySubscribed = "Email already subscribed"

// PgSubscriberRepository is the PostgreSQL implementation of SubscriberRepository.
type PgSubscriberRepository struct {
	db Querier
}

// NewPgSubscriberRepository creates a PgSubscriberRepository backed by db.
func NewPgSubscriberRepository(db Querier) *PgSubscriberRepository {
	return &PgSubscriberRepository{db: db}
}

var _ SubscriberRepository = (*PgSubscriberRepository)(nil)

// Create inserts a subscriber. email must already be validated and
// lowercased. A duplicate email fails with an apperror of kind CONFLICT; the
// unique index is the only arbiter between concurrent signups.
func (r *PgSubscriberRepository) Create(ctx context.Context, email string) (*model.Subscriber, error) {
	var s model.Subscriber
	err := r.db.QueryRow(ctx,
		`INSERT INTO subscribers (email) VALUES ($1)
		 RETURNING id, email, created_at`,
		email,
	).Scan(&s.ID, &s.Email, &s.CreatedAt)
	if isUniqueViolation(err) {
		return nil, apperror.Conflict(MsgAlreadySubscribed, err)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByEmail returns the subscriber with the given email (case-insensitive).
func (r *PgSubscriberRepository) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	var s model.Subscriber
	err := r.db.QueryRow(ctx,
		`SELECT id, email, created_at FROM subscribers WHERE email = LOWER($1)`,
		email,
	).Scan(&s.ID, &s.Email, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns subscribers newest first. Limit defaults to 100.
func (r *PgSubscriberRepository) List(ctx context.Context, opts model.ListOptions) ([]*model.Subscriber, error) {
	opts = opts.WithDefaults(model.DefaultSubscriberListLimit)
	rows, err := r.db.Query(ctx,
		`SELECT id, email, created_at FROM subscribers
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*model.Subscriber
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

// Count returns the number of subscribers.
func (r *PgSubscriberRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&n)
	return n, err
}

// DeleteByEmail removes a subscriber. Returns ErrNotFound if none matched.
func (r *PgSubscriberRepository) DeleteByEmail(ctx context.Context, email string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscribers WHERE email = LOWER($1)`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
