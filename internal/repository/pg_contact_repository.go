package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/landing/backend/internal/model"
)

// PgContactRepository is the PostgreSQL implementation of ContactRepository.
type PgContactRepository struct {
	db Querier
}

// NewPgContactRepository creates a PgContactRepository backed by db.
func NewPgContactRepository(db Querier) *PgContactRepository {
	return &PgContactRepository{db: db}
}

// Ensure PgContactRepository implements ContactRepository at compile time.
var _ ContactRepository = (*PgContactRepository)(nil)

// Create inserts a new contact_messages row and populates msg.ID and
// msg.CreatedAt from the RETURNING clause.
func (r *PgContactRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		msg.Name, msg.Email, msg.Message,
	).Scan(&msg.ID, &msg.CreatedAt)
}

// FindByID returns the message with the given id.
func (r *PgContactRepository) FindByID(ctx context.Context, id int64) (*model.ContactMessage, error) {
	var m model.ContactMessage
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, message, created_at FROM contact_messages WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns contact messages newest first. Limit defaults to 50.
func (r *PgContactRepository) List(ctx context.Context, opts model.ListOptions) ([]*model.ContactMessage, error) {
	opts = opts.WithDefaults(model.DefaultContactListLimit)
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, message, created_at FROM contact_messages
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.ContactMessage
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// Count returns the number of stored messages.
func (r *PgContactRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contact_messages`).Scan(&n)
	return n, err
}

// DeleteByID removes a message. Returns ErrNotFound if none matched.
func (r *PgContactRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
