package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landing/backend/internal/apperror"
	"github.com/landing/backend/internal/model"
)

// mockQuerier is a func-field Querier for exercising error classification
// without a database.
type mockQuerier struct {
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &emptyRows{}, nil
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return scanRow(func(...any) error { return pgx.ErrNoRows })
}

type scanRow func(dest ...any) error

func (f scanRow) Scan(dest ...any) error { return f(dest...) }

func rowErr(err error) func(context.Context, string, ...any) pgx.Row {
	return func(context.Context, string, ...any) pgx.Row {
		return scanRow(func(...any) error { return err })
	}
}

// emptyRows is a result set with no rows.
type emptyRows struct{ closed bool }

func (r *emptyRows) Close()                                       { r.closed = true }
func (r *emptyRows) Err() error                                   { return nil }
func (r *emptyRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT 0") }
func (r *emptyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *emptyRows) Next() bool                                   { return false }
func (r *emptyRows) Scan(...any) error                            { return errors.New("no row") }
func (r *emptyRows) Values() ([]any, error)                       { return nil, nil }
func (r *emptyRows) RawValues() [][]byte                          { return nil }
func (r *emptyRows) Conn() *pgx.Conn                              { return nil }

// captureList records the LIMIT/OFFSET arguments of a list query.
func captureList(limit, offset *any) func(context.Context, string, ...any) (pgx.Rows, error) {
	return func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
		*limit, *offset = args[0], args[1]
		return &emptyRows{}, nil
	}
}

// ---------------------------------------------------------------------------
// Subscriber repository
// ---------------------------------------------------------------------------

func TestPgSubscriberRepository_Create_Scans(t *testing.T) {
	now := time.Now()
	var gotEmail any
	db := &mockQuerier{queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
		gotEmail = args[0]
		return scanRow(func(dest ...any) error {
			*dest[0].(*int64) = 42
			*dest[1].(*string) = args[0].(string)
			*dest[2].(*time.Time) = now
			return nil
		})
	}}

	sub, err := NewPgSubscriberRepository(db).Create(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", gotEmail)
	assert.Equal(t, int64(42), sub.ID)
	assert.Equal(t, now, sub.CreatedAt)
}

func TestPgSubscriberRepository_Create_UniqueViolationIsConflict(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_subscribers_email"}
	repo := NewPgSubscriberRepository(&mockQuerier{queryRowFunc: rowErr(pgErr)})

	_, err := repo.Create(context.Background(), "dup@example.com")
	require.Error(t, err)
	appErr := apperror.As(err)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, MsgAlreadySubscribed, appErr.Message)
	assert.ErrorIs(t, err, pgErr)
}

func TestPgSubscriberRepository_Create_OtherErrorsStayOpaque(t *testing.T) {
	for _, cause := range []error{
		&pgconn.PgError{Code: "22021", Message: "invalid byte sequence for encoding \"UTF8\""},
		errors.New("connection reset by peer"),
	} {
		repo := NewPgSubscriberRepository(&mockQuerier{queryRowFunc: rowErr(cause)})

		_, err := repo.Create(context.Background(), "a@example.com")
		require.Error(t, err)
		assert.False(t, apperror.Is(err, apperror.KindConflict), "cause %v", cause)
		assert.ErrorIs(t, err, cause)
	}
}

func TestPgSubscriberRepository_FindByEmail_NoRowsIsNotFound(t *testing.T) {
	repo := NewPgSubscriberRepository(&mockQuerier{queryRowFunc: rowErr(pgx.ErrNoRows)})

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPgSubscriberRepository_DeleteByEmail_NoRowsIsNotFound(t *testing.T) {
	repo := NewPgSubscriberRepository(&mockQuerier{
		execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	})

	assert.ErrorIs(t, repo.DeleteByEmail(context.Background(), "missing@example.com"), ErrNotFound)
}

func TestPgSubscriberRepository_DeleteByEmail_Deleted(t *testing.T) {
	repo := NewPgSubscriberRepository(&mockQuerier{})
	assert.NoError(t, repo.DeleteByEmail(context.Background(), "a@example.com"))
}

func TestPgSubscriberRepository_List_DefaultLimit(t *testing.T) {
	var limit, offset any
	repo := NewPgSubscriberRepository(&mockQuerier{queryFunc: captureList(&limit, &offset)})

	subs, err := repo.List(context.Background(), model.ListOptions{Offset: -3})
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)
}

func TestPgSubscriberRepository_List_QueryError(t *testing.T) {
	boom := errors.New("boom")
	repo := NewPgSubscriberRepository(&mockQuerier{
		queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) { return nil, boom },
	})

	_, err := repo.List(context.Background(), model.ListOptions{})
	assert.ErrorIs(t, err, boom)
}

// ---------------------------------------------------------------------------
// Contact repository
// ---------------------------------------------------------------------------

func TestPgContactRepository_Create_PopulatesRecord(t *testing.T) {
	now := time.Now()
	var args []any
	db := &mockQuerier{queryRowFunc: func(_ context.Context, _ string, a ...any) pgx.Row {
		args = a
		return scanRow(func(dest ...any) error {
			*dest[0].(*int64) = 7
			*dest[1].(*time.Time) = now
			return nil
		})
	}}

	msg := &model.ContactMessage{Name: "Ada", Email: "ada@example.com", Message: "Hello"}
	require.NoError(t, NewPgContactRepository(db).Create(context.Background(), msg))
	assert.Equal(t, []any{"Ada", "ada@example.com", "Hello"}, args)
	assert.Equal(t, int64(7), msg.ID)
	assert.Equal(t, now, msg.CreatedAt)
}

func TestPgContactRepository_Create_ErrorPropagates(t *testing.T) {
	cause := &pgconn.PgError{Code: "22021"}
	repo := NewPgContactRepository(&mockQuerier{queryRowFunc: rowErr(cause)})

	err := repo.Create(context.Background(), &model.ContactMessage{})
	assert.ErrorIs(t, err, cause)
	assert.False(t, apperror.Is(err, apperror.KindConflict))
}

func TestPgContactRepository_FindByID_NoRowsIsNotFound(t *testing.T) {
	repo := NewPgContactRepository(&mockQuerier{queryRowFunc: rowErr(pgx.ErrNoRows)})

	_, err := repo.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPgContactRepository_DeleteByID_NoRowsIsNotFound(t *testing.T) {
	repo := NewPgContactRepository(&mockQuerier{
		execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	})

	assert.ErrorIs(t, repo.DeleteByID(context.Background(), 99), ErrNotFound)
}

func TestPgContactRepository_List_DefaultLimit(t *testing.T) {
	var limit, offset any
	repo := NewPgContactRepository(&mockQuerier{queryFunc: captureList(&limit, &offset)})

	_, err := repo.List(context.Background(), model.ListOptions{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 10, offset)
}
