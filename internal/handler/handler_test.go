package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/landing/backend/internal/apperror"
	"github.com/landing/backend/internal/config"
	"github.com/landing/backend/internal/model"
	"github.com/landing/backend/internal/repository"
	"github.com/landing/backend/internal/service"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockDB struct {
	pingFunc func(ctx context.Context) error
}

func (m *mockDB) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

type mockContactService struct {
	submitFunc func(ctx context.Context, msg *model.ContactMessage) error
	calls      int
}

func (m *mockContactService) Submit(ctx context.Context, msg *model.ContactMessage) error {
	m.calls++
	if m.submitFunc != nil {
		return m.submitFunc(ctx, msg)
	}
	msg.ID = int64(m.calls)
	msg.CreatedAt = time.Now()
	return nil
}

func (m *mockContactService) List(ctx context.Context, opts model.ListOptions) ([]*model.ContactMessage, error) {
	return nil, nil
}

func (m *mockContactService) Get(ctx context.Context, id int64) (*model.ContactMessage, error) {
	return nil, repository.ErrNotFound
}

func (m *mockContactService) Count(ctx context.Context) (int64, error) { return int64(m.calls), nil }

func (m *mockContactService) Delete(ctx context.Context, id int64) error { return nil }

// memSubscriberRepository enforces email uniqueness like the real table.
type memSubscriberRepository struct {
	mu      sync.Mutex
	byEmail map[string]*model.Subscriber
	nextID  int64
}

func newMemSubscriberRepository() *memSubscriberRepository {
	return &memSubscriberRepository{byEmail: map[string]*model.Subscriber{}}
}

func (m *memSubscriberRepository) Create(ctx context.Context, email string) (*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return nil, apperror.Conflict(repository.MsgAlreadySubscribed, errors.New("duplicate key value violates unique constraint"))
	}
	m.nextID++
	s := &model.Subscriber{ID: m.nextID, Email: email, CreatedAt: time.Now()}
	m.byEmail[email] = s
	return s, nil
}

func (m *memSubscriberRepository) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byEmail[email]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memSubscriberRepository) List(ctx context.Context, opts model.ListOptions) ([]*model.Subscriber, error) {
	return nil, nil
}

func (m *memSubscriberRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byEmail)), nil
}

func (m *memSubscriberRepository) DeleteByEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byEmail, email)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testOrigin = "https://landing.example.com"

type testEnv struct {
	server  *Server
	db      *mockDB
	subs    *memSubscriberRepository
	contact *mockContactService
}

func newTestEnv(t *testing.T, mutate func(*Options)) *testEnv {
	t.Helper()
	env := &testEnv{
		db:      &mockDB{},
		subs:    newMemSubscriberRepository(),
		contact: &mockContactService{},
	}
	opts := Options{
		AllowedOrigin: testOrigin,
		RateLimit: config.RateLimitConfig{
			Window:            15 * time.Minute,
			GlobalMax:         100,
			StrictMax:         50,
			TrustedProxyCount: 1,
		},
		DB:       env.db,
		Waitlist: service.NewWaitlistService(env.subs),
		Contact:  env.contact,
	}
	if mutate != nil {
		mutate(&opts)
	}
	env.server = NewServer(opts)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Trace   []string `json:"trace"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v; body: %s", err, rec.Body.String())
	}
	return env
}
