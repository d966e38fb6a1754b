package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landing/backend/internal/logging"
)

func TestRequestIDStage_GeneratesID(t *testing.T) {
	buf := captureDefaultLogger(t)
	rec, out := runStage(RequestIDStage(), httptest.NewRequest("GET", "/", nil))

	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NotNil(t, out.req)

	logging.FromContext(out.req.Context()).Info("scoped")
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
}

func TestRequestIDStage_ReusesValidID(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, id)

	rec, _ := runStage(RequestIDStage(), req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDStage_ReplacesGarbage(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")

	rec, _ := runStage(RequestIDStage(), req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}
