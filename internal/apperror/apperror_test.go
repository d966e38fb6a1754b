package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Status(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindConflict:        http.StatusConflict,
		KindNotFound:        http.StatusNotFound,
		KindUnauthorized:    http.StatusUnauthorized,
		KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
		KindUnavailable:     http.StatusServiceUnavailable,
		KindInternal:        http.StatusInternalServerError,
		Kind("BOGUS"):       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), "kind %s", kind)
	}
}

func TestAs_FindsWrappedError(t *testing.T) {
	base := Conflict("email already subscribed", errors.New("duplicate key"))
	wrapped := fmt.Errorf("create subscriber: %w", base)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Same(t, base, got)
	assert.Equal(t, KindConflict, got.Kind)
	assert.Equal(t, http.StatusConflict, got.Status())
}

func TestAs_UnknownErrorBecomesInternal(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	got := As(cause)

	require.NotNil(t, got)
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, MsgInternal, got.Message)
	assert.ErrorIs(t, got, cause)
}

func TestAs_Nil(t *testing.T) {
	assert.Nil(t, As(nil))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", Validation("email is required"))
	assert.True(t, Is(err, KindValidation))
	assert.False(t, Is(err, KindConflict))
	assert.False(t, Is(errors.New("plain"), KindValidation))
}

func TestError_MessageIncludesCause(t *testing.T) {
	err := Wrap(KindInternal, "boom", errors.New("root cause"))
	assert.Equal(t, "INTERNAL_ERROR: boom: root cause", err.Error())
	assert.Equal(t, "VALIDATION_ERROR: bad", Validation("bad").Error())
}

func TestConstructors_DefaultMessages(t *testing.T) {
	assert.Equal(t, MsgNotFound, NotFound("").Message)
	assert.Equal(t, MsgUnauthorized, Unauthorized("").Message)
	assert.Equal(t, MsgUnavailable, Unavailable("", nil).Message)
	assert.Equal(t, MsgTooLarge, PayloadTooLarge(nil).Message)
}
