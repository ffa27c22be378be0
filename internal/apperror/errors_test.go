package apperror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errLineNotFound = New(KindNotFound, "CART_LINE_NOT_FOUND", "Cart item not found")

func TestIs_KindSentinelMatchesSpecificErrors(t *testing.T) {
	wrapped := fmt.Errorf("remove line: %w", errLineNotFound)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, errLineNotFound))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
}

func TestIs_SpecificSentinelNeedsSameCode(t *testing.T) {
	other := New(KindNotFound, "ORDER_NOT_FOUND", "Order not found")

	assert.False(t, errors.Is(other, errLineNotFound))
	assert.True(t, errors.Is(other, ErrNotFound))
}

func TestWrap_KeepsKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := TransactionFailed(cause)

	assert.Equal(t, KindTransactionFailed, KindOf(err))
	assert.True(t, errors.Is(err, ErrTransactionFailed))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
}

func TestCopiesDoNotMutateSentinels(t *testing.T) {
	_ = ErrValidation.WithDetails("quantity must be at least 1")
	_ = Validation("bad quantity")

	assert.Empty(t, ErrValidation.Details())
	assert.Equal(t, "Invalid request", ErrValidation.Message())
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrEmailNotConfirmed, http.StatusForbidden},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrEmptyCart, http.StatusUnprocessableEntity},
		{ErrValidation, http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
		})
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
