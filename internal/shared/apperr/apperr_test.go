package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindMalformedRequest, http.StatusBadRequest},
		{KindValidationFailed, http.StatusBadRequest},
		{KindFileTooLarge, http.StatusBadRequest},
		{KindUnsupportedFormat, http.StatusBadRequest},
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindInvalidToken, http.StatusUnauthorized},
		{KindExpired, http.StatusUnauthorized},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindTooManyAttempts, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestFrom_UnknownBecomesInternal(t *testing.T) {
	cause := errors.New("boom")
	e := From(fmt.Errorf("wrap: %w", cause))

	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "internal error", e.Message)
	assert.ErrorIs(t, e, cause)
	assert.Nil(t, From(nil))
}

func TestFrom_KeepsDomainError(t *testing.T) {
	wrapped := fmt.Errorf("gate: %w", Expired())
	assert.Equal(t, KindExpired, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, ErrExpired)
	assert.NotErrorIs(t, wrapped, ErrInvalidToken)
}

func TestInvalidCredentials_SameMessageDifferentReason(t *testing.T) {
	a := InvalidCredentials("unknown_account")
	b := InvalidCredentials("password_mismatch")

	assert.Equal(t, a.Kind, b.Kind)
	assert.Equal(t, a.Message, b.Message)
	assert.NotEqual(t, a.Reason, b.Reason)
}

func TestError_String(t *testing.T) {
	assert.Equal(t, "validation_failed(password): too short", Validation("password", "too short").Error())
}
