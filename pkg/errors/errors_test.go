package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "Without cause",
			err:  New(ErrCodeSessionBusy, "user u1 holds the lock"),
			want: "SESSION_BUSY: user u1 holds the lock",
		},
		{
			name: "With cause",
			err:  Wrap(fmt.Errorf("connection refused"), ErrCodeStorageUnavailable, "failed to append swipe"),
			want: "STORAGE_UNAVAILABLE: failed to append swipe (connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), ErrCodeStorageUnavailable, "failed to get profile")

	assert.True(t, stderrors.Is(err, ErrStorageUnavailable))
	assert.False(t, stderrors.Is(err, ErrSessionBusy))

	wrapped := fmt.Errorf("finder: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrStorageUnavailable))
}

func TestAppError_UnwrapReachesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, ErrCodeStorageUnavailable, "failed to upsert match")

	assert.ErrorIs(t, err, cause)
}

func TestHasCode(t *testing.T) {
	inner := New(ErrCodeAlreadyExists, "duplicate match id")
	outer := Wrap(inner, ErrCodeInternalError, "upsert failed")

	assert.True(t, HasCode(outer, ErrCodeInternalError))
	assert.True(t, HasCode(outer, ErrCodeAlreadyExists))
	assert.False(t, HasCode(outer, ErrCodeNotFound))
	assert.False(t, HasCode(nil, ErrCodeNotFound))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeNotFound))
}
