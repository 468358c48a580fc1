package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("tagged error", func(t *testing.T) {
		err := New(KindNotFound, "no record found")
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.True(t, IsKind(err, KindNotFound))
		assert.False(t, IsKind(err, KindDuplicateRecord))
	})

	t.Run("wrapped further up", func(t *testing.T) {
		err := fmt.Errorf("use case failed: %w", New(KindInvalidState, "not active"))
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("untagged error", func(t *testing.T) {
		assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
		assert.Equal(t, Kind(""), KindOf(nil))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil cause returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(KindDatabaseAccess, "query", nil))
	})

	t.Run("cause is unwrappable", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(KindDatabaseAccess, "query", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "IDR-006")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestStableCodes(t *testing.T) {
	assert.Equal(t, "IDR-001", New(KindDuplicateRecord, "x").Code)
	assert.Equal(t, "IDR-002", New(KindNotFound, "x").Code)
	assert.Equal(t, "IDR-003", New(KindInvalidState, "x").Code)
	assert.Equal(t, "IDR-004", New(KindInvalidInput, "x").Code)
	assert.Equal(t, "IDR-005", New(KindStorageAccess, "x").Code)
	assert.Equal(t, "IDR-006", New(KindDatabaseAccess, "x").Code)
	assert.Equal(t, "IDR-007", New(KindShardResolution, "x").Code)
}
