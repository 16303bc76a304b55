package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"wrapped ErrNotFound", fmt.Errorf("failed to do something: %w", ErrNotFound), true},
		{"ErrItemNotFound", ErrItemNotFound, true},
		{"ErrCollectionNotFound", ErrCollectionNotFound, true},
		{"ErrLedgerEntryNotFound", ErrLedgerEntryNotFound, true},
		{"ErrSettingsNotFound", ErrSettingsNotFound, true},
		{"store error wrapping not found", NewStoreError("item", "get", "lookup", ErrItemNotFound), true},
		{"duplicate is not not-found", ErrItemExists, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDuplicateError(ErrItemExists))
	assert.True(t, IsDuplicateError(ErrCollectionExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("insert: %w", ErrDuplicate)))
	assert.False(t, IsDuplicateError(ErrNotFound))
	assert.False(t, IsDuplicateError(nil))
}

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRetryableError(fmt.Errorf("commit: %w", ErrSerialization)))
	assert.False(t, IsRetryableError(ErrInternal))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		t.Parallel()
		err := NewStoreError("item", "update", "failed to update item", ErrItemNotFound)

		assert.Equal(t,
			"update operation on item failed: failed to update item: entity not found: item",
			err.Error())
		assert.ErrorIs(t, err, ErrItemNotFound)
		assert.ErrorIs(t, err, ErrNotFound)

		var storeErr *StoreError
		assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &storeErr))
		assert.Equal(t, "item", storeErr.Entity)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		t.Parallel()
		err := NewStoreError("ledger_entry", "upsert", "day missing", nil)
		assert.Equal(t, "upsert operation on ledger_entry failed: day missing", err.Error())
		assert.Nil(t, err.Unwrap())
	})
}
