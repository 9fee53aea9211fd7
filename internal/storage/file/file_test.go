package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.Error(t, err)
}

func TestBackendRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "slot", []byte(`[{"id":"a"}]`)))

	got, ok, err := b.Get(ctx, "slot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`[{"id":"a"}]`), got)

	require.NoError(t, b.Delete(ctx, "slot"))
	_, ok, err = b.Get(ctx, "slot")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Delete(ctx, "slot"), "deleting a missing slot is not an error")
}

func TestBackendSurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	b, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "tippingchain_transaction_history", []byte("persisted")))
	require.NoError(t, b.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	got, ok, err := reopened.Get(ctx, "tippingchain_transaction_history")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), got)
}

func TestBackendSanitizesKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	key := "../escape/attempt:key"
	require.NoError(t, b.Set(ctx, key, []byte("safe")))

	got, ok, err := b.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("safe"), got)

	// Every written file must land inside the backing directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Ext(entries[0].Name()), ".json")
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"plain_key", "plain_key"},
		{"UPPER.case-1", "UPPER.case-1"},
		{"a/b\\c:d", "a_b_c_d"},
		{"spaces and ünïcode", "spaces_and__n_code"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, sanitize(tc.in), tc.in)
	}
}

func TestSetLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, b.Set(context.Background(), "slot", []byte("v")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "slot.json", entries[0].Name())
}
