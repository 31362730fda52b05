package sdk_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alpha-duel/internal/storage/memory"
	"alpha-duel/sdk"
)

func TestStateBuffersUntilCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	st := sdk.NewState(store, 100)

	require.NoError(t, st.Set(ctx, sdk.SessionKey(7), []byte("v1")))

	_, err := store.Get(ctx, sdk.SessionKey(7), 100)
	assert.ErrorIs(t, err, sdk.ErrNotFound, "store must not see buffered writes")

	got, ok, err := st.Get(ctx, sdk.SessionKey(7))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, store.Commit(ctx, st.Changes()))
	entry, err := store.Get(ctx, sdk.SessionKey(7), 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), entry.Value)
	assert.Equal(t, uint32(100)+sdk.MinTemporaryLease, entry.LiveUntil)
}

func TestStateInstanceEntriesDoNotExpire(t *testing.T) {
	ctx := context.Background()
	st := sdk.NewState(memory.New(), 5)
	require.NoError(t, st.Set(ctx, sdk.AdminKey(), []byte("admin")))

	changes := st.Changes()
	require.Len(t, changes, 1)
	assert.Zero(t, changes[0].LiveUntil)
}

func TestStateSetKeepsExistingLease(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Commit(ctx, []sdk.Change{{Key: sdk.SessionKey(1), Value: []byte("a"), LiveUntil: 500}}))

	st := sdk.NewState(store, 10)
	require.NoError(t, st.Set(ctx, sdk.SessionKey(1), []byte("b")))
	lease, err := st.LiveUntil(ctx, sdk.SessionKey(1))
	require.NoError(t, err)
	assert.Equal(t, uint32(500), lease)
}

func TestStateExtendLease(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Commit(ctx, []sdk.Change{{Key: sdk.SessionKey(1), Value: []byte("a"), LiveUntil: 50}}))

	st := sdk.NewState(store, 10)

	// 40 ledgers remain, threshold 20: nothing to do.
	require.NoError(t, st.ExtendLease(ctx, sdk.SessionKey(1), 20, 1000))
	assert.Empty(t, st.Changes())

	require.NoError(t, st.ExtendLease(ctx, sdk.SessionKey(1), 1000, 1000))
	lease, err := st.LiveUntil(ctx, sdk.SessionKey(1))
	require.NoError(t, err)
	assert.Equal(t, uint32(1010), lease)
	assert.Len(t, st.Changes(), 1)
}

func TestStateExtendLeaseMissingKey(t *testing.T) {
	st := sdk.NewState(memory.New(), 1)
	err := st.ExtendLease(context.Background(), sdk.SessionKey(9), 1, 1)
	assert.True(t, errors.Is(err, sdk.ErrNotFound))
}

func TestStateHidesExpiredEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Commit(ctx, []sdk.Change{{Key: sdk.SessionKey(3), Value: []byte("old"), LiveUntil: 20}}))

	st := sdk.NewState(store, 21)
	_, ok, err := st.Get(ctx, sdk.SessionKey(3))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "session:42", sdk.SessionKey(42).String())
	assert.Equal(t, "admin", sdk.AdminKey().String())
	assert.Equal(t, "hub", sdk.HubKey().String())
	assert.Equal(t, "nonce:abc", sdk.NonceKey("abc").String())
	assert.True(t, sdk.SessionKey(1).Temporary())
	assert.False(t, sdk.HubKey().Temporary())
}

func TestLedgersFor(t *testing.T) {
	assert.Equal(t, uint32(518_400), sdk.LedgersFor(30*24*60*60*1e9))
	assert.Equal(t, uint32(1), sdk.LedgersFor(1))
	assert.Zero(t, sdk.LedgersFor(0))
}
