package credstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/stretchr/testify/require"
)

func newClockedMemory(now *time.Time) *credstore.MemoryStore {
	m := credstore.NewMemoryStore()
	m.Now = func() time.Time { return *now }
	return m
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	m := newClockedMemory(&now)
	opts := credstore.Options{Path: "/", SameSite: credstore.SameSiteStrict, MaxAge: 60}

	require.NoError(t, m.Set(ctx, "access_token", "v1", opts))
	got, err := m.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Equal(t, "v1", got)

	require.NoError(t, m.Remove(ctx, "access_token", opts))
	_, err = m.Get(ctx, "access_token")
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	m := newClockedMemory(&now)

	require.NoError(t, m.Set(ctx, "by_max_age", "a", credstore.Options{MaxAge: 10}))
	require.NoError(t, m.Set(ctx, "by_expires", "b", credstore.Options{Expires: now.Add(20 * time.Second)}))
	require.NoError(t, m.Set(ctx, "session", "c", credstore.Options{}))

	now = now.Add(10 * time.Second)
	_, err := m.Get(ctx, "by_max_age")
	require.ErrorIs(t, err, credstore.ErrNotFound)

	got, err := m.Get(ctx, "by_expires")
	require.NoError(t, err)
	require.Equal(t, "b", got)

	now = now.Add(time.Hour)
	_, err = m.Get(ctx, "by_expires")
	require.ErrorIs(t, err, credstore.ErrNotFound)

	got, err = m.Get(ctx, "session")
	require.NoError(t, err)
	require.Equal(t, "c", got)
}

func TestMemoryStoreMismatchedRemoveMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := credstore.NewMemoryStore()

	require.NoError(t, m.Set(ctx, "id_token", "v", credstore.Options{Path: "/app", Domain: "example.com"}))
	require.NoError(t, m.Remove(ctx, "id_token", credstore.Options{Path: "/"}))

	got, err := m.Get(ctx, "id_token")
	require.NoError(t, err)
	require.Equal(t, "v", got)

	require.NoError(t, m.Remove(ctx, "id_token", credstore.Options{Path: "/app", Domain: "example.com"}))
	_, err = m.Get(ctx, "id_token")
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestSetAllOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &recordingStore{Store: credstore.NewMemoryStore()}

	err := credstore.SetAll(ctx, rec, []credstore.Entry{
		{Name: "id_token", Value: "i"},
		{Name: "refresh_token", Value: "r"},
		{Name: "access_token", Value: "a"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"id_token", "refresh_token", "access_token"}, rec.order)
}

type recordingStore struct {
	credstore.Store
	order []string
}

func (r *recordingStore) Set(ctx context.Context, name, value string, opts credstore.Options) error {
	r.order = append(r.order, name)
	return r.Store.Set(ctx, name, value, opts)
}
