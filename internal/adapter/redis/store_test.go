package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, NewStore(client)
}

func TestStore_PutGet(t *testing.T) {
	_, store := setupTestRedis(t)
	ctx := context.Background()

	want := domain.Payload{
		Location:    "https://example.org/export.csv",
		Data:        []byte("Bairro\nCentro\n"),
		ContentType: "text/csv",
		FetchedAt:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Put(ctx, "source:a", want, time.Minute))

	got, ok, err := store.Get(ctx, "source:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestStore_Miss(t *testing.T) {
	_, store := setupTestRedis(t)
	_, ok, err := store.Get(context.Background(), "source:absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	s, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "source:a", domain.Payload{Data: []byte("x")}, time.Minute))
	assert.True(t, s.Exists(keyPrefix+"source:a"))

	s.FastForward(time.Minute + time.Second)
	_, ok, err := store.Get(ctx, "source:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CorruptEntry(t *testing.T) {
	s, store := setupTestRedis(t)
	require.NoError(t, s.Set(keyPrefix+"source:a", "not json"))

	_, _, err := store.Get(context.Background(), "source:a")
	require.Error(t, err)
}

func TestStore_ServerDown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewStore(client)
	s.Close()

	_, _, err = store.Get(context.Background(), "source:a")
	require.Error(t, err)
	assert.Error(t, store.CheckReadiness(context.Background()))
}

func TestOpen(t *testing.T) {
	s := miniredis.RunT(t)
	store, err := Open(context.Background(), s.Addr())
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.CheckReadiness(context.Background()))
}
