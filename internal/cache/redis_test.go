package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/gofrs/uuid/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisWithClient(client, ttl), mr
}

func TestRedis_SetGetInvalidate(t *testing.T) {
	c, mr := newRedis(t, time.Minute)
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := &model.Document{
		ID:       uuid.Must(uuid.NewV4()),
		Owner:    "u1",
		Content:  "hello",
		Tags:     []string{"a"},
		Links:    []string{},
		Metadata: map[string]any{"k": "v"},
		Version:  3,
		Created:  ts,
		Updated:  ts,
	}

	got, err := c.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, c.Set(ctx, d))
	require.True(t, mr.Exists(documentKey(d.ID)))
	require.Equal(t, time.Minute, mr.TTL(documentKey(d.ID)))

	got, err = c.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d, got)

	require.NoError(t, c.Invalidate(ctx, d.ID))
	got, err = c.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedis_SetKeepsNewestVersion(t *testing.T) {
	c, _ := newRedis(t, time.Minute)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	v1 := &model.Document{ID: id, Owner: "u1", Content: "v1", Version: 1}
	v2 := &model.Document{ID: id, Owner: "u1", Content: "v2", Version: 2}

	require.NoError(t, c.Set(ctx, v2))
	// a reader that loaded v1 before the update finishes its fill late
	require.NoError(t, c.Set(ctx, v1))

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.Version)
	require.Equal(t, "v2", got.Content)

	v3 := &model.Document{ID: id, Owner: "u1", Content: "v3", Version: 3}
	require.NoError(t, c.Set(ctx, v3))
	got, err = c.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "v3", got.Content)
}

func TestRedis_InvalidateRefusesLateFill(t *testing.T) {
	c, mr := newRedis(t, time.Minute)
	ctx := context.Background()
	d := &model.Document{ID: uuid.Must(uuid.NewV4()), Owner: "u1", Content: "x", Version: 4}

	require.NoError(t, c.Invalidate(ctx, d.ID))
	require.NoError(t, c.Set(ctx, d))
	got, err := c.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	// once the tombstone expires the id can be cached again
	mr.FastForward(2 * time.Minute)
	require.NoError(t, c.Set(ctx, d))
	got, err = c.Get(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestRedis_InvalidateOwner(t *testing.T) {
	c, _ := newRedis(t, time.Minute)
	ctx := context.Background()
	a := &model.Document{ID: uuid.Must(uuid.NewV4()), Owner: "u1", Content: "a", Version: 1}
	b := &model.Document{ID: uuid.Must(uuid.NewV4()), Owner: "u1", Content: "b", Version: 1}
	other := &model.Document{ID: uuid.Must(uuid.NewV4()), Owner: "u2", Content: "o", Version: 1}
	for _, d := range []*model.Document{a, b, other} {
		require.NoError(t, c.Set(ctx, d))
	}

	require.NoError(t, c.InvalidateOwner(ctx, "u1"))
	for _, d := range []*model.Document{a, b} {
		got, err := c.Get(ctx, d.ID)
		require.NoError(t, err)
		require.Nil(t, got)
	}
	got, err := c.Get(ctx, other.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	// fills for the purged owner are refused, even for ids never indexed
	late := &model.Document{ID: uuid.Must(uuid.NewV4()), Owner: "u1", Content: "late", Version: 1}
	require.NoError(t, c.Set(ctx, late))
	got, err = c.Get(ctx, late.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedis_Expiry(t *testing.T) {
	c, mr := newRedis(t, time.Second)
	ctx := context.Background()
	d := &model.Document{ID: uuid.Must(uuid.NewV4()), Owner: "u1", Content: "x"}

	require.NoError(t, c.Set(ctx, d))
	mr.FastForward(2 * time.Second)
	got, err := c.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedis_CorruptValueIsAMiss(t *testing.T) {
	c, mr := newRedis(t, time.Minute)
	id := uuid.Must(uuid.NewV4())
	mr.HSet(documentKey(id), fieldVersion, "1", fieldDoc, "{not json")

	got, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	require.Nil(t, got)
	require.False(t, mr.Exists(documentKey(id)))
}

func TestRedis_ServerDown(t *testing.T) {
	c, mr := newRedis(t, time.Minute)
	require.NoError(t, c.Ping(context.Background()))
	mr.Close()

	_, err := c.Get(context.Background(), uuid.Must(uuid.NewV4()))
	require.Error(t, err)
	require.Error(t, c.Ping(context.Background()))
}
