package live

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insectlab/bugradar/internal/events"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, 10*time.Second), mr
}

func framePayload(rigID string) *events.Payload {
	return &events.Payload{
		RigID:    rigID,
		TSUnixMS: time.Now().UnixMilli(),
		FrameID:  7,
		Objects: []events.Object{
			{Label: "fly", Confidence: 0.8, BBox: events.BBox{X: 0.4, Y: 0.4, W: 0.1, H: 0.1}, DistanceM: 0.5, AngleDeg: 90},
		},
	}
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	cache, _ := testCache(t)
	ctx := context.Background()

	p := framePayload("rig-01")
	require.NoError(t, cache.Set(ctx, p))

	got, err := cache.Get(ctx, "rig-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rig-01", got.RigID)
	assert.Equal(t, 7, got.FrameID)
	require.Len(t, got.Objects, 1)
	assert.Equal(t, "fly", got.Objects[0].Label)
	assert.GreaterOrEqual(t, got.AgeMS, int64(0))
}

func TestCache_GetMissingReturnsNil(t *testing.T) {
	cache, _ := testCache(t)

	got, err := cache.Get(context.Background(), "rig-99")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_EntryExpires(t *testing.T) {
	cache, mr := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, framePayload("rig-01")))
	mr.FastForward(11 * time.Second)

	got, err := cache.Get(ctx, "rig-01")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_RejectsInvalidPayload(t *testing.T) {
	cache, _ := testCache(t)

	p := framePayload("rig-01")
	p.Objects[0].Label = "spider"
	err := cache.Set(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid label")
}

func TestCache_SetOverwritesPrevious(t *testing.T) {
	cache, _ := testCache(t)
	ctx := context.Background()

	first := framePayload("rig-01")
	first.FrameID = 1
	require.NoError(t, cache.Set(ctx, first))

	second := framePayload("rig-01")
	second.FrameID = 2
	require.NoError(t, cache.Set(ctx, second))

	got, err := cache.Get(ctx, "rig-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.FrameID)
}
