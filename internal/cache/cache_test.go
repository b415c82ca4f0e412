package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/jo-hoe/slideframe/internal/host"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()

	server := miniredis.RunT(t)
	cache := NewRedisCache(server.Addr(), "", 0, time.Minute)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestRedisCache_RoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	info := &host.PixelInfo{
		Width:         2048,
		Height:        1024,
		NumChannels:   3,
		NumZSlices:    1,
		NumTimepoints: 1,
		Levels: []host.PixelLevel{
			{Downsample: 1, Width: 2048, Height: 1024},
			{Downsample: 2, Width: 1024, Height: 512},
		},
	}
	if err := cache.Set(ctx, "entry-1", info); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	cached, found, err := cache.Get(ctx, "entry-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found {
		t.Fatalf("expected cache hit")
	}
	if cached.Width != 2048 || cached.Height != 1024 || len(cached.Levels) != 2 {
		t.Errorf("unexpected cached info: %+v", cached)
	}
	if cached.Levels[1].Downsample != 2 {
		t.Errorf("unexpected level: %+v", cached.Levels[1])
	}
}

func TestRedisCache_Miss(t *testing.T) {
	cache := newTestCache(t)

	info, found, err := cache.Get(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if found || info != nil {
		t.Errorf("expected cache miss, got %+v", info)
	}
}

func TestRedisCache_Invalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "entry-1", &host.PixelInfo{Width: 16, Height: 16}); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := cache.Invalidate(ctx, "entry-1"); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}

	_, found, err := cache.Get(ctx, "entry-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if found {
		t.Errorf("expected invalidated entry to be gone")
	}
}
