package core

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/jo-hoe/slideframe/internal/host"
	"github.com/jo-hoe/slideframe/internal/project"
)

func newTestCoreService(t *testing.T, cacheAddress string) *CoreService {
	t.Helper()

	config := &ServiceConfig{
		Port: 8080,
		Database: Database{
			Type:             "sqlite",
			ConnectionString: ":memory:",
		},
		Provider: Provider{Type: "simple"},
		Overlay:  Overlay{MaxDimension: 4096},
	}
	if cacheAddress != "" {
		config.Cache = Cache{Enabled: true, Address: cacheAddress, TTLSeconds: 60}
	}

	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	t.Cleanup(func() { _ = service.Close() })
	return service
}

func writeTestImageURI(t *testing.T, width, height int) string {
	t.Helper()

	imagePath := filepath.Join(t.TempDir(), "slide.png")
	f, err := os.Create(imagePath)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	_ = f.Close()

	uri, err := project.URIFromPath(imagePath)
	if err != nil {
		t.Fatalf("URIFromPath error: %v", err)
	}
	return uri
}

func TestCoreService_AddImageProbesLocalFiles(t *testing.T) {
	service := newTestCoreService(t, "")
	uri := writeTestImageURI(t, 64, 48)

	entry, err := service.AddImage(uri, "")
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}

	info, err := service.PixelInfo(context.Background(), entry.ID())
	if err != nil {
		t.Fatalf("PixelInfo error: %v", err)
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("unexpected pixel info: %+v", info)
	}
}

func TestCoreService_AddImageWithoutLocalFile(t *testing.T) {
	service := newTestCoreService(t, "")

	entry, err := service.AddImage("file:///images/remote.svs", "remote")
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}
	if _, err := service.PixelInfo(context.Background(), entry.ID()); !errors.Is(err, host.ErrNoServer) {
		t.Errorf("expected ErrNoServer, got %v", err)
	}
}

func TestCoreService_PixelInfoCache(t *testing.T) {
	redisServer := miniredis.RunT(t)
	service := newTestCoreService(t, redisServer.Addr())
	uri := writeTestImageURI(t, 32, 32)

	entry, err := service.AddImage(uri, "")
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}
	ctx := context.Background()

	if _, err := service.PixelInfo(ctx, entry.ID()); err != nil {
		t.Fatalf("PixelInfo error: %v", err)
	}
	if !redisServer.Exists("slideframe:pixels:" + entry.ID()) {
		t.Errorf("expected pixel info to be cached after first lookup")
	}

	// second lookup is served from the cache
	info, err := service.PixelInfo(ctx, entry.ID())
	if err != nil {
		t.Fatalf("cached PixelInfo error: %v", err)
	}
	if info.Width != 32 {
		t.Errorf("unexpected cached pixel info: %+v", info)
	}

	if err := service.RemoveEntry(ctx, entry.ID()); err != nil {
		t.Fatalf("RemoveEntry error: %v", err)
	}
	if redisServer.Exists("slideframe:pixels:" + entry.ID()) {
		t.Errorf("expected cache entry to be invalidated on removal")
	}
}

func TestCoreService_OverlayDimensionLimit(t *testing.T) {
	service := newTestCoreService(t, "")
	service.config.Overlay.MaxDimension = 16
	uri := writeTestImageURI(t, 64, 48)

	entry, err := service.AddImage(uri, "")
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}
	if _, err := service.OverlayPNG(context.Background(), entry.ID(), 1); err == nil {
		t.Errorf("expected error when overlay exceeds the dimension limit")
	}
	if _, err := service.OverlayPNG(context.Background(), entry.ID(), 4); err != nil {
		t.Errorf("expected overlay within the limit to render, got %v", err)
	}
}

func TestGetProvider_Unsupported(t *testing.T) {
	if _, err := getProvider(&ServiceConfig{Provider: Provider{Type: "ftp"}}); err == nil {
		t.Errorf("expected error for unsupported provider type")
	}
}
