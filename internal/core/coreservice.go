package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jo-hoe/slideframe/internal/cache"
	"github.com/jo-hoe/slideframe/internal/host"
	"github.com/jo-hoe/slideframe/internal/project"
	"github.com/jo-hoe/slideframe/internal/render"
)

// CoreService wires the image store, the identifier provider and the
// optional pixel info cache into the operations the API exposes.
type CoreService struct {
	config     *ServiceConfig
	store      *host.SQLiteStore
	project    *project.Project
	pixelCache *cache.RedisCache
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	store, err := host.NewSQLiteStore(config.Database.ConnectionString, config.Database.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)

	provider, err := getProvider(config)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	imageProject, err := project.NewProject(store, provider)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load project entries: %w", err)
	}

	service := &CoreService{
		config:  config,
		store:   store,
		project: imageProject,
	}
	if config.Cache.Enabled {
		ttl := time.Duration(config.Cache.TTLSeconds) * time.Second
		service.pixelCache = cache.NewRedisCache(config.Cache.Address, config.Cache.Password, config.Cache.DB, ttl)
		slog.Info("pixel info cache enabled", "address", config.Cache.Address)
	}
	return service, nil
}

func getProvider(config *ServiceConfig) (project.ImageProvider, error) {
	switch config.Provider.Type {
	case "simple", "":
		return project.SimpleURIProvider{}, nil
	case "s3":
		client, err := project.NewS3Client(context.Background(), project.S3Options{
			Region:          config.Provider.S3.Region,
			Endpoint:        config.Provider.S3.Endpoint,
			AccessKeyID:     config.Provider.S3.AccessKeyID,
			SecretAccessKey: config.Provider.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
		}
		return project.NewS3ImageProvider(config.Provider.S3.Bucket, client), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Provider.Type)
	}
}

func (service *CoreService) Project() *project.Project {
	return service.project
}

// AddImage registers an image under the given URI. For readable local
// files the pixel dimensions are probed up front so derived properties
// are available without touching the file again.
func (service *CoreService) AddImage(uri, name string) (*project.ImageEntry, error) {
	pixels := service.probePixels(uri)
	entry, err := service.project.AddImage(uri, name, pixels)
	if err != nil {
		return nil, err
	}
	slog.Info("image added", "id", entry.ID(), "uri", uri)
	return entry, nil
}

func (service *CoreService) probePixels(uri string) *host.PixelInfo {
	path, err := project.PathFromURI(uri)
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	info, err := host.ProbeFile(path)
	if err != nil {
		slog.Warn("failed to probe image file", "path", path, "error", err)
		return nil
	}
	return info
}

func (service *CoreService) Entries() []*project.ImageEntry {
	return service.project.Entries()
}

func (service *CoreService) EntryByID(id string) (*project.ImageEntry, error) {
	return service.project.EntryByID(id)
}

func (service *CoreService) RemoveEntry(ctx context.Context, id string) error {
	if err := service.project.RemoveEntry(id); err != nil {
		return err
	}
	if service.pixelCache != nil {
		if err := service.pixelCache.Invalidate(ctx, id); err != nil {
			slog.Warn("failed to invalidate cached pixel info", "id", id, "error", err)
		}
	}
	slog.Info("image removed", "id", id)
	return nil
}

// PixelInfo resolves the derived pixel properties of an entry,
// consulting the cache before the store.
func (service *CoreService) PixelInfo(ctx context.Context, id string) (*host.PixelInfo, error) {
	if service.pixelCache != nil {
		info, found, err := service.pixelCache.Get(ctx, id)
		if err != nil {
			slog.Warn("pixel info cache lookup failed", "id", id, "error", err)
		} else if found {
			return info, nil
		}
	}

	entry, err := service.project.EntryByID(id)
	if err != nil {
		return nil, err
	}
	info, err := entry.PixelInfo()
	if err != nil {
		return nil, err
	}

	if service.pixelCache != nil {
		if err := service.pixelCache.Set(ctx, id, info); err != nil {
			slog.Warn("failed to cache pixel info", "id", id, "error", err)
		}
	}
	return info, nil
}

// OverlayPNG renders the annotations of an entry as a transparent PNG
// at the requested downsample factor.
func (service *CoreService) OverlayPNG(ctx context.Context, id string, downsample float64) ([]byte, error) {
	entry, err := service.project.EntryByID(id)
	if err != nil {
		return nil, err
	}
	h, err := entry.Hierarchy()
	if err != nil {
		return nil, err
	}
	info, err := service.PixelInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	maxDimension := service.config.Overlay.MaxDimension
	if int(float64(info.Width)/downsample) > maxDimension ||
		int(float64(info.Height)/downsample) > maxDimension {
		return nil, fmt.Errorf("overlay at downsample %v exceeds the maximum dimension of %d", downsample, maxDimension)
	}
	return render.OverlayPNG(h, info.Width, info.Height, downsample)
}

func (service *CoreService) UpdateURIs(mapping map[string]string) (int, error) {
	return service.project.UpdateURIs(mapping)
}

func (service *CoreService) Close() error {
	if service.pixelCache != nil {
		if err := service.pixelCache.Close(); err != nil {
			slog.Warn("failed to close pixel info cache", "error", err)
		}
	}
	return service.store.Close()
}
