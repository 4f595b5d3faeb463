package catalog

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/basecruz/stockbridge/internal/shared"
)

// LocationDirectory lazily loads the location id to name mapping once per process and
// memoizes it. Concurrent first callers share a single upstream fetch.
type LocationDirectory struct {
	source LocationSource
	logger *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	names map[shared.ID]string
	ready bool
}

// NewLocationDirectory wires the directory to its upstream source.
func NewLocationDirectory(source LocationSource, logger *slog.Logger) *LocationDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationDirectory{source: source, logger: logger}
}

// Locations returns the memoized mapping. A failed fetch is logged and memoized as an
// empty mapping, so the upstream is asked at most once per process.
func (d *LocationDirectory) Locations(ctx context.Context) map[shared.ID]string {
	if names, ok := d.cached(); ok {
		return names
	}
	ch := d.group.DoChan("locations", func() (interface{}, error) {
		if names, ok := d.cached(); ok {
			return names, nil
		}
		// Detached from the first caller so its cancellation does not fail joined callers.
		locations, err := d.source.FetchLocations(context.WithoutCancel(ctx))
		names := make(map[shared.ID]string, len(locations))
		for _, loc := range locations {
			names[loc.ID] = loc.Name
		}
		if err != nil {
			d.logger.Error("load location directory", slog.Any("error", err))
			names = map[shared.ID]string{}
		}
		d.mu.Lock()
		d.names = names
		d.ready = true
		d.mu.Unlock()
		return names, nil
	})
	select {
	case <-ctx.Done():
		d.logger.Warn("location directory wait", slog.Any("error", ctx.Err()))
		return map[shared.ID]string{}
	case res := <-ch:
		return res.Val.(map[shared.ID]string)
	}
}

// Name resolves a display name, falling back to the "Location {id}" placeholder.
func (d *LocationDirectory) Name(ctx context.Context, id shared.ID) string {
	if name, ok := d.Locations(ctx)[id]; ok && name != "" {
		return name
	}
	return PlaceholderLocationName(id)
}

func (d *LocationDirectory) cached() (map[shared.ID]string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.names, d.ready
}
