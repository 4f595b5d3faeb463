package catalog

import (
	"context"
	"log/slog"

	"github.com/basecruz/stockbridge/internal/shared"
)

// DefaultChunkSize is the assumed upstream ceiling for ids per inventory level request.
const DefaultChunkSize = 50

// LevelFetcher reads per-location stock for many inventory items.
type LevelFetcher struct {
	source    LevelSource
	chunkSize int
	logger    *slog.Logger
}

// NewLevelFetcher builds a fetcher; chunkSize <= 0 selects DefaultChunkSize.
func NewLevelFetcher(source LevelSource, chunkSize int, logger *slog.Logger) *LevelFetcher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LevelFetcher{source: source, chunkSize: chunkSize, logger: logger}
}

// FetchLevels deduplicates ids, walks them chunk by chunk and follows each chunk's
// pagination to the end. Chunks run strictly one after another. A failing page stops
// only its own chunk; whatever was gathered so far is returned.
func (f *LevelFetcher) FetchLevels(ctx context.Context, ids []shared.ID) map[shared.ID][]InventoryLevel {
	result := make(map[shared.ID][]InventoryLevel)
	unique := dedupeIDs(ids)
	for _, chunk := range chunkIDs(unique, f.chunkSize) {
		if ctx.Err() != nil {
			f.logger.Warn("inventory levels aborted", slog.Any("error", ctx.Err()))
			break
		}
		f.fetchChunk(ctx, chunk, result)
	}
	return result
}

func (f *LevelFetcher) fetchChunk(ctx context.Context, chunk []shared.ID, into map[shared.ID][]InventoryLevel) {
	pageInfo := ""
	pages := 0
	for {
		page, err := f.source.FetchLevels(ctx, chunk, pageInfo)
		if err != nil {
			f.logger.Error("fetch inventory levels chunk",
				slog.Int("chunk_size", len(chunk)),
				slog.Int("pages_read", pages),
				slog.Any("error", err))
			return
		}
		pages++
		for _, lvl := range page.Levels {
			into[lvl.InventoryItemID] = append(into[lvl.InventoryItemID], InventoryLevel{
				LocationID: lvl.LocationID,
				Available:  lvl.Available,
			})
		}
		if page.NextPageInfo == "" || page.NextPageInfo == pageInfo {
			return
		}
		pageInfo = page.NextPageInfo
	}
}

func dedupeIDs(ids []shared.ID) []shared.ID {
	seen := make(map[shared.ID]struct{}, len(ids))
	out := make([]shared.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkIDs(ids []shared.ID, size int) [][]shared.ID {
	var chunks [][]shared.ID
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
