package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
)

// FileResult pairs one input path with its extraction or its failure.
type FileResult struct {
	Path   string
	Result *entity.ExtractionResult
	Err    string
}

// BatchStats aggregates one directory run.
type BatchStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// ExtractDirectory walks root, extracts every supported document with a
// bounded worker pool, and returns per-file results plus aggregate
// stats. A failed file is recorded and never stops the batch; only a
// broken walk or a canceled context aborts.
func (e *Extractor) ExtractDirectory(ctx context.Context, root string, workers int) ([]FileResult, BatchStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, BatchStats{}, errors.New("root path is required")
	}
	if workers < 1 {
		workers = 1
	}

	var stats BatchStats
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.Scanned++
		if walkErr != nil {
			return nil // unreadable entry, keep walking
		}
		if d.IsDir() {
			if isHidden(path) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path) {
			return nil
		}
		if constants.MapExtToKind(filepath.Ext(path)) == "" {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	jobs := make(chan string)
	resultsCh := make(chan FileResult)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				res, err := e.Extract(ctx, path)
				if err != nil {
					resultsCh <- FileResult{Path: path, Err: err.Error()}
					continue
				}
				resultsCh <- FileResult{Path: path, Result: res}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	results := make([]FileResult, 0, len(paths))
	for r := range resultsCh {
		if r.Err != "" {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	e.logger.Info("pipeline.batch.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return results, stats, ctx.Err()
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
