package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mithun-VK/trading-chatbot/internal/logger"
)

const (
	fileSuffix  = ".csv"
	maxParallel = 8
)

// Importer loads one user's positions from a ;-separated CSV stream.
type Importer interface {
	ImportPositions(ctx context.Context, userID string, r io.Reader) (int, error)
}

// Result reports one imported file.
type Result struct {
	UserID    string
	File      string
	Positions int
}

// ImportDirectory imports every "<userId>.csv" file in dir through imp.
//
// Behavior:
//   - The user id is the file name without the .csv suffix.
//   - Files are processed concurrently, at most parallel at a time (0 = min(8, NumCPU)).
//   - The first failing file cancels the rest and its error is returned.
//
// Results are returned in file name order.
func ImportDirectory(ctx context.Context, dir string, imp Importer, parallel int) ([]Result, error) {
	files, err := portfolioFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s", fileSuffix, dir)
	}

	limit := maxParallel
	if parallel > 0 {
		limit = min(parallel, maxParallel)
	} else if c := runtime.NumCPU(); c < limit {
		limit = c
	}
	logger.L().Info().Int("files", len(files)).Str("dir", dir).Int("max_parallel", limit).Msg("portfolio import start")

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, f := range files {
		g.Go(func() error {
			start := time.Now()
			base := filepath.Base(f)
			userID := base[:len(base)-len(fileSuffix)]

			n, err := importFile(gctx, imp, userID, f)
			if err != nil {
				logger.L().Error().Str("file", base).Dur("elapsed", time.Since(start)).Err(err).Msg("file failed")
				return fmt.Errorf("file %s: %w", base, err)
			}
			results[i] = Result{UserID: userID, File: base, Positions: n}
			logger.L().Info().Int("idx", i+1).Int("total", len(files)).Str("file", base).Int("positions", n).Dur("elapsed", time.Since(start)).Msg("file done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func importFile(ctx context.Context, imp Importer, userID, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return imp.ImportPositions(ctx, userID, f)
}

// portfolioFiles lists the importable files of dir, sorted by name.
func portfolioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), fileSuffix) {
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}
