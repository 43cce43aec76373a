package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Rana718/sqlir/internal/types"
)

// Writer materializes generator output below Root.
type Writer struct {
	Root string
}

// Write checks every path before touching the disk, so a single bad path
// means no file at all is written. Files are then written concurrently and
// the first failure is returned once all writers are done. The written paths
// come back sorted.
func (w *Writer) Write(ctx context.Context, files []types.File) ([]string, error) {
	root, err := filepath.Abs(w.Root)
	if err != nil {
		return nil, err
	}

	targets := make([]string, len(files))
	for i, f := range files {
		target, err := resolve(root, f.Path)
		if err != nil {
			return nil, err
		}
		targets[i] = target
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		target, content := targets[i], f.Content
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(targets)
	return targets, nil
}

// resolve joins path onto root and rejects anything that lands outside it.
func resolve(root, path string) (string, error) {
	target := filepath.Join(root, path)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathTraversalError{Path: path, Root: root}
	}
	return target, nil
}
