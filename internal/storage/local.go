package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

// LocalAdapter reads log files from a directory on the local filesystem.
type LocalAdapter struct {
	dir  string
	opts Options
}

// NewLocalAdapter creates an adapter rooted at dir.
func NewLocalAdapter(dir string, opts Options) *LocalAdapter {
	return &LocalAdapter{dir: dir, opts: opts.withDefaults()}
}

func (a *LocalAdapter) Location() string {
	return a.dir
}

// ListFiles lists the matching regular files directly under the directory.
func (a *LocalAdapter) ListFiles(ctx context.Context) ([]models.FileDescriptor, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, classifyLocal(a.dir, err)
	}

	var files []models.FileDescriptor
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !hasExtension(entry.Name(), a.opts.Extensions) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, models.FileDescriptor{
			Path:                filepath.Join(a.dir, entry.Name()),
			Name:                entry.Name(),
			Size:                info.Size(),
			Modified:            info.ModTime(),
			Type:                fileType(entry.Name()),
			EstimatedEntryCount: EstimateEntries(info.Size()),
		})
	}
	sortNewestFirst(files)
	return files, nil
}

// ReadLines reads path line by line. Relative paths resolve against the
// adapter's directory.
func (a *LocalAdapter) ReadLines(ctx context.Context, path string) iter.Seq2[string, error] {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(a.dir, path)
	}
	return scanLines(ctx, full, a.opts.MaxLineBytes, func(context.Context) (io.ReadCloser, error) {
		f, err := os.Open(full)
		if err != nil {
			return nil, classifyLocal(full, err)
		}
		return f, nil
	})
}

func (a *LocalAdapter) TestConnection(ctx context.Context) models.ConnectionResult {
	info, err := os.Stat(a.dir)
	if err != nil {
		err = classifyLocal(a.dir, err)
		return models.ConnectionResult{Message: err.Error(), Kind: string(KindOf(err))}
	}
	if !info.IsDir() {
		return models.ConnectionResult{
			Message: fmt.Sprintf("%s is not a directory", a.dir),
			Kind:    string(KindInvalid),
		}
	}
	files, err := a.ListFiles(ctx)
	if err != nil {
		return models.ConnectionResult{Message: err.Error(), Kind: string(KindOf(err))}
	}
	return models.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("local directory %s is readable (%d log files)", a.dir, len(files)),
	}
}

func classifyLocal(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newError(KindNotFound, path, err)
	case errors.Is(err, fs.ErrPermission):
		return newError(KindAccessDenied, path, err)
	default:
		return newError(KindNetwork, path, err)
	}
}

func sortNewestFirst(files []models.FileDescriptor) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
}
