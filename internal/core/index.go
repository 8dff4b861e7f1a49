package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/hooklens/internal/storage"
	"github.com/valter-silva-au/hooklens/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxErrorSamples bounds the per-line errors kept in a LoadResult.
const maxErrorSamples = 100

// DefaultConcurrency is the number of files read in parallel.
const DefaultConcurrency = 4

// EventIndex materializes the events of a corpus from storage.
type EventIndex interface {
	// Load reads the given files. Per-file and per-line failures are recorded
	// in the result; only cancellation of ctx returns an error.
	Load(ctx context.Context, paths []string) (*models.LoadResult, error)
	// LoadAll reads every file the adapter lists.
	LoadAll(ctx context.Context) (*models.LoadResult, error)
}

type eventIndex struct {
	adapter     storage.Adapter
	concurrency int
	loc         *time.Location
	logger      *zap.Logger
}

// NewEventIndex creates an EventIndex reading through adapter. Naive
// timestamps are interpreted in loc.
func NewEventIndex(adapter storage.Adapter, cfg models.LoadConfig, loc *time.Location, logger *zap.Logger) EventIndex {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventIndex{adapter: adapter, concurrency: concurrency, loc: loc, logger: logger}
}

type fileResult struct {
	events      []models.Event
	parseErrors int
	errors      []models.LoadError
	failed      error
}

func (idx *eventIndex) LoadAll(ctx context.Context) (*models.LoadResult, error) {
	files, err := idx.adapter.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing files at %s: %w", idx.adapter.Location(), err)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return idx.Load(ctx, paths)
}

func (idx *eventIndex) Load(ctx context.Context, paths []string) (*models.LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			r, err := idx.loadFile(gctx, path)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	// The writer mirrors every record into summary.log. Text blocks carry
	// no event_id, so they are matched to structured records by content.
	structured := make(map[string]bool)
	for i, r := range results {
		if !isTextLog(paths[i]) {
			for _, e := range r.events {
				structured[mirrorKey(e)] = true
			}
		}
	}

	result := &models.LoadResult{}
	seen := make(map[string]bool)
	for i, r := range results {
		text := isTextLog(paths[i])
		if r.failed != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, models.LoadError{File: paths[i], Message: r.failed.Error()})
			idx.logger.Warn("file unreadable", zap.String("file", paths[i]), zap.Error(r.failed))
		} else {
			result.FilesLoaded++
		}
		result.ParseErrors += r.parseErrors
		for _, le := range r.errors {
			if len(result.Errors) >= maxErrorSamples {
				break
			}
			result.Errors = append(result.Errors, le)
		}
		for _, e := range r.events {
			if seen[e.EventID] || (text && structured[mirrorKey(e)]) {
				result.Duplicates++
				continue
			}
			seen[e.EventID] = true
			result.Events = append(result.Events, e)
		}
	}

	if result.ParseErrors > 0 {
		idx.logger.Warn("malformed records skipped", zap.Int("parse_errors", result.ParseErrors))
	}
	idx.logger.Debug("corpus loaded",
		zap.Int("files_loaded", result.FilesLoaded),
		zap.Int("files_failed", result.FilesFailed),
		zap.Int("events", len(result.Events)),
		zap.Int("duplicates", result.Duplicates),
	)
	return result, nil
}

func (r *fileResult) addParseError(path string, line int, err error) {
	r.parseErrors++
	if len(r.errors) < maxErrorSamples {
		r.errors = append(r.errors, models.LoadError{File: path, Line: line, Message: err.Error()})
	}
}

// loadFile reads one file. The returned error is non-nil only when ctx is done.
func (idx *eventIndex) loadFile(ctx context.Context, path string) (fileResult, error) {
	var r fileResult
	source := baseName(path)

	var text *textLogParser
	if isTextLog(path) {
		text = newTextLogParser(source, idx.loc)
	}

	lineNo := 0
	for line, err := range idx.adapter.ReadLines(ctx, path) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r, ctxErr
			}
			if errors.Is(err, storage.ErrLineTooLong) {
				lineNo++
				r.addParseError(path, lineNo, err)
				continue
			}
			r.failed = err
			break
		}
		lineNo++

		if text != nil {
			if e, ok := text.Add(line); ok {
				r.events = append(r.events, e)
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := ParseLine(line, source, idx.loc)
		if err != nil {
			r.addParseError(path, lineNo, err)
			continue
		}
		r.events = append(r.events, e)
	}

	if text != nil && r.failed == nil {
		if e, ok := text.Flush(); ok {
			r.events = append(r.events, e)
		}
	}
	return r, nil
}

func isTextLog(path string) bool {
	return strings.HasSuffix(path, ".log")
}

// mirrorKey identifies a record by when it happened, what it did and which
// session it belongs to.
func mirrorKey(e models.Event) string {
	ts := e.RawTimestamp
	if e.TimestampKnown {
		ts = e.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return ts + "|" + e.Action + "|" + e.TrajectoryID
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}
