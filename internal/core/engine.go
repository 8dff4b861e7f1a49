package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/hooklens/internal/observability"
	"github.com/valter-silva-au/hooklens/internal/storage"
	"github.com/valter-silva-au/hooklens/pkg/models"
	"go.uber.org/zap"
)

// Engine answers read-only queries over a corpus. Every query reads the
// selected files afresh; nothing is cached between calls, so concurrent
// queries share no mutable state.
type Engine struct {
	adapter    storage.Adapter
	index      EventIndex
	correlator *Correlator
	aggregator *Aggregator
	searchCfg  models.SearchConfig
	timeout    time.Duration
	loc        *time.Location
	logger     *zap.Logger
}

// NewEngine wires the query components for one storage adapter.
func NewEngine(adapter storage.Adapter, cfg *models.Config, now func() time.Time, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := LoadLocation(cfg.Metrics.Timezone)
	if err != nil {
		return nil, err
	}
	return &Engine{
		adapter:    adapter,
		index:      NewEventIndex(adapter, cfg.Load, loc, logger),
		correlator: NewCorrelator(nil, cfg.Workflow.PromptWindow),
		aggregator: NewAggregator(cfg.Metrics, loc, now),
		searchCfg:  cfg.Search,
		timeout:    cfg.StorageTimeout,
		loc:        loc,
		logger:     logger,
	}, nil
}

// Location returns the storage location being queried.
func (e *Engine) Location() string {
	return e.adapter.Location()
}

// TimeLocation returns the time zone used for date bounds and histograms.
func (e *Engine) TimeLocation() *time.Location {
	return e.loc
}

func (e *Engine) begin(ctx context.Context, query string) (context.Context, context.CancelFunc, *zap.Logger) {
	log := e.logger.With(zap.String("query_id", uuid.NewString()), zap.String("query", query))
	if e.timeout <= 0 {
		return ctx, func() {}, log
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	return ctx, cancel, log
}

// ListFiles lists the log files at the storage location.
func (e *Engine) ListFiles(ctx context.Context) ([]models.FileDescriptor, error) {
	ctx, cancel, log := e.begin(ctx, "list_files")
	defer cancel()

	files, err := e.adapter.ListFiles(ctx)
	if err != nil {
		log.Warn("listing files failed", zap.String("location", e.adapter.Location()), zap.Error(err))
		return nil, fmt.Errorf("listing files: %w", err)
	}
	log.Debug("files listed", zap.Int("count", len(files)))
	return files, nil
}

// Load reads the given files, or every file at the location when paths is
// empty.
func (e *Engine) Load(ctx context.Context, paths []string) (*models.LoadResult, error) {
	ctx, cancel, log := e.begin(ctx, "load")
	defer cancel()
	return e.load(ctx, log, paths)
}

func (e *Engine) load(ctx context.Context, log *zap.Logger, paths []string) (*models.LoadResult, error) {
	var (
		result *models.LoadResult
		err    error
	)
	if len(paths) == 0 {
		result, err = e.index.LoadAll(ctx)
	} else {
		result, err = e.index.Load(ctx, paths)
	}
	if err != nil {
		log.Warn("load failed", zap.Error(err))
		return nil, err
	}
	if result.Partial() {
		log.Warn("partial load",
			zap.Int("files_failed", result.FilesFailed),
			zap.Int("parse_errors", result.ParseErrors))
	}
	log.Info("corpus read",
		zap.Int("events", len(result.Events)),
		zap.Int("files", result.FilesLoaded),
		zap.Int("duplicates", result.Duplicates))
	return result, nil
}

// Sessions groups the corpus into sessions, most recent first.
func (e *Engine) Sessions(ctx context.Context, paths []string) ([]models.Session, *models.LoadResult, error) {
	ctx, cancel, log := e.begin(ctx, "sessions")
	defer cancel()

	result, err := e.load(ctx, log, paths)
	if err != nil {
		return nil, nil, err
	}
	sessions := GroupSessions(result.Events)
	SortSessionsByRecency(sessions)
	return sessions, result, nil
}

// Workflow correlates prompts and actions for target, a trajectory id or
// models.NoSession.
func (e *Engine) Workflow(ctx context.Context, paths []string, target string) ([]models.WorkflowGroup, *models.LoadResult, error) {
	ctx, cancel, log := e.begin(ctx, "workflow")
	defer cancel()

	result, err := e.load(ctx, log, paths)
	if err != nil {
		return nil, nil, err
	}
	groups := e.correlator.Correlate(result.Events, target)
	log.Debug("workflow correlated", zap.String("session", target), zap.Int("groups", len(groups)))
	return groups, result, nil
}

// SharedAnchors lists prompts attributed to more than one session.
func (e *Engine) SharedAnchors(ctx context.Context, paths []string) ([]models.SharedAnchor, *models.LoadResult, error) {
	ctx, cancel, log := e.begin(ctx, "shared_anchors")
	defer cancel()

	result, err := e.load(ctx, log, paths)
	if err != nil {
		return nil, nil, err
	}
	return e.correlator.SharedAnchors(result.Events), result, nil
}

// Metrics aggregates the whole corpus.
func (e *Engine) Metrics(ctx context.Context, paths []string) (models.MetricsSnapshot, *models.LoadResult, error) {
	ctx, cancel, log := e.begin(ctx, "metrics")
	defer cancel()

	result, err := e.load(ctx, log, paths)
	if err != nil {
		return models.MetricsSnapshot{}, nil, err
	}
	return e.aggregator.Aggregate(result.Events), result, nil
}

// Health loads the corpus once and gathers the inputs alert evaluation needs.
func (e *Engine) Health(ctx context.Context, paths []string) (observability.CorpusHealth, error) {
	ctx, cancel, log := e.begin(ctx, "health")
	defer cancel()

	result, err := e.load(ctx, log, paths)
	if err != nil {
		return observability.CorpusHealth{}, err
	}
	return observability.CorpusHealth{
		Load:       result,
		Metrics:    e.aggregator.Aggregate(result.Events),
		Unassigned: UnassignedActions(result.Events),
	}, nil
}

// Search filters the corpus and returns at most limit matches, newest first.
// A non-positive limit selects search.limit; larger values are capped at
// search.max_limit.
func (e *Engine) Search(ctx context.Context, paths []string, q models.SearchQuery, limit int) (*models.SearchPage, *models.LoadResult, error) {
	ctx, cancel, log := e.begin(ctx, "search")
	defer cancel()

	result, err := e.load(ctx, log, paths)
	if err != nil {
		return nil, nil, err
	}
	matches, err := Search(result.Events, q)
	if err != nil {
		log.Info("search rejected", zap.Error(err))
		return nil, result, err
	}

	SortNewestFirst(matches)

	if limit <= 0 {
		limit = e.searchCfg.Limit
	}
	if e.searchCfg.MaxLimit > 0 && limit > e.searchCfg.MaxLimit {
		limit = e.searchCfg.MaxLimit
	}
	page := &models.SearchPage{Events: matches, Total: len(matches)}
	if limit > 0 && len(matches) > limit {
		page.Events = matches[:limit]
	}
	log.Debug("search complete", zap.Int("matches", page.Total))
	return page, result, nil
}
