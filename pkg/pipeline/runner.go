package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/canopyviz/canopy/pkg/cache"
	"github.com/canopyviz/canopy/pkg/errors"
	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/materialize"
	"github.com/canopyviz/canopy/pkg/observability"
	"github.com/canopyviz/canopy/pkg/source"
	"github.com/canopyviz/canopy/pkg/tree"
	"github.com/canopyviz/canopy/pkg/wire"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs the complete load → build → layout → materialize
// pipeline with caching. The terminal descriptor lists land in the
// result; intermediate batches go to opts.OnBatch when set.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	records, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.RecordCount = len(records)

	// Stage 2: Build
	buildStart := time.Now()
	observability.Pipeline().OnBuildStart(ctx, len(records))
	t := tree.Build(records)
	result.Tree = t
	result.Fingerprint = layout.Fingerprint(t)
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = t.NodeCount()
	result.Stats.EdgeCount = t.EdgeCount()
	observability.Pipeline().OnBuildComplete(ctx, t.NodeCount(), result.Stats.BuildTime, nil)

	opts.Logger.Info("built tree",
		"records", len(records),
		"nodes", t.NodeCount(),
		"edges", t.EdgeCount(),
		"duration", result.Stats.BuildTime)

	// Stage 3: Layout
	layoutStart := time.Now()
	positions, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, t, opts)
	if err != nil {
		return nil, err
	}
	result.Positions = positions
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"nodes", len(positions),
		"cache_hit", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Materialize
	matStart := time.Now()
	result.Expanded = opts.ExpandedSet(t)
	result.Visible = tree.ComputeVisible(t, result.Expanded)
	result.Stats.VisibleCount = len(result.Visible)

	nodes, edges, frameHit, err := r.MaterializeWithCacheInfo(ctx, t, result.Expanded, result.Visible, positions, opts)
	if err != nil {
		return nil, err
	}
	result.Nodes = nodes
	result.Edges = edges
	result.Stats.MaterializeTime = time.Since(matStart)
	result.Stats.BatchCount = materialize.BatchCount(len(result.Visible), opts.ChunkSize)
	result.CacheInfo.FrameHit = frameHit

	opts.Logger.Info("materialized view",
		"visible", len(result.Visible),
		"batches", result.Stats.BatchCount,
		"cache_hit", frameHit,
		"duration", result.Stats.MaterializeTime)

	return result, nil
}

// Load reads records per the options.
func (r *Runner) Load(ctx context.Context, opts Options) ([]tree.Record, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	if opts.Records != nil {
		return opts.Records, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := source.LoadRecords(opts.Data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "loading %s", opts.Data)
	}
	return records, nil
}

// ComputeLayoutWithCacheInfo computes positions with caching and
// returns cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, t *tree.Tree, opts Options) (map[string]layout.Position, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	opts.SetMaterializeDefaults()
	r.applyLogger(&opts)

	fp := layout.Fingerprint(t)
	key := cache.LayoutKey(fp, opts.SpacingX, opts.SpacingY)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached map[string]layout.Position
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Undecodable entry, recompute
			_ = r.Cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	observability.Pipeline().OnLayoutStart(ctx, t.NodeCount())
	start := time.Now()
	positions := layout.Compute(t, opts.SpacingX, opts.SpacingY)
	observability.Pipeline().OnLayoutComplete(ctx, time.Since(start), nil)

	if data, err := json.Marshal(positions); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.CacheTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return positions, false, nil
}

// MaterializeWithCacheInfo produces the terminal descriptor lists,
// committing intermediate batches through opts.OnBatch. The terminal
// frame is cached; on a hit the single cached commit replaces the
// batch sequence.
func (r *Runner) MaterializeWithCacheInfo(ctx context.Context, t *tree.Tree, expanded tree.ExpandedSet, visible tree.VisibleSet, positions map[string]layout.Position, opts Options) ([]materialize.NodeDescriptor, []materialize.EdgeDescriptor, bool, error) {
	opts.SetMaterializeDefaults()
	r.applyLogger(&opts)

	fp := layout.Fingerprint(t)
	key := cache.FrameKey(fp, cache.ExpandedHash(expanded.IDs()), opts.ChunkSize)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			frame, err := wire.UnmarshalFrame(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "frame")
				if opts.OnBatch != nil {
					opts.OnBatch(frame.Nodes, frame.Edges, frame.Progress)
				}
				return frame.Nodes, frame.Edges, true, nil
			}
			_ = r.Cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "frame")
	}

	candNodes, candEdges := materialize.Candidates(t, visible, positions, expanded)
	observability.Pipeline().OnMaterializeStart(ctx, len(visible), opts.ChunkSize)
	start := time.Now()

	var lastNodes []materialize.NodeDescriptor
	var lastEdges []materialize.EdgeDescriptor
	batch := 0
	m := materialize.New(opts.ChunkSize, opts.Scheduler)
	task := m.Run(candNodes, candEdges, func(nodes []materialize.NodeDescriptor, edges []materialize.EdgeDescriptor, progress int) {
		batch++
		lastNodes, lastEdges = nodes, edges
		observability.Pipeline().OnMaterializeBatch(ctx, batch, progress)
		if opts.OnBatch != nil {
			opts.OnBatch(nodes, edges, progress)
		}
	})

	select {
	case <-task.Done():
	case <-ctx.Done():
		task.Cancel()
		observability.Pipeline().OnMaterializeComplete(ctx, true, time.Since(start))
		return nil, nil, false, ctx.Err()
	}
	if task.Cancelled() {
		observability.Pipeline().OnMaterializeComplete(ctx, true, time.Since(start))
		return nil, nil, false, errors.New(errors.ErrCodeCancelled, "materialization cancelled")
	}
	observability.Pipeline().OnMaterializeComplete(ctx, false, time.Since(start))

	frame := wire.Frame{Nodes: lastNodes, Edges: lastEdges, Progress: 100}
	if data, err := wire.MarshalFrame(frame); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.CacheTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "frame", len(data))
		}
	}
	return lastNodes, lastEdges, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
