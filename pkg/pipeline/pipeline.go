// Package pipeline provides the core reconstruction pipeline for canopy.
//
// This package implements the complete load → build → layout → materialize
// pipeline that can be used by CLI and server components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read flat records from a file or accept them in memory
//  2. Build: Reconstruct the tree from parent chains
//  3. Layout: Compute grid positions for every node
//  4. Materialize: Commit the visible view in cumulative batches
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Data:     "records.json",
//	    Expanded: []string{"main"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	frame := result.Frame
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/canopyviz/canopy/pkg/errors"
	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/materialize"
	"github.com/canopyviz/canopy/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultCacheTTL is the lifetime of cached layouts and frames.
	DefaultCacheTTL = 24 * time.Hour
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the reconstruction pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of Data or Records must be set.
	Data    string        `json:"data,omitempty"`
	Records []tree.Record `json:"records,omitempty"`

	// View options. Expanded lists the open node ids; ExpandAll opens
	// everything and wins over Expanded. An empty Expanded with
	// ExpandAll false means the collapsed default view (root only).
	Expanded  []string `json:"expanded,omitempty"`
	ExpandAll bool     `json:"expand_all,omitempty"`

	// Layout options
	SpacingX float64 `json:"spacing_x,omitempty"`
	SpacingY float64 `json:"spacing_y,omitempty"`

	// Materialize options
	ChunkSize int `json:"chunk_size,omitempty"`

	// Refresh bypasses the cache for this run.
	Refresh bool `json:"refresh,omitempty"`

	// CacheTTL overrides the cache entry lifetime. 0 means DefaultCacheTTL.
	CacheTTL time.Duration `json:"-"`

	// Runtime options (not serialized)
	Logger    *log.Logger           `json:"-"`
	OnBatch   materialize.OnBatch   `json:"-"`
	Scheduler materialize.Scheduler `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the reconstructed hierarchy.
	Tree *tree.Tree

	// Fingerprint is the tree's structural cache key.
	Fingerprint uint64

	// Expanded is the resolved expanded set for this run.
	Expanded tree.ExpandedSet

	// Visible is the computed visible set.
	Visible tree.VisibleSet

	// Positions maps every node id to its grid position.
	Positions map[string]layout.Position

	// Nodes and Edges are the terminal materialized descriptor lists.
	Nodes []materialize.NodeDescriptor
	Edges []materialize.EdgeDescriptor

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount     int
	NodeCount       int
	EdgeCount       int
	VisibleCount    int
	BatchCount      int
	LoadTime        time.Duration
	BuildTime       time.Duration
	LayoutTime      time.Duration
	MaterializeTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether layout positions came from cache
	FrameHit  bool // Whether the terminal frame came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent - calling it multiple
// times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	o.SetMaterializeDefaults()
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading records.
func (o *Options) ValidateForLoad() error {
	if o.Data == "" && o.Records == nil {
		return errors.New(errors.ErrCodeInvalidInput, "data path or records are required")
	}
	if o.Data != "" && o.Records != nil {
		return errors.New(errors.ErrCodeInvalidInput, "data path and records are mutually exclusive")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.SpacingX == 0 {
		o.SpacingX = layout.DefaultSpacingX
	}
	if o.SpacingY == 0 {
		o.SpacingY = layout.DefaultSpacingY
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.SpacingX < 0 || o.SpacingY < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "spacing must not be negative")
	}
	return nil
}

// SetMaterializeDefaults sets default values for materialization.
func (o *Options) SetMaterializeDefaults() {
	if o.ChunkSize == 0 {
		o.ChunkSize = materialize.DefaultChunkSize
	}
	if o.Scheduler == nil {
		o.Scheduler = materialize.Immediate{}
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ExpandedSet resolves the view options against a tree.
func (o *Options) ExpandedSet(t *tree.Tree) tree.ExpandedSet {
	if o.ExpandAll {
		return tree.ExpandAll(t)
	}
	if len(o.Expanded) > 0 {
		return tree.NewExpandedSet(o.Expanded...)
	}
	return tree.CollapseAll(t)
}
