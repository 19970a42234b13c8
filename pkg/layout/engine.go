package layout

import (
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/canopyviz/canopy/pkg/tree"
)

// Fingerprint returns a structural cache key for the tree: an xxhash
// digest over the sorted full id list. Adding or removing any node
// changes the fingerprint; toggling expand/collapse state does not.
func Fingerprint(t *tree.Tree) uint64 {
	ids := t.IDs()
	slices.Sort(ids)

	d := xxhash.New()
	for _, id := range ids {
		_, _ = d.WriteString(id)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Option configures an Engine.
type Option func(*Engine)

// WithSpacing overrides the horizontal and vertical grid spacing.
func WithSpacing(sx, sy float64) Option {
	return func(e *Engine) {
		e.spacingX = sx
		e.spacingY = sy
	}
}

// Engine computes positions and caches the last result keyed by the
// tree's structural fingerprint. The cache is invalidated only when the
// node set changes; expand/collapse never triggers a recompute.
//
// Engine is a plain value owned by the caller and is not safe for
// concurrent use.
type Engine struct {
	spacingX float64
	spacingY float64

	cachedKey uint64
	cached    map[string]Position
}

// NewEngine creates a layout engine with default spacing.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{spacingX: DefaultSpacingX, spacingY: DefaultSpacingY}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Spacing returns the engine's horizontal and vertical spacing.
func (e *Engine) Spacing() (sx, sy float64) { return e.spacingX, e.spacingY }

// Layout returns positions for the tree, reusing the cached map when
// the structural fingerprint matches the previous call.
func (e *Engine) Layout(t *tree.Tree) map[string]Position {
	key := Fingerprint(t)
	if e.cached != nil && key == e.cachedKey {
		return e.cached
	}
	e.cached = Compute(t, e.spacingX, e.spacingY)
	e.cachedKey = key
	return e.cached
}

// CacheHit reports whether the given tree would be served from cache.
func (e *Engine) CacheHit(t *tree.Tree) bool {
	return e.cached != nil && Fingerprint(t) == e.cachedKey
}

// Invalidate drops the cached layout.
func (e *Engine) Invalidate() {
	e.cached = nil
	e.cachedKey = 0
}
