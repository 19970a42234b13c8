package tree

// Build reconstructs a tree from a flat record collection.
//
// Every record contributes one root→leaf chain (see [Record.Chain]).
// Chains are walked left to right: the first chain to mention an id
// creates its node, fixing level (the id's position in that chain) and
// parent (the previous chain entry) forever. Later chains that mention
// the same id at a different depth never re-parent it; they can only
// contribute additional child edges. Records with an empty parent map
// are skipped.
//
// Build is a pure function of the record sequence: calling it twice on
// the same records yields structurally identical trees. Complexity is
// O(R·L) for R records of average chain length L.
func Build(records []Record) *Tree {
	meta := indexRecords(records)
	t := newTree()

	for _, r := range records {
		chain := r.Chain()
		for i, id := range chain {
			if id == "" {
				continue
			}
			if _, exists := t.nodes[id]; !exists {
				parent := ""
				if i > 0 {
					parent = chain[i-1]
				}
				t.add(id, meta.label(id), meta.description(id), i, parent)
			}
			if i > 0 && chain[i-1] != "" && chain[i-1] != id {
				t.link(chain[i-1], id)
			}
		}
	}

	return t
}

// BuildCache memoizes the last built tree, keyed by the identity of the
// record collection. It is an explicit value owned by the caller, so
// multiple trees can be built and tested independently; there is no
// hidden process-wide cache.
//
// Identity is the address of the slice's first element plus its length.
// Any doubt (empty slice, different backing array) falls back to a
// rebuild, which is always correct.
type BuildCache struct {
	lastRef *Record
	lastLen int
	tree    *Tree
}

// Build returns the cached tree when records is the same collection the
// cache last saw, and rebuilds otherwise.
func (c *BuildCache) Build(records []Record) *Tree {
	if len(records) == 0 {
		return Build(records)
	}
	ref := &records[0]
	if c.tree != nil && c.lastRef == ref && c.lastLen == len(records) {
		return c.tree
	}
	c.tree = Build(records)
	c.lastRef = ref
	c.lastLen = len(records)
	return c.tree
}

// Invalidate drops the cached tree. The next Build call will rebuild.
func (c *BuildCache) Invalidate() {
	c.lastRef = nil
	c.lastLen = 0
	c.tree = nil
}
