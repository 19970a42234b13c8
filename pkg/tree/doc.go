// Package tree reconstructs a hierarchy from flat records that each
// carry a redundantly-encoded ancestor chain, and resolves which nodes
// are reachable under an expand/collapse state.
//
// # Building
//
// Records declare their ancestry as a parent map keyed "level-N":
//
//	{"id": "1.2", "parent": {"level-1": "main", "level-2": "1", "level-3": "1.2"}}
//
// [Build] sorts each record's level keys numerically, walks the
// resulting root→leaf chain, and creates one node per first-seen id.
// An id's level and parent are fixed by the first chain that mentions
// it; later chains can only add child edges. The result is a [Tree]:
// an id→node map plus a level index in creation order.
//
// [BuildCache] memoizes the last build keyed by record-slice identity.
// It is a plain value owned by the caller, not package state.
//
// # Visibility
//
// [ComputeVisible] walks the tree breadth-first from the root,
// descending only through ids present in the [ExpandedSet]. The
// expanded set itself changes only via [Toggle], [ExpandAll], and
// [CollapseAll], each of which returns a fresh set.
//
// # Concurrency
//
// A Tree is mutated only while Build runs and is read-only afterwards,
// so concurrent readers need no locking.
package tree
