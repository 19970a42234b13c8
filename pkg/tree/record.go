package tree

import (
	"sort"
	"strconv"
	"strings"
)

// levelKeyPrefix is the expected prefix of parent-map keys ("level-1",
// "level-2", ...). Keys without the prefix are tolerated and sort last.
const levelKeyPrefix = "level-"

// Record is a single raw input record. Each record names itself and the full
// ancestor chain it belongs to: the parent map holds one entry per level,
// keyed "level-N", ending with the record's own id at the deepest level.
type Record struct {
	ID          string            `json:"id" bson:"id"`
	Name        string            `json:"name,omitempty" bson:"name,omitempty"`
	Description string            `json:"description,omitempty" bson:"description,omitempty"`
	Parent      map[string]string `json:"parent,omitempty" bson:"parent,omitempty"`
}

// Chain returns the record's ancestor chain ordered root→leaf.
// Parent-map keys are sorted ascending by the numeric suffix after "level-";
// keys with a non-numeric or missing suffix sort after all numeric keys,
// with ties broken by the raw key string so the order is total. A record
// with an empty parent map contributes no chain and returns nil.
func (r Record) Chain() []string {
	if len(r.Parent) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.Parent))
	for k := range r.Parent {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, oki := levelSuffix(keys[i])
		nj, okj := levelSuffix(keys[j])
		switch {
		case oki && okj:
			if ni != nj {
				return ni < nj
			}
		case oki:
			return true
		case okj:
			return false
		}
		return keys[i] < keys[j]
	})

	chain := make([]string, 0, len(keys))
	for _, k := range keys {
		chain = append(chain, r.Parent[k])
	}
	return chain
}

// levelSuffix extracts the numeric suffix of a level key.
// Returns false for keys without the "level-" prefix or with a
// non-numeric suffix; those keys are treated as unbounded depth.
func levelSuffix(key string) (int, bool) {
	s, ok := strings.CutPrefix(key, levelKeyPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// metadataIndex maps record ids to their display metadata. A chain may
// reference an id whose own record appears later in the input, so the
// index is built over the whole collection before any chain is walked.
type metadataIndex map[string]Record

func indexRecords(records []Record) metadataIndex {
	idx := make(metadataIndex, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, seen := idx[r.ID]; !seen {
			idx[r.ID] = r
		}
	}
	return idx
}

// label returns the display label for id, or a deterministic placeholder
// when no record carries metadata for it.
func (m metadataIndex) label(id string) string {
	if r, ok := m[id]; ok && r.Name != "" {
		return r.Name
	}
	return "Node " + id
}

// description returns the description for id, or a deterministic
// placeholder when no record carries metadata for it.
func (m metadataIndex) description(id string) string {
	if r, ok := m[id]; ok && r.Description != "" {
		return r.Description
	}
	return "Description for " + id
}
