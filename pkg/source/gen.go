package source

import (
	"fmt"

	"github.com/canopyviz/canopy/pkg/tree"
)

// GenOptions configures the sample hierarchy generator.
type GenOptions struct {
	// Branches is the number of top-level branches under the root.
	Branches int
	// NodesPerBranch caps the number of leaf nodes per branch.
	// Intermediate nodes do not count against the cap.
	NodesPerBranch int
}

// DefaultGenOptions matches the reference dataset: 4 branches capped
// at 500 leaves each. The cap is not reached at full fan-out, so the
// default yields 853 nodes.
func DefaultGenOptions() GenOptions {
	return GenOptions{Branches: 4, NodesPerBranch: 500}
}

// Generate produces a deterministic sample hierarchy in raw record
// form: a root "main", dotted ids ("2.1.3"), intermediate fan-out of 4
// at each level and 2 leaves per deepest parent. Every record restates
// its full chain, the same redundant encoding real feeds use.
func Generate(opts GenOptions) []tree.Record {
	if opts.Branches <= 0 {
		opts.Branches = 4
	}
	if opts.NodesPerBranch <= 0 {
		opts.NodesPerBranch = 500
	}

	records := []tree.Record{{
		ID:          "main",
		Name:        "Main Node",
		Description: "Root of the hierarchy",
		Parent:      map[string]string{"level-1": "main"},
	}}

	counter := 0
	for branch := 1; branch <= opts.Branches; branch++ {
		branchID := fmt.Sprint(branch)
		records = append(records, intermediate(branchID, "Branch "+branchID, chain(branchID)))

		// count tracks leaves only; intermediates are free, as in the
		// reference dataset.
		count := 0
		for l3 := 1; l3 <= 4 && count < opts.NodesPerBranch; l3++ {
			id3 := fmt.Sprintf("%s.%d", branchID, l3)
			records = append(records, intermediate(id3, "Node "+id3, chain(branchID, id3)))

			for l4 := 1; l4 <= 4 && count < opts.NodesPerBranch; l4++ {
				id4 := fmt.Sprintf("%s.%d", id3, l4)
				records = append(records, intermediate(id4, "Node "+id4, chain(branchID, id3, id4)))

				for l5 := 1; l5 <= 4 && count < opts.NodesPerBranch; l5++ {
					id5 := fmt.Sprintf("%s.%d", id4, l5)
					records = append(records, intermediate(id5, "Node "+id5, chain(branchID, id3, id4, id5)))

					for l6 := 1; l6 <= 2 && count < opts.NodesPerBranch; l6++ {
						id6 := fmt.Sprintf("%s.%d", id5, l6)
						counter++
						records = append(records, tree.Record{
							ID:          id6,
							Name:        fmt.Sprintf("name-%d", 1000000+counter),
							Description: "Description for " + id6,
							Parent:      chain(branchID, id3, id4, id5, id6),
						})
						count++
					}
				}
			}
		}
	}
	return records
}

// chain builds a parent map for the path main → ids[0] → ids[1] → ...
func chain(ids ...string) map[string]string {
	m := make(map[string]string, len(ids)+1)
	m["level-1"] = "main"
	for i, id := range ids {
		m[fmt.Sprintf("level-%d", i+2)] = id
	}
	return m
}

func intermediate(id, name string, parent map[string]string) tree.Record {
	return tree.Record{
		ID:          id,
		Name:        name,
		Description: "Intermediate node " + id,
		Parent:      parent,
	}
}
