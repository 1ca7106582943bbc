// Package impact computes the bounded blast radius of a change.
package impact

import (
	"slices"

	"github.com/huangsam/prisk/schema"
)

// Build walks the reverse-dependency map outward from the changed source files.
// At most maxDepth levels of importers are visited; 0 disables traversal.
// Every importer of an expanded node yields an edge, but each node is expanded once.
func Build(changed []schema.ChangedFile, deps schema.ReverseDependencyMap, maxDepth int) schema.ImpactGraph {
	maxDepth = max(maxDepth, 0)

	seeds := make([]string, 0, len(changed))
	for _, f := range changed {
		if f.Category == schema.CategorySource {
			seeds = append(seeds, f.Path)
		}
	}
	seeds = schema.SortedUnique(seeds)

	visited := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		visited[s] = struct{}{}
	}

	edges := make([]schema.ImpactEdge, 0)
	indirect := make([]string, 0)
	frontier := seeds
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			for _, importer := range deps.ImportersOf(node) {
				edges = append(edges, schema.ImpactEdge{From: importer, To: node, Type: schema.ImportsEdge})
				if _, seen := visited[importer]; seen {
					continue
				}
				visited[importer] = struct{}{}
				indirect = append(indirect, importer)
				next = append(next, importer)
			}
		}
		slices.Sort(next)
		frontier = next
	}
	slices.Sort(indirect)

	return schema.ImpactGraph{
		DirectlyChanged:    seeds,
		IndirectlyAffected: indirect,
		Edges:              edges,
		MaxDepth:           maxDepth,
	}
}

// Stats returns the counts most callers want from a graph.
func Stats(g schema.ImpactGraph) (direct, indirect, edges int) {
	return len(g.DirectlyChanged), len(g.IndirectlyAffected), len(g.Edges)
}
