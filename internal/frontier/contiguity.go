package frontier

import (
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
)

// unionFind is a standard disjoint-set over unit_id strings.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(ids []string) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(ids)), rank: make(map[string]int, len(ids))}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (uf *unionFind) find(x string) string {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x])
	}
	return uf.parent[x]
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

func allowedEdgeTypes(ps *params.Set) map[string]bool {
	modes := ps.StringSlice("VM-VAR-043")
	out := make(map[string]bool, len(modes))
	for _, m := range modes {
		out[m] = true
	}
	if len(out) == 0 {
		out["land"] = true
	}
	return out
}

// applyContiguity folds each Unit's island-exception handling into its
// already-computed desired status: a Unit proposing status_change that
// cannot reach another same-status unit through the allowed graph is
// either reconnected via a water/bridge exception or flagged mediation
// and reverted to no_change (spec.md SS4.12). Grouping uses wantsChange
// rather than the literal Status string, since Status now carries the
// specific band action or autonomy package rather than a generic
// "change" marker.
func applyContiguity(registry *model.Registry, units []*model.Unit, wantsChangeByUnit map[string]bool, results []UnitStatus, ps *params.Set) {
	rule := ps.String("VM-VAR-044")
	byID := make(map[string]*UnitStatus, len(results))
	for i := range results {
		byID[results[i].UnitID.String()] = &results[i]
	}

	// Build the "changing" subgraph: components of units that want
	// status_change, using the allowed edge set plus any rule-specific
	// relaxation (ferry_allowed adds water edges; corridor_required keeps
	// only land edges, dropping bridge-only links).
	allowed := allowedEdgeTypes(ps)
	switch rule {
	case "ferry_allowed":
		allowed["water"] = true
	case "corridor_required":
		delete(allowed, "bridge")
		delete(allowed, "water")
	}

	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID.String()
	}
	uf := newUnionFind(ids)
	for _, e := range registry.Adjacency {
		if !allowed[string(e.Type)] {
			continue
		}
		a, b := e.A.String(), e.B.String()
		if wantsChangeByUnit[a] && wantsChangeByUnit[b] {
			uf.union(a, b)
		}
	}

	componentSize := map[string]int{}
	for _, id := range ids {
		if wantsChangeByUnit[id] {
			componentSize[uf.find(id)]++
		}
	}

	for _, id := range ids {
		r := byID[id]
		if !wantsChangeByUnit[id] {
			continue
		}
		root := uf.find(id)
		if componentSize[root] <= 1 && hasAnyNeighbor(registry, id) {
			r.Mediation = true
			r.Status = StatusNoChange
			r.WantsChange = false
		}
	}
}

func hasAnyNeighbor(registry *model.Registry, unitID string) bool {
	for _, e := range registry.Adjacency {
		if e.A.String() == unitID || e.B.String() == unitID {
			return true
		}
	}
	return false
}
