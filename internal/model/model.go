// Package model holds the plain entity types shared by every pipeline
// stage: DivisionRegistry, Unit, Option, Adjacency, BallotTally and
// AutonomyPackage. These are arena-style value types looked up by ID -
// no back-pointers are persisted anywhere (spec.md SS9 "Design Notes");
// parent traversal goes through tallyid.UnitID.Parent().
package model

import (
	"sort"

	"github.com/luxfi/vmtally/internal/tallyid"
)

// Option is a selectable outcome on the ballot.
type Option struct {
	ID          tallyid.OptionID
	Name        string
	OrderIndex  int
	IsStatusQuo bool
}

// EdgeType classifies an adjacency edge for contiguity analysis.
type EdgeType string

const (
	EdgeLand   EdgeType = "land"
	EdgeBridge EdgeType = "bridge"
	EdgeWater  EdgeType = "water"
)

// AdjacencyEdge is an unordered, symmetric pair of Units.
type AdjacencyEdge struct {
	A, B tallyid.UnitID
	Type EdgeType
}

// Unit is an atomic tabulation locus within a DivisionRegistry.
type Unit struct {
	ID                     tallyid.UnitID
	Name                   string
	Level                  string
	Magnitude              int
	EligibleRoll           int64
	PopulationBaseline     int64 // 0 means absent
	PopulationBaselineYear int   // 0 means absent
	ProtectedArea          bool
}

// HasPopulationBaseline reports whether the Unit carries a population
// baseline (required when weighting = population_baseline).
func (u Unit) HasPopulationBaseline() bool { return u.PopulationBaseline > 0 }

// Registry is the hierarchy of Units, Options and Adjacency for one
// election.
type Registry struct {
	ID         tallyid.RegistryID
	Source     string
	Published  string           // YYYY-MM-DD
	Units      map[string]*Unit // keyed by UnitID.String()
	Options    []Option
	Adjacency  []AdjacencyEdge
	RootUnitID tallyid.UnitID
}

// UnitsSorted returns every Unit sorted by UnitID ascending.
func (r *Registry) UnitsSorted() []*Unit {
	out := make([]*Unit, 0, len(r.Units))
	for _, u := range r.Units {
		out = append(out, u)
	}
	sortUnitsByID(out)
	return out
}

// Children returns the direct children of the unit identified by id,
// sorted by UnitID ascending.
func (r *Registry) Children(id tallyid.UnitID) []*Unit {
	var out []*Unit
	for _, u := range r.Units {
		if parent, ok := u.ID.Parent(); ok && parent.String() == id.String() {
			out = append(out, u)
		}
	}
	sortUnitsByID(out)
	return out
}

// OptionsByOrderIndex returns options sorted by (OrderIndex, OptionID),
// the deterministic ordering used across tabulation and allocation.
func (r *Registry) OptionsByOrderIndex() []Option {
	out := make([]Option, len(r.Options))
	copy(out, r.Options)
	sortOptions(out)
	return out
}

func sortUnitsByID(units []*Unit) {
	sort.Slice(units, func(i, j int) bool {
		return units[i].ID.String() < units[j].ID.String()
	})
}

func sortOptions(options []Option) {
	sort.Slice(options, func(i, j int) bool {
		if options[i].OrderIndex != options[j].OrderIndex {
			return options[i].OrderIndex < options[j].OrderIndex
		}
		return options[i].ID < options[j].ID
	})
}

// RankedGroup is one group of identical ranked ballots sharing a ranking
// order and a count.
type RankedGroup struct {
	Ranking []tallyid.OptionID
	Count   int64
}

// UnitTally is the per-Unit section of a BallotTally.
type UnitTally struct {
	UnitID         tallyid.UnitID
	BallotsCast    int64
	InvalidOrBlank int64
	// OptionVotes covers plurality (votes), approval (approvals) and score
	// (score sums) ballot types - the natural per-option tally.
	OptionVotes map[tallyid.OptionID]int64
	// ScoreBallotCount is the number of score ballots counted into
	// OptionVotes, needed to undo/redo linear normalization.
	ScoreBallotCount int64
	// Ranked carries the IRV/Condorcet ballot groups; empty for other
	// ballot types.
	Ranked []RankedGroup
}

// BallotTally is the per-unit vote counts for one election.
type BallotTally struct {
	ID    tallyid.TallyID
	Units map[string]*UnitTally // keyed by UnitID.String()
}

// AutonomyPackage is a named bundle referenced by ladder/band actions.
type AutonomyPackage struct {
	ID   tallyid.AutonomyPackageID
	Name string
}
