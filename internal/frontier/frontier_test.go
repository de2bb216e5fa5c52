package frontier

import (
	"testing"

	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tallyid"
)

func mustUnit(reg *model.Registry, path string, protected bool) *model.Unit {
	u, err := tallyid.ParseUnitID("U:example:v1:" + path)
	if err != nil {
		panic(err)
	}
	unit := &model.Unit{ID: u, ProtectedArea: protected}
	reg.Units[u.String()] = unit
	return unit
}

func newRegistry() *model.Registry {
	return &model.Registry{Units: map[string]*model.Unit{}}
}

func TestBinaryCutoffChangesAboveThreshold(t *testing.T) {
	reg := newRegistry()
	u1 := mustUnit(reg, "root.c1", false)
	u2 := mustUnit(reg, "root.c2", false)

	support := map[string]UnitSupport{
		u1.ID.String(): {UnitID: u1.ID, Num: 60, Den: 100},
		u2.ID.String(): {UnitID: u2.ID, Num: 40, Den: 100},
	}
	ps := &params.Set{Values: map[string]interface{}{
		"VM-VAR-040": "binary_cutoff",
		"VM-VAR-041": int64(50),
	}}

	got := Map(reg, support, nil, nil, ps)
	byID := map[string]UnitStatus{}
	for _, r := range got {
		byID[r.UnitID.String()] = r
	}
	if byID[u1.ID.String()].Status != StatusImmediateChange {
		t.Fatalf("expected c1 (60%%) to change, got %+v", byID[u1.ID.String()])
	}
	if byID[u2.ID.String()].Status != StatusNoChange {
		t.Fatalf("expected c2 (40%%) to stay no_change, got %+v", byID[u2.ID.String()])
	}
}

func TestProtectedAreaBlocksChangeUnlessOverrideAllowed(t *testing.T) {
	reg := newRegistry()
	u1 := mustUnit(reg, "root.c1", true)

	support := map[string]UnitSupport{u1.ID.String(): {UnitID: u1.ID, Num: 90, Den: 100}}
	ps := &params.Set{Values: map[string]interface{}{
		"VM-VAR-040": "binary_cutoff",
		"VM-VAR-041": int64(50),
		"VM-VAR-045": false,
	}}

	got := Map(reg, support, nil, nil, ps)
	if got[0].Status != StatusNoChange {
		t.Fatalf("expected protected area to stay no_change without override, got %+v", got[0])
	}

	ps.Values["VM-VAR-045"] = true
	got = Map(reg, support, nil, nil, ps)
	if got[0].Status != StatusImmediateChange {
		t.Fatalf("expected protected area to change once override is allowed, got %+v", got[0])
	}
	if !got[0].ProtectedOverride {
		t.Fatalf("expected ProtectedOverride flag to be set")
	}
}

func TestSlidingScaleAssignsExactlyOneBand(t *testing.T) {
	reg := newRegistry()
	u1 := mustUnit(reg, "root.c1", false)

	support := map[string]UnitSupport{u1.ID.String(): {UnitID: u1.ID, Num: 65, Den: 100}}
	bands := []Band{
		{MinPct: 0, MaxPct: 50, Action: "no_change"},
		{MinPct: 50, MaxPct: 75, Action: "autonomy"},
		{MinPct: 75, MaxPct: 100, Action: "independence"},
	}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-040": "sliding_scale"}}

	got := Map(reg, support, bands, nil, ps)
	if got[0].BandMet != "autonomy" {
		t.Fatalf("expected band 'autonomy' for 65%%, got %q", got[0].BandMet)
	}
	if got[0].Status != "autonomy" {
		t.Fatalf("expected status to carry the band action literally, got %+v", got[0])
	}
	if !got[0].WantsChange {
		t.Fatalf("expected WantsChange to be true for a non-no_change band")
	}
}

func TestIsolatedChangeWithoutFerryIsMediated(t *testing.T) {
	reg := newRegistry()
	u1 := mustUnit(reg, "root.c1", false)
	u2 := mustUnit(reg, "root.c2", false)
	reg.Adjacency = []model.AdjacencyEdge{{A: u1.ID, B: u2.ID, Type: model.EdgeWater}}

	support := map[string]UnitSupport{
		u1.ID.String(): {UnitID: u1.ID, Num: 90, Den: 100},
		u2.ID.String(): {UnitID: u2.ID, Num: 10, Den: 100},
	}
	ps := &params.Set{Values: map[string]interface{}{
		"VM-VAR-040": "binary_cutoff",
		"VM-VAR-041": int64(50),
		"VM-VAR-043": []interface{}{"land"},
		"VM-VAR-044": "none",
	}}

	got := Map(reg, support, nil, nil, ps)
	byID := map[string]UnitStatus{}
	for _, r := range got {
		byID[r.UnitID.String()] = r
	}
	if !byID[u1.ID.String()].Mediation {
		t.Fatalf("expected c1 to be flagged mediation (only water-connected, no land path), got %+v", byID[u1.ID.String()])
	}
	if byID[u1.ID.String()].Status != StatusNoChange {
		t.Fatalf("expected mediated unit to fall back to no_change, got %+v", byID[u1.ID.String()])
	}
}

func TestAutonomyLadderFormatsPackageIntoStatus(t *testing.T) {
	reg := newRegistry()
	u1 := mustUnit(reg, "root.c1", false)

	support := map[string]UnitSupport{u1.ID.String(): {UnitID: u1.ID, Num: 65, Den: 100}}
	bands := []Band{
		{MinPct: 0, MaxPct: 50, Action: "no_change"},
		{MinPct: 50, MaxPct: 100, Action: "autonomy"},
	}
	ps := &params.Set{Values: map[string]interface{}{
		"VM-VAR-040": "autonomy_ladder",
		"VM-VAR-046": map[string]interface{}{"autonomy": "AP:regional-self-rule:v1"},
	}}

	got := Map(reg, support, bands, nil, ps)
	if got[0].Status != "autonomy(AP:regional-self-rule:v1)" {
		t.Fatalf("expected formatted autonomy status, got %q", got[0].Status)
	}
	if got[0].AutonomyPackage.String() != "AP:regional-self-rule:v1" {
		t.Fatalf("expected AutonomyPackage to be populated, got %+v", got[0].AutonomyPackage)
	}
}

func TestUnitQuorumFailureBlocksChange(t *testing.T) {
	reg := newRegistry()
	u1 := mustUnit(reg, "root.c1", false)

	support := map[string]UnitSupport{u1.ID.String(): {UnitID: u1.ID, Num: 90, Den: 100}}
	unitQuorum := map[string]bool{u1.ID.String(): false}
	ps := &params.Set{Values: map[string]interface{}{
		"VM-VAR-040": "binary_cutoff",
		"VM-VAR-041": int64(50),
	}}

	got := Map(reg, support, nil, unitQuorum, ps)
	if got[0].Status != StatusNoChange {
		t.Fatalf("expected unit failing per-unit quorum to stay no_change, got %+v", got[0])
	}
}
