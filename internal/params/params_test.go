package params

import "testing"

func TestRegistryHasUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, v := range Registry {
		if seen[v.ID] {
			t.Fatalf("duplicate variable id %s", v.ID)
		}
		seen[v.ID] = true
	}
}

func TestScoreBallotRequiresMinLtMax(t *testing.T) {
	s := &Set{Values: map[string]interface{}{
		"VM-VAR-001": "score",
		"VM-VAR-002": int64(10),
		"VM-VAR-003": int64(10),
	}}
	issues := ValidateCrossVariable(s)
	if issues.Empty() {
		t.Fatal("expected a domain error for score_scale_min == score_scale_max")
	}
}

func TestRandomTiePolicyRequiresSeed(t *testing.T) {
	s := &Set{Values: map[string]interface{}{"VM-VAR-050": "random"}}
	issues := ValidateCrossVariable(s)
	if issues.Empty() {
		t.Fatal("expected a missing-seed error")
	}
}

func TestDoubleMajorityWithoutFrontierRequiresFamily(t *testing.T) {
	s := &Set{Values: map[string]interface{}{
		"VM-VAR-024": true,
		"VM-VAR-040": "none",
		"VM-VAR-025": "by_proposed_change",
	}}
	issues := ValidateCrossVariable(s)
	if issues.Empty() {
		t.Fatal("expected an error: by_proposed_change is not valid when frontier_mode=none")
	}
}

func TestGetFallsBackToDefault(t *testing.T) {
	s := &Set{Values: map[string]interface{}{}}
	v, ok := s.Get("VM-VAR-022")
	if !ok {
		t.Fatal("expected VM-VAR-022 to be known")
	}
	if v.(int64) != 50 {
		t.Fatalf("expected default 50, got %v", v)
	}
}

func TestValidateDomainsFlagsOutOfRangePercent(t *testing.T) {
	s := &Set{Values: map[string]interface{}{"VM-VAR-022": int64(200)}}
	issues := ValidateDomains(s)
	if issues.Empty() {
		t.Fatal("expected an out-of-range domain error")
	}
}
