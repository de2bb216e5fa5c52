package params

import (
	"fmt"

	"github.com/luxfi/vmtally/internal/vmerr"
)

// ValidateDomains checks every explicitly-provided value against its
// variable's declared Kind/Enum/Min/Max, accumulating every failure
// (E-PS-DOMAIN) rather than stopping at the first (spec.md SS4.6).
func ValidateDomains(s *Set) *vmerr.IssueList {
	issues := &vmerr.IssueList{}
	for id, raw := range s.Values {
		v, ok := ByID[id]
		if !ok {
			issues.Addf(vmerr.SchemaError, id, "E-PS-UNKNOWN", "", "unknown parameter %s", id)
			continue
		}
		if err := checkDomain(v, raw); err != nil {
			issues.Addf(vmerr.MethodConfigError, id, "E-PS-DOMAIN", "", "%s: %v", id, err)
		}
	}
	for _, v := range Registry {
		if v.Included {
			if _, present := s.Values[v.ID]; !present {
				issues.Addf(vmerr.MethodConfigError, v.ID, "E-PS-MISS", "", "required included variable %s (%s) is missing", v.ID, v.Name)
			}
		}
	}
	return issues
}

func checkDomain(v Variable, raw interface{}) error {
	switch v.Kind {
	case KindEnum:
		str, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected a string enum value")
		}
		for _, allowed := range v.Enum {
			if str == allowed {
				return nil
			}
		}
		return fmt.Errorf("value %q not in %v", str, v.Enum)
	case KindBoundedInt, KindPercent:
		n := toInt64(raw)
		if n < v.Min || n > v.Max {
			return fmt.Errorf("value %d out of range [%d,%d]", n, v.Min, v.Max)
		}
	case KindBool:
		if _, ok := raw.(bool); !ok {
			return fmt.Errorf("expected a boolean")
		}
	case KindString:
		if _, ok := raw.(string); !ok {
			return fmt.Errorf("expected a string")
		}
	case KindArray:
		if _, ok := raw.([]interface{}); !ok {
			return fmt.Errorf("expected an array")
		}
	case KindObject:
		if _, ok := raw.(map[string]interface{}); !ok {
			return fmt.Errorf("expected an object")
		}
	}
	return nil
}

// ValidateCrossVariable enforces the combination rules of spec.md SS4.5
// that cannot be checked one variable at a time.
func ValidateCrossVariable(s *Set) *vmerr.IssueList {
	issues := &vmerr.IssueList{}

	if s.String("VM-VAR-001") == "score" {
		if s.Int("VM-VAR-002") >= s.Int("VM-VAR-003") {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-002", "E-PS-DOMAIN", "",
				"score ballot requires score_scale_min < score_scale_max")
		}
	}

	if s.String("VM-VAR-001") == "ranked_irv" {
		if s.String("VM-VAR-005") != "reduce_continuing_denominator" {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-005", "E-PS-DOMAIN", "",
				"IRV requires exhaustion policy reduce_continuing_denominator")
		}
	}

	if s.String("VM-VAR-010") == "mixed_local_correction" {
		level := s.String("VM-VAR-013")
		if level != "national" && level != "regional" {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-013", "E-PS-DOMAIN", "", "MMP requires a valid correction level")
		}
		share := s.Int("VM-VAR-014")
		if share < 0 || share > 100 {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-014", "E-PS-DOMAIN", "", "MMP requires 0<=mlc_topup_share_pct<=100")
		}
		model := s.String("VM-VAR-015")
		policy := s.String("VM-VAR-016")
		if model == "fixed_total" && policy == "add_total_seats" {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-016", "E-PS-DOMAIN", "",
				"add_total_seats overhang policy requires total_seats_model=variable_add_seats")
		}
	}

	if s.Bool("VM-VAR-024") && s.String("VM-VAR-040") == "none" {
		mode := s.String("VM-VAR-025")
		if mode != "by_list" && mode != "by_tag" {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-025", "E-PS-DOMAIN", "",
				"double-majority with frontier_mode=none requires affected_family_mode in {by_list,by_tag}")
		} else {
			empty := (mode == "by_list" && len(s.StringSlice("VM-VAR-026")) == 0) ||
				(mode == "by_tag" && s.String("VM-VAR-027") == "")
			if empty {
				issues.Addf(vmerr.MethodConfigError, "VM-VAR-025", "E-PS-DOMAIN", "",
					"affected family reference must be non-empty")
			}
		}
	}

	if s.String("VM-VAR-050") == "random" {
		if _, present := s.Values["VM-VAR-052"]; !present {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-052", "E-PS-MISS", "",
				"tie_policy=random requires tie_seed to be present")
		} else if s.Int("VM-VAR-052") < 0 {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-052", "E-PS-DOMAIN", "", "tie_seed must be >= 0")
		}
	}

	if s.String("VM-VAR-040") != "none" {
		bands := s.Object("VM-VAR-042")
		_ = bands // structural band ordering is checked by internal/load's checkFrontierBands
		raw, _ := s.Get("VM-VAR-042")
		if arr, ok := raw.([]interface{}); !ok || len(arr) == 0 {
			issues.Addf(vmerr.MethodConfigError, "VM-VAR-042", "E-PS-DOMAIN", "",
				"frontier_mode != none requires a non-empty frontier_bands array")
		}
	}

	return issues
}
