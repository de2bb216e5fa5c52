// Package params implements the VM-VAR parameter domain (spec.md SS4.5):
// a typed variable registry with defaults, domains and an FID-inclusion
// flag per variable, plus the ParameterSet that resolves a loaded input
// against that registry and the cross-variable validation that must pass
// before any tabulation math runs.
//
// The shape follows the teacher's config.Validator / config.ValidationResult
// pattern (accumulate every problem, then report) generalized from
// Avalanche sampling parameters to the VM-VAR-### numbering scheme.
package params

// Kind classifies a variable's value domain.
type Kind int

const (
	KindEnum Kind = iota
	KindBoundedInt
	KindPercent // integer 0..100
	KindBool
	KindArray
	KindObject
	KindString
)

// Variable describes one VM-VAR-### entry: its type, domain, default and
// whether it is Included in the Normative Manifest (and therefore the
// Formula ID).
type Variable struct {
	ID       string
	Name     string
	Kind     Kind
	Enum     []string // valid values when Kind == KindEnum
	Min, Max int64    // valid bounds when Kind == KindBoundedInt/KindPercent
	Default  interface{}
	Included bool
	Notes    string
}

// Registry is the full catalog of known VM-VAR-### variables, grouped by
// range; the groups are not in strict ID order (060-062 precede 032-035).
// It is a package-level constant table, not runtime state - the
// engine has no notion of a dynamically-extensible variable set.
var Registry = buildRegistry()

// ByID indexes Registry by variable ID for O(1) lookup.
var ByID = func() map[string]Variable {
	m := make(map[string]Variable, len(Registry))
	for _, v := range Registry {
		m[v.ID] = v
	}
	return m
}()

func buildRegistry() []Variable {
	return []Variable{
		// 001-007: ballot family
		{ID: "VM-VAR-001", Name: "ballot_type", Kind: KindEnum,
			Enum:    []string{"plurality", "approval", "score", "ranked_irv", "ranked_condorcet"},
			Default: "plurality", Included: true},
		{ID: "VM-VAR-002", Name: "score_scale_min", Kind: KindBoundedInt, Min: 0, Max: 100,
			Default: int64(0), Included: true},
		{ID: "VM-VAR-003", Name: "score_scale_max", Kind: KindBoundedInt, Min: 1, Max: 1000,
			Default: int64(10), Included: true},
		{ID: "VM-VAR-004", Name: "score_normalization", Kind: KindEnum,
			Enum: []string{"none", "linear"}, Default: "none", Included: true},
		{ID: "VM-VAR-005", Name: "irv_exhaustion_policy", Kind: KindEnum,
			Enum:    []string{"reduce_continuing_denominator"},
			Default: "reduce_continuing_denominator", Included: true,
			Notes: "the only allowed value (spec.md SS4.5)"},
		{ID: "VM-VAR-006", Name: "condorcet_completion", Kind: KindEnum,
			Enum: []string{"schulze", "minimax"}, Default: "schulze", Included: true},
		{ID: "VM-VAR-007", Name: "ranked_ballot_required", Kind: KindBool,
			Default: false, Included: true},

		// 010-017: allocation
		{ID: "VM-VAR-010", Name: "allocation_method", Kind: KindEnum,
			Enum:    []string{"winner_take_all", "dhondt", "proportional_favor_small", "largest_remainder", "mixed_local_correction"},
			Default: "winner_take_all", Included: true,
			Notes: "proportional_favor_small is Sainte-Lague (odd divisors)"},
		{ID: "VM-VAR-011", Name: "pr_entry_threshold_pct", Kind: KindPercent, Min: 0, Max: 10,
			Default: int64(0), Included: true},
		{ID: "VM-VAR-012", Name: "largest_remainder_quota", Kind: KindEnum,
			Enum: []string{"hare", "droop", "imperiali"}, Default: "hare", Included: true},
		{ID: "VM-VAR-013", Name: "mlc_correction_level", Kind: KindEnum,
			Enum: []string{"national", "regional"}, Default: "national", Included: true},
		{ID: "VM-VAR-014", Name: "mlc_topup_share_pct", Kind: KindPercent, Min: 0, Max: 100,
			Default: int64(50), Included: true},
		{ID: "VM-VAR-015", Name: "total_seats_model", Kind: KindEnum,
			Enum: []string{"fixed_total", "variable_add_seats"}, Default: "fixed_total", Included: true},
		{ID: "VM-VAR-016", Name: "overhang_policy", Kind: KindEnum,
			Enum:    []string{"allow_overhang", "compensate_others", "add_total_seats"},
			Default: "allow_overhang", Included: true},
		{ID: "VM-VAR-017", Name: "mlc_apportionment_method", Kind: KindEnum,
			Enum:    []string{"dhondt", "proportional_favor_small", "largest_remainder"},
			Default: "dhondt", Included: true},

		// 020-031: thresholds, eligibility, integrity
		{ID: "VM-VAR-020", Name: "quorum_global_pct", Kind: KindPercent, Min: 0, Max: 100,
			Default: int64(0), Included: true},
		{ID: "VM-VAR-021", Name: "quorum_per_unit_pct", Kind: KindPercent, Min: 0, Max: 100,
			Default: int64(0), Included: true},
		{ID: "VM-VAR-021-SCOPE", Name: "quorum_per_unit_scope", Kind: KindEnum,
			Enum:    []string{"frontier_only", "frontier_and_family"},
			Default: "frontier_only", Included: true},
		{ID: "VM-VAR-022", Name: "national_majority_pct", Kind: KindPercent, Min: 0, Max: 100,
			Default: int64(50), Included: true},
		{ID: "VM-VAR-023", Name: "regional_majority_pct", Kind: KindPercent, Min: 0, Max: 100,
			Default: int64(50), Included: true},
		{ID: "VM-VAR-024", Name: "double_majority_enabled", Kind: KindBool,
			Default: false, Included: true},
		{ID: "VM-VAR-025", Name: "affected_family_mode", Kind: KindEnum,
			Enum:    []string{"by_proposed_change", "by_list", "by_tag"},
			Default: "by_proposed_change", Included: true},
		{ID: "VM-VAR-026", Name: "affected_family_list", Kind: KindArray,
			Default: []interface{}{}, Included: true},
		{ID: "VM-VAR-027", Name: "affected_family_tag", Kind: KindString,
			Default: "", Included: true},
		{ID: "VM-VAR-028", Name: "include_blank_in_denominator", Kind: KindBool,
			Default: false, Included: true},
		{ID: "VM-VAR-029", Name: "symmetry_enabled", Kind: KindBool,
			Default: false, Included: true},
		{ID: "VM-VAR-030", Name: "symmetry_exceptions", Kind: KindArray,
			Default: []interface{}{}, Included: true},
		{ID: "VM-VAR-031", Name: "marginal_band_threshold_pp", Kind: KindBoundedInt, Min: 0, Max: 100,
			Default: int64(3), Included: true,
			Notes: "margin in percentage points below which a Decisive run demotes to Marginal"},

		// 040-049: frontier
		{ID: "VM-VAR-040", Name: "frontier_mode", Kind: KindEnum,
			Enum:    []string{"none", "binary_cutoff", "sliding_scale", "autonomy_ladder"},
			Default: "none", Included: true},
		{ID: "VM-VAR-041", Name: "frontier_cutoff_pct", Kind: KindPercent, Min: 0, Max: 100,
			Default: int64(50), Included: true},
		{ID: "VM-VAR-042", Name: "frontier_bands", Kind: KindArray,
			Default: []interface{}{}, Included: true},
		{ID: "VM-VAR-043", Name: "contiguity_modes_allowed", Kind: KindArray,
			Default: []interface{}{"land"}, Included: true},
		{ID: "VM-VAR-044", Name: "island_exception_rule", Kind: KindEnum,
			Enum:    []string{"none", "ferry_allowed", "corridor_required"},
			Default: "none", Included: true},
		{ID: "VM-VAR-045", Name: "protected_override_allowed", Kind: KindBool,
			Default: false, Included: true},
		{ID: "VM-VAR-046", Name: "autonomy_package_map", Kind: KindObject,
			Default: map[string]interface{}{}, Included: true},

		// 050-052: tie policy
		{ID: "VM-VAR-050", Name: "tie_policy", Kind: KindEnum,
			Enum:    []string{"status_quo", "deterministic_order", "random"},
			Default: "deterministic_order", Included: true,
			Notes: "later Annex A convention: 050=policy, 051=reserved, 052=seed"},
		{ID: "VM-VAR-051", Name: "reserved_051", Kind: KindString,
			Default: "", Included: false, Notes: "reserved, unused"},
		{ID: "VM-VAR-052", Name: "tie_seed", Kind: KindBoundedInt, Min: 0, Max: 1<<63 - 1,
			Default: int64(0), Included: false,
			Notes: "excluded from FID; echoed into RunRecord only when a random tie fires"},

		// 060-062: presentation labels/language, excluded from FID
		{ID: "VM-VAR-060", Name: "label_language", Kind: KindString,
			Default: "en", Included: false},
		{ID: "VM-VAR-061", Name: "option_display_locale", Kind: KindString,
			Default: "en-US", Included: false},
		{ID: "VM-VAR-062", Name: "date_display_format", Kind: KindString,
			Default: "YYYY-MM-DD", Included: false},

		// 032-035: presentation/pipeline toggles, excluded from FID
		{ID: "VM-VAR-032", Name: "output_locale_tag", Kind: KindString,
			Default: "C", Included: false},
		{ID: "VM-VAR-033", Name: "include_audit_trail", Kind: KindBool,
			Default: true, Included: false},
		{ID: "VM-VAR-034", Name: "pretty_print", Kind: KindBool,
			Default: false, Included: false},
		{ID: "VM-VAR-035", Name: "max_report_rows", Kind: KindBoundedInt, Min: 0, Max: 1_000_000,
			Default: int64(0), Included: false},

		// 073: algorithm variant
		{ID: "VM-VAR-073", Name: "algorithm_variant", Kind: KindEnum,
			Enum: []string{"standard"}, Default: "standard", Included: true},

		// weighting (aggregation) - part of the Included rule set though not
		// called out by a named range in spec.md SS4.5; it is outcome-affecting
		// (spec.md SS4.10) so it is Included.
		{ID: "VM-VAR-080", Name: "weighting_method", Kind: KindEnum,
			Enum:    []string{"equal_unit", "population_baseline"},
			Default: "equal_unit", Included: true},
	}
}
