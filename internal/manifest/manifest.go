// Package manifest implements C7: assembling the Normative Manifest (the
// Included-variable snapshot plus fixed algorithmic constants) and
// hashing it to produce the Formula ID. The Formula ID identifies the
// rule set a run applied, independent of dataset, tie seed or
// presentation toggles (spec.md SS4.7).
package manifest

import (
	"sort"

	"github.com/luxfi/vmtally/internal/canon"
	"github.com/luxfi/vmtally/internal/params"
)

const SchemaVersion = "vmtally/manifest/1"

// FIDPolicyVersion names the VM-VAR-050/051/052 numbering convention this
// build accepts: the later Annex A scheme (050=policy, 052=seed), not the
// older draft's 050/051/052=policy/reserved/seed ordering (spec.md SS11).
const FIDPolicyVersion = "annex-a-2024"

// VariableEntry is one Included variable's manifest row.
type VariableEntry struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Domain  string      `json:"domain"`
	Default interface{} `json:"default"`
	Notes   string      `json:"notes,omitempty"`
}

// Constants are the fixed algorithmic facts that participate in the
// Formula ID alongside the Included variables - changing any of these in
// code is, by definition, a rule-set change.
type Constants struct {
	ApprovalGateDenominator string   `json:"approval_gate_denominator"`
	IRVExhaustionPolicy     string   `json:"irv_exhaustion_policy"`
	RoundingRule            string   `json:"rounding_rule"`
	AllocationFamilies      []string `json:"allocation_families"`
	MMPSequence             []string `json:"mmp_sequence"`
	ContiguityEdgeTypes     []string `json:"contiguity_edge_types"`
}

// Compat carries schema-compatibility metadata that is itself part of
// the hashed payload: a reserved_ids array and the FID policy version so
// that a future numbering change is detectable as a different FID.
type Compat struct {
	ReservedIDs      []string `json:"reserved_ids"`
	FIDPolicyVersion string   `json:"fid_policy_version"`
}

// Manifest is the exact field order of spec.md SS4.7: schema_version,
// variables, constants, compat. Origin is carried for traceability but
// tagged to be excluded from the hash input (see Hashable).
type Manifest struct {
	SchemaVersion string          `json:"schema_version"`
	Variables     []VariableEntry `json:"variables"`
	Constants     Constants       `json:"constants"`
	Compat        Compat          `json:"compat"`
	Origin        *Origin         `json:"origin,omitempty"`
}

// Origin is informational only - VCS refs and timestamps - and never
// enters the hash.
type Origin struct {
	VCSRef        string `json:"vcs_ref,omitempty"`
	BuiltAtUTC    string `json:"built_at_utc,omitempty"`
	EngineVersion string `json:"engine_version,omitempty"`
}

// hashable is fields 1-4 only, serialized in that order with no Origin -
// the exact payload spec.md SS4.7 says the hash covers.
type hashable struct {
	SchemaVersion string          `json:"schema_version"`
	Variables     []VariableEntry `json:"variables"`
	Constants     Constants       `json:"constants"`
	Compat        Compat          `json:"compat"`
}

// Build assembles the Normative Manifest from a resolved ParameterSet:
// Included variables only, sorted by VM-VAR ID, with the fixed
// algorithmic constants this build implements.
func Build(s *params.Set) Manifest {
	var entries []VariableEntry
	for _, v := range params.Registry {
		if !v.Included {
			continue
		}
		val, _ := s.Get(v.ID)
		entries = append(entries, VariableEntry{
			ID:      v.ID,
			Name:    v.Name,
			Domain:  domainString(v),
			Default: val,
			Notes:   v.Notes,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return Manifest{
		SchemaVersion: SchemaVersion,
		Variables:     entries,
		Constants: Constants{
			ApprovalGateDenominator: "approvals_for_change / valid_ballots",
			IRVExhaustionPolicy:     "reduce_continuing_denominator",
			RoundingRule:            "half_even",
			AllocationFamilies:      []string{"winner_take_all", "dhondt", "proportional_favor_small", "largest_remainder", "mixed_local_correction"},
			MMPSequence:             []string{"local_wta", "target_apportionment", "deficit_overhang", "topup_policy"},
			ContiguityEdgeTypes:     []string{"land", "bridge", "water"},
		},
		Compat: Compat{
			ReservedIDs:      []string{"VM-VAR-051"},
			FIDPolicyVersion: FIDPolicyVersion,
		},
	}
}

// domainString renders a Variable's Kind/Enum/Min-Max as the short
// descriptive string the manifest records per entry.
func domainString(v params.Variable) string {
	switch v.Kind {
	case params.KindEnum:
		return "enum" + joinBracketed(v.Enum)
	case params.KindBoundedInt:
		return "int_range"
	case params.KindPercent:
		return "percent"
	case params.KindBool:
		return "bool"
	case params.KindArray:
		return "array"
	case params.KindObject:
		return "object"
	case params.KindString:
		return "string"
	default:
		return "unknown"
	}
}

func joinBracketed(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	out := "["
	for i, v := range vals {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out + "]"
}

// FormulaID canonicalizes the hashable portion of m (fields 1-4, Origin
// excluded) and returns its SHA-256 hex digest alongside the canonical
// bytes that were hashed (the "nm_digest" payload embedded in RunRecord
// for self-verify's independent recomputation).
func FormulaID(m Manifest) (formulaID string, nmDigest []byte, err error) {
	h := hashable{
		SchemaVersion: m.SchemaVersion,
		Variables:     m.Variables,
		Constants:     m.Constants,
		Compat:        m.Compat,
	}
	digest, body, err := canon.HashOf(h)
	if err != nil {
		return "", nil, err
	}
	return digest, body, nil
}
