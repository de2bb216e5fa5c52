// Package label implements C14: deriving the run's final decisiveness
// label from gate outcomes, the national margin, and frontier flags -
// the very last computation before artifacts are assembled. Labels are
// derived entirely from fields the engine already produced; presentation
// variables (060-062) never change them (spec.md SS4.13/SS9).
package label

const (
	Invalid  = "Invalid"
	Marginal = "Marginal"
	Decisive = "Decisive"
)

// Inputs bundles everything the labeler needs in one place.
type Inputs struct {
	ValidationFailed     bool
	GatesFailed          bool
	NationalMarginPP     int64 // national support minus threshold, in percentage points, tenths precision x10
	MarginalBandPP       int64 // VM-VAR-031, same tenths-of-a-point scale as NationalMarginPP
	AnyMediation         bool
	AnyEnclave           bool
	AnyProtectedOverride bool
}

// Derive applies spec.md SS4.13's fixed precedence: Invalid beats
// Marginal beats Decisive.
func Derive(in Inputs) (string, string) {
	if in.ValidationFailed {
		return Invalid, "validation_failed"
	}
	if in.GatesFailed {
		return Invalid, "gate_failed"
	}
	if in.NationalMarginPP < in.MarginalBandPP {
		return Marginal, "margin_below_band"
	}
	if in.AnyMediation {
		return Marginal, "mediation_flagged"
	}
	if in.AnyEnclave {
		return Marginal, "enclave_flagged"
	}
	if in.AnyProtectedOverride {
		return Marginal, "protected_override_used"
	}
	return Decisive, "gates_passed_margin_clear"
}
