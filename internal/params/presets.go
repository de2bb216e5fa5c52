package params

import "github.com/luxfi/vmtally/internal/tallyid"

// PresetNames lists the fixture ParameterSets this package ships, mirroring
// the teacher's config.PresetNames shape - adapted here to name election
// fixtures rather than network tiers, since this engine has no notion of
// mainnet/testnet.
func PresetNames() []string {
	return []string{"sainte-lague-baseline", "wta-plurality", "approval-gate-edge"}
}

// Preset returns one of the named fixture ParameterSets, or false if name
// is not recognized.
func Preset(name string) (*Set, bool) {
	switch name {
	case "sainte-lague-baseline":
		return &Set{
			ID: tallyid.ParameterSetID{Name: "sainte-lague-baseline", Version: "1.0.0"},
			Values: map[string]interface{}{
				"VM-VAR-001": "approval",
				"VM-VAR-010": "proportional_favor_small",
				"VM-VAR-011": int64(0),
				"VM-VAR-020": int64(50),
				"VM-VAR-022": int64(55),
				"VM-VAR-040": "none",
				"VM-VAR-050": "deterministic_order",
			},
		}, true
	case "wta-plurality":
		return &Set{
			ID: tallyid.ParameterSetID{Name: "wta-plurality", Version: "1.0.0"},
			Values: map[string]interface{}{
				"VM-VAR-001": "plurality",
				"VM-VAR-010": "winner_take_all",
				"VM-VAR-040": "none",
				"VM-VAR-050": "deterministic_order",
			},
		}, true
	case "approval-gate-edge":
		return &Set{
			ID: tallyid.ParameterSetID{Name: "approval-gate-edge", Version: "1.0.0"},
			Values: map[string]interface{}{
				"VM-VAR-001": "approval",
				"VM-VAR-010": "winner_take_all",
				"VM-VAR-022": int64(55),
				"VM-VAR-040": "none",
				"VM-VAR-050": "deterministic_order",
			},
		}, true
	default:
		return nil, false
	}
}
