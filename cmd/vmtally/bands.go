package main

import (
	"github.com/luxfi/vmtally/internal/frontier"
	"github.com/luxfi/vmtally/internal/params"
)

// frontierBands reads VM-VAR-042 (frontier_bands) out of the raw
// parameter set and builds the []frontier.Band table frontier.Map needs.
// Structural validity (non-empty, contiguous, ascending) is already
// enforced at S1 by load.Validate; this is pure conversion.
func frontierBands(ps *params.Set) []frontier.Band {
	raw, ok := ps.Get("VM-VAR-042")
	if !ok {
		return nil
	}
	arr, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	bands := make([]frontier.Band, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		bands = append(bands, frontier.Band{
			MinPct: toInt64(obj["min_pct"]),
			MaxPct: toInt64(obj["max_pct"]),
			Action: toString(obj["action"]),
		})
	}
	return bands
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}
