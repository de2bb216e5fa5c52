package params

import (
	"fmt"

	"github.com/luxfi/vmtally/internal/tallyid"
)

// Set is a parsed ParameterSet: raw values keyed by VM-VAR ID, resolved
// against Registry defaults on read. Immutable once built, per spec.md
// SS3 ("ParameterSets are external, immutable inputs").
type Set struct {
	ID     tallyid.ParameterSetID
	Values map[string]interface{}
}

// Get returns the effective value for id: the provided value if present,
// otherwise the registry default. The bool reports whether the variable
// is known at all.
func (s *Set) Get(id string) (interface{}, bool) {
	v, ok := ByID[id]
	if !ok {
		return nil, false
	}
	if raw, present := s.Values[id]; present {
		return raw, true
	}
	return v.Default, true
}

// Int reads a variable as an integer, coercing from JSON-decoded float64
// (or int/int64) where necessary; any other type reads as 0.
func (s *Set) Int(id string) int64 {
	v, _ := s.Get(id)
	return toInt64(v)
}

// Pct is an alias for Int used at call sites expecting a 0..100 percent.
func (s *Set) Pct(id string) int64 { return s.Int(id) }

// Bool reads a variable as a boolean.
func (s *Set) Bool(id string) bool {
	v, _ := s.Get(id)
	b, _ := v.(bool)
	return b
}

// String reads a variable as a string.
func (s *Set) String(id string) string {
	v, _ := s.Get(id)
	str, _ := v.(string)
	return str
}

// StringSlice reads a variable as a list of strings.
func (s *Set) StringSlice(id string) []string {
	v, _ := s.Get(id)
	raw, ok := v.([]interface{})
	if !ok {
		if ss, ok2 := v.([]string); ok2 {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// Object reads a variable as a generic JSON object.
func (s *Set) Object(id string) map[string]interface{} {
	v, _ := s.Get(id)
	obj, _ := v.(map[string]interface{})
	return obj
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

// EffectiveSnapshot returns every known variable's effective value,
// suitable for RunRecord.vars_effective (spec.md SS6): both Included and
// Excluded variables are reported, the Excluded ones only here and never
// in the Normative Manifest.
func (s *Set) EffectiveSnapshot() map[string]interface{} {
	out := make(map[string]interface{}, len(Registry))
	for _, v := range Registry {
		val, _ := s.Get(v.ID)
		out[v.ID] = val
	}
	return out
}

// Describe renders a short debug label for logging.
func (s *Set) Describe() string {
	return fmt.Sprintf("ParameterSet(%s, %d explicit values)", s.ID, len(s.Values))
}
