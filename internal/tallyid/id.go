// Package tallyid implements the typed identifier shapes used across every
// canonical artifact: registries, units, options, tallies, parameter sets,
// results, run records, frontier maps and autonomy packages.
//
// Every kind that has a Parse function round-trips: Parse(x.String()) ==
// x. ResultID, RunID and FrontierID are format-only. IDs are ASCII, case
// sensitive, and drawn from the alphabet [A-Za-z0-9._:-] per segment,
// length <= 64 per segment.
package tallyid

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	maxSegmentLen = 64
	allowedChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789._:-"
)

// validSegment reports whether s is a legal ID segment.
func validSegment(s string) bool {
	if len(s) == 0 || len(s) > maxSegmentLen {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(allowedChars, r) {
			return false
		}
	}
	return true
}

// RegistryID identifies a DivisionRegistry: "REG:<name>:<version>".
type RegistryID struct {
	Name    string
	Version string
}

func ParseRegistryID(s string) (RegistryID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != "REG" {
		return RegistryID{}, fmt.Errorf("tallyid: malformed registry id %q", s)
	}
	if !validSegment(parts[1]) || !validSegment(parts[2]) {
		return RegistryID{}, fmt.Errorf("tallyid: malformed registry id segment in %q", s)
	}
	return RegistryID{Name: parts[1], Version: parts[2]}, nil
}

func (r RegistryID) String() string {
	return fmt.Sprintf("REG:%s:%s", r.Name, r.Version)
}

func (r RegistryID) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *RegistryID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRegistryID(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnitID identifies a Unit: "U:<REG_ID>:<path>". The path is a dot-joined
// sequence of segments; the parent is obtained by dropping the last one.
type UnitID struct {
	Registry RegistryID
	Path     []string
}

func ParseUnitID(s string) (UnitID, error) {
	if !strings.HasPrefix(s, "U:") {
		return UnitID{}, fmt.Errorf("tallyid: malformed unit id %q", s)
	}
	rest := s[len("U:"):]
	// Registry id is itself "name:version"; the remainder after the second
	// colon-delimited pair is the hierarchy path, dot-separated.
	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 {
		return UnitID{}, fmt.Errorf("tallyid: malformed unit id %q", s)
	}
	reg, err := ParseRegistryID("REG:" + parts[0] + ":" + parts[1])
	if err != nil {
		return UnitID{}, fmt.Errorf("tallyid: unit id %q: %w", s, err)
	}
	segs := strings.Split(parts[2], ".")
	for _, seg := range segs {
		if !validSegment(seg) {
			return UnitID{}, fmt.Errorf("tallyid: malformed unit path segment %q in %q", seg, s)
		}
	}
	return UnitID{Registry: reg, Path: segs}, nil
}

func (u UnitID) String() string {
	return fmt.Sprintf("U:%s:%s:%s", u.Registry.Name, u.Registry.Version, strings.Join(u.Path, "."))
}

func (u UnitID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *UnitID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUnitID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Parent returns the parent UnitID and true, or the zero value and false if
// this is a root unit (path length 1).
func (u UnitID) Parent() (UnitID, bool) {
	if len(u.Path) <= 1 {
		return UnitID{}, false
	}
	return UnitID{Registry: u.Registry, Path: u.Path[:len(u.Path)-1]}, true
}

// IsRoot reports whether this unit has no parent.
func (u UnitID) IsRoot() bool {
	return len(u.Path) == 1
}

// OptionID identifies an Option: "OPT:<slug>".
type OptionID string

func ParseOptionID(s string) (OptionID, error) {
	if !strings.HasPrefix(s, "OPT:") {
		return "", fmt.Errorf("tallyid: malformed option id %q", s)
	}
	slug := s[len("OPT:"):]
	if !validSegment(slug) {
		return "", fmt.Errorf("tallyid: malformed option id %q", s)
	}
	return OptionID(s), nil
}

func (o OptionID) String() string { return string(o) }

// TallyID identifies a BallotTally: "TLY:<label>:v<n>".
type TallyID struct {
	Label   string
	Version int
}

func (t TallyID) String() string {
	return fmt.Sprintf("TLY:%s:v%d", t.Label, t.Version)
}

func ParseTallyID(s string) (TallyID, error) {
	rest := strings.TrimPrefix(s, "TLY:")
	if rest == s {
		return TallyID{}, fmt.Errorf("tallyid: malformed tally id %q", s)
	}
	idx := strings.LastIndex(rest, ":v")
	if idx < 0 {
		return TallyID{}, fmt.Errorf("tallyid: malformed tally id %q", s)
	}
	label, verStr := rest[:idx], rest[idx+2:]
	if !validSegment(label) {
		return TallyID{}, fmt.Errorf("tallyid: malformed tally id label in %q", s)
	}
	var n int
	if _, err := fmt.Sscanf(verStr, "%d", &n); err != nil {
		return TallyID{}, fmt.Errorf("tallyid: malformed tally id version in %q", s)
	}
	return TallyID{Label: label, Version: n}, nil
}

func (t TallyID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TallyID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTallyID(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParameterSetID identifies a ParameterSet: "PS:<name>:v<semver>".
type ParameterSetID struct {
	Name    string
	Version string
}

func (p ParameterSetID) String() string {
	return fmt.Sprintf("PS:%s:v%s", p.Name, p.Version)
}

func ParseParameterSetID(s string) (ParameterSetID, error) {
	rest := strings.TrimPrefix(s, "PS:")
	if rest == s {
		return ParameterSetID{}, fmt.Errorf("tallyid: malformed parameter set id %q", s)
	}
	idx := strings.LastIndex(rest, ":v")
	if idx < 0 {
		return ParameterSetID{}, fmt.Errorf("tallyid: malformed parameter set id %q", s)
	}
	name, version := rest[:idx], rest[idx+2:]
	if !validSegment(name) || version == "" {
		return ParameterSetID{}, fmt.Errorf("tallyid: malformed parameter set id %q", s)
	}
	return ParameterSetID{Name: name, Version: version}, nil
}

func (p ParameterSetID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *ParameterSetID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseParameterSetID(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ResultID identifies an emitted Result: "RES:<sha256-hex>".
type ResultID struct{ Hash string }

func (r ResultID) String() string { return "RES:" + r.Hash }

// RunID identifies an emitted RunRecord: "RUN:<utc-ts-with-dashes>-<sha256-hex>".
type RunID struct {
	Timestamp string
	Hash      string
}

func (r RunID) String() string { return "RUN:" + r.Timestamp + "-" + r.Hash }

// FrontierID identifies an emitted FrontierMap: "FR:<sha256-hex>".
type FrontierID struct{ Hash string }

func (f FrontierID) String() string { return "FR:" + f.Hash }

// AutonomyPackageID identifies a named autonomy bundle: "AP:<name>:v<n>".
type AutonomyPackageID struct {
	Name    string
	Version int
}

func (a AutonomyPackageID) String() string {
	return fmt.Sprintf("AP:%s:v%d", a.Name, a.Version)
}

func ParseAutonomyPackageID(s string) (AutonomyPackageID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != "AP" || !strings.HasPrefix(parts[2], "v") {
		return AutonomyPackageID{}, fmt.Errorf("tallyid: malformed autonomy package id %q", s)
	}
	if !validSegment(parts[1]) {
		return AutonomyPackageID{}, fmt.Errorf("tallyid: malformed autonomy package id %q", s)
	}
	var n int
	if _, err := fmt.Sscanf(parts[2], "v%d", &n); err != nil {
		return AutonomyPackageID{}, fmt.Errorf("tallyid: malformed autonomy package version in %q", s)
	}
	return AutonomyPackageID{Name: parts[1], Version: n}, nil
}

func (a AutonomyPackageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AutonomyPackageID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAutonomyPackageID(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
