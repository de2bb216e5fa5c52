// Package canon implements canonical JSON encoding and SHA-256 artifact
// hashing. Every byte the engine emits, and every byte it hashes, passes
// through Marshal so that two runs on the same inputs produce identical
// artifacts regardless of platform, map iteration order, or Go version.
//
// Canonical form: UTF-8, no BOM, LF line endings (canon never emits a line
// ending at all — everything is one line), object keys sorted
// lexicographically by UTF-8 code point at every nesting level, one space
// after ':' and ',', no trailing whitespace, integers without padding,
// decimals in fixed notation (never scientific), optional-and-unset fields
// omitted rather than null.
//
// Array order is the caller's responsibility: canon preserves slice order
// as given, it does not sort arrays. Callers (internal/model and friends)
// sort set-like collections before handing them to Marshal and leave
// sequence-like collections in their algorithmic order, per spec.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// Marshal renders v as canonical JSON bytes: struct/map keys sorted at
// every level, single-space separators, no trailing newline.
func Marshal(v interface{}) ([]byte, error) {
	compact, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal: %w", err)
	}
	// Round-trip through a generic value so that every nesting level -
	// including ones produced from struct field order - gets map-key
	// sorting. encoding/json sorts map[string]interface{} keys on marshal;
	// it does not sort struct fields, so the round-trip is required.
	// UseNumber keeps every number literal exactly as first encoded, so a
	// fixed-notation Share is not re-rendered through float64 in exponent
	// form.
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(compact))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canon: round-trip decode: %w", err)
	}
	sorted, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("canon: round-trip encode: %w", err)
	}
	return spaceOut(sorted), nil
}

// spaceOut inserts a single space after every ':' and ',' separator that
// lies outside a JSON string literal, at every nesting level.
func spaceOut(compact []byte) []byte {
	out := make([]byte, 0, len(compact)+len(compact)/4)
	inString := false
	escaped := false
	for _, b := range compact {
		out = append(out, b)
		if inString {
			if escaped {
				escaped = false
			} else if b == '\\' {
				escaped = true
			} else if b == '"' {
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case ':', ',':
			out = append(out, ' ')
		}
	}
	return out
}

// SHA256Hex returns the lowercase 64-character hex SHA-256 digest of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Short returns the first 24 hex characters of a full digest, for display
// only - never used in an artifact identity.
func Short(fullHex string) string {
	if len(fullHex) <= 24 {
		return fullHex
	}
	return fullHex[:24]
}

// HashOf canonicalizes v and returns its SHA-256 hex digest alongside the
// canonical bytes, so callers can both hash and emit without marshaling
// twice.
func HashOf(v interface{}) (digest string, body []byte, err error) {
	body, err = Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return SHA256Hex(body), body, nil
}

// Equal reports whether two values canonicalize to byte-identical output.
// Used by self-verify to confirm a round-trip decode/re-encode is a no-op.
func Equal(a, b interface{}) (bool, error) {
	ab, err := Marshal(a)
	if err != nil {
		return false, err
	}
	bb, err := Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ab, bb), nil
}

// Share is a JSON number in [0, 1] that always serializes in fixed-point
// notation, never scientific, matching the "share" fields of Result.
type Share float64

// MarshalJSON renders the share with the shortest fixed-point
// representation that round-trips, forbidding exponent notation.
func (s Share) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if f < 0 || f > 1 {
		return nil, fmt.Errorf("canon: share %v out of [0,1]", f)
	}
	return []byte(formatFixed(f)), nil
}

func (s *Share) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Share(f)
	return nil
}

// formatFixed formats f with the shortest decimal representation that
// round-trips to the same float64, always in 'f' (fixed-point) notation.
func formatFixed(f float64) string {
	// 'f' with precision -1 asks strconv for the shortest exact
	// representation without ever falling back to exponent form.
	return strconv.FormatFloat(f, 'f', -1, 64)
}
