package canon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type inner struct {
	Zeta  int    `json:"zeta"`
	Alpha string `json:"alpha"`
}

type outer struct {
	Beta  inner             `json:"beta"`
	Omega map[string]int    `json:"omega"`
	Tags  []string          `json:"tags"`
	Extra map[string]string `json:"extra,omitempty"`
}

func TestMarshalSortsKeysAtEveryLevel(t *testing.T) {
	v := outer{
		Beta:  inner{Zeta: 1, Alpha: "a"},
		Omega: map[string]int{"z": 1, "a": 2, "m": 3},
		Tags:  []string{"b", "a"}, // array order preserved, not sorted
	}
	got, err := Marshal(v)
	require.NoError(t, err)
	want := `{"beta": {"alpha": "a", "zeta": 1}, "omega": {"a": 2, "m": 3, "z": 1}, "tags": ["b", "a"]}`
	require.Equal(t, want, string(got))
}

func TestMarshalOmitsUnsetOptionalFields(t *testing.T) {
	v := outer{Beta: inner{Zeta: 0, Alpha: ""}, Tags: []string{}}
	got, err := Marshal(v)
	require.NoError(t, err)
	require.NotContains(t, string(got), "extra")
}

func TestMarshalIsDeterministicAcrossCalls(t *testing.T) {
	v := map[string]interface{}{"c": 3, "a": 1, "b": 2}
	a, err := Marshal(v)
	require.NoError(t, err)
	b, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestSHA256HexIsLowercase64(t *testing.T) {
	h := SHA256Hex([]byte("hello"))
	require.Len(t, h, 64)
	require.Regexp(t, "^[0-9a-f]{64}$", h)
}

func TestShortTruncatesTo24(t *testing.T) {
	h := SHA256Hex([]byte("hello"))
	require.Len(t, Short(h), 24)
	require.Equal(t, h[:24], Short(h))
}

func TestHashOfMatchesSeparateCalls(t *testing.T) {
	v := outer{Beta: inner{Zeta: 9, Alpha: "z"}}
	digest, body, err := HashOf(v)
	require.NoError(t, err)
	require.Equal(t, SHA256Hex(body), digest)
}

func TestShareRejectsOutOfRange(t *testing.T) {
	_, err := Marshal(Share(1.5))
	require.Error(t, err)
}

func TestShareFormatsFixedNotNoExponent(t *testing.T) {
	got, err := Marshal(Share(0.0000001))
	require.NoError(t, err)
	require.NotContains(t, string(got), "e")
	require.NotContains(t, string(got), "E")
}

func TestEqualDetectsCanonicalEquivalence(t *testing.T) {
	a := map[string]int{"x": 1, "y": 2}
	b := map[string]int{"y": 2, "x": 1}
	eq, err := Equal(a, b)
	require.NoError(t, err)
	require.True(t, eq)
}
