// Package rng implements the engine's one and only source of randomness:
// a ChaCha20 keystream seeded from a u64, used exclusively by the tie
// stage when tie_policy=random and a tie actually blocks a decision
// (spec.md SS4.4). The pack's transport layer (qzmq) already reaches for
// golang.org/x/crypto/chacha20poly1305 for its cipher suite; this package
// takes the same dependency one layer down, at the raw ChaCha20 stream
// cipher, to get an unauthenticated deterministic keystream rather than
// an AEAD.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Stream is a ChaCha20 keystream seeded from a u64. The counter starts at
// zero and advances by exactly one 64-bit word per Uint64 call - never
// more, never less, and never for any purpose other than resolving a
// blocking tie.
type Stream struct {
	cipher     *chacha20.Cipher
	wordsDrawn uint64
}

// NewStream seeds a new ChaCha20 stream from tie_seed (VM-VAR-052). The
// seed is expanded to a 256-bit key via SHA-256 so that the full keyspace
// of chacha20.NewUnauthenticatedCipher is exercised from a single u64; the
// nonce is fixed to all-zero because the key alone already uniquely
// determines the keystream for a given seed.
func NewStream(seed uint64) (*Stream, error) {
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], seed)
	key := sha256.Sum256(seedBytes[:])
	nonce := make([]byte, chacha20.NonceSize)

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		return nil, fmt.Errorf("rng: new cipher: %w", err)
	}
	return &Stream{cipher: c}, nil
}

// Uint64 draws the next 64-bit word from the keystream.
func (s *Stream) Uint64() uint64 {
	var zero, out [8]byte
	s.cipher.XORKeyStream(out[:], zero[:])
	s.wordsDrawn++
	return binary.BigEndian.Uint64(out[:])
}

// WordsDrawn reports how many 64-bit words have been consumed so far -
// used to assert "exactly k draws for a k-way tie" (spec.md SS8).
func (s *Stream) WordsDrawn() uint64 { return s.wordsDrawn }

// Range draws a uniform value in [0, n) via rejection sampling - no
// modulo bias. Panics if n <= 0.
func (s *Stream) Range(n uint64) uint64 {
	if n == 0 {
		panic("rng: Range(0)")
	}
	if n == 1 {
		// Still consumes a word: the spec counts exactly k draws for a
		// k-way tie regardless of how narrow the range is.
		s.Uint64()
		return 0
	}
	limit := (^uint64(0) / n) * n
	for {
		v := s.Uint64()
		if v < limit {
			return v % n
		}
	}
}

// ChooseIndex wraps Range(len(slice)).
func (s *Stream) ChooseIndex(length int) int {
	return int(s.Range(uint64(length)))
}

// Shuffle performs a Fisher-Yates shuffle in descending index order:
// for i from len-1 down to 1, swap i with a uniformly drawn j in [0, i].
func Shuffle[T any](s *Stream, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := s.ChooseIndex(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}
