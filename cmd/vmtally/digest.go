package main

import (
	"strings"

	"github.com/luxfi/vmtally/utils/formatting"
)

// shortDigest re-encodes a "RES:<hex>"/"FR:<hex>"-shaped ID's hash
// segment as a 0x-prefixed hex string for the run summary printed to
// stdout, trimming it to a human-scannable length.
func shortDigest(id string) string {
	idx := strings.LastIndex(id, ":")
	hexPart := id
	if idx >= 0 {
		hexPart = id[idx+1:]
	}
	raw, err := formatting.Decode(formatting.HexNC, hexPart)
	if err != nil {
		return id
	}
	full, err := formatting.Encode(formatting.HexC, raw)
	if err != nil {
		return id
	}
	if len(full) > 18 {
		return full[:18] + "..."
	}
	return full
}
