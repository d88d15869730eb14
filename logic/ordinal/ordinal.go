// Package ordinal derives a stable participant id from a fleet member's name.
package ordinal

import (
	"regexp"
	"strconv"
)

// ordinalRe matches the trailing "-N" that StatefulSet pods carry ("web-3").
var ordinalRe = regexp.MustCompile(`.*-(\d+)$`)

// hashMultiplier and hashMask define the fallback hash, kept stable so that
// unparseable names map to the same id on every implementation.
const (
	hashMultiplier = 131
	hashMask       = 0xFFFFFFFF
)

// FromName returns the ordinal suffix of name, or a stable 32-bit hash of the
// name when it has no numeric suffix. An empty name hashes as "unknown". The
// result is always non-negative.
//
//	ordinal.FromName("collatz-demo-3") // 3
//	ordinal.FromName("standalone")     // hash of "standalone"
func FromName(name string) int64 {
	n, _ := Parse(name)
	return n
}

// Parse is FromName that also reports whether the id came from a parsed
// ordinal (true) or from the hash fallback (false). Suffixes too large for
// int64 use the fallback.
func Parse(name string) (id int64, parsed bool) {
	if m := ordinalRe.FindStringSubmatch(name); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return v, true
		}
	}
	return Hash(name), false
}

// Hash is the fallback: h = (h*131 + c) & 0xFFFFFFFF over the code points
// of name.
func Hash(name string) int64 {
	if name == "" {
		name = "unknown"
	}
	var h uint64
	for _, c := range name {
		h = (h*hashMultiplier + uint64(c)) & hashMask
	}
	return int64(h)
}
