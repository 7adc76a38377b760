// Package namehash maps task names to fixed-width identifiers.
//
// These are non-cryptographic hashes: two different names may produce the
// same key. Callers that cannot tolerate a silent collision should assign
// integer identifiers themselves.
package namehash

import "hash/fnv"

// Func hashes a byte string to a 32-bit key.
type Func func(b []byte) uint32

// SDBM is the sdbm string hash. Empty input returns 0.
func SDBM(b []byte) uint32 {
	var h uint32
	for _, c := range b {
		h = uint32(c) + (h << 6) + (h << 16) - h
	}
	return h
}

// FNV1a is the 32-bit FNV-1a hash. Empty input returns 0.
func FNV1a(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write(b)
	return h.Sum32()
}

// ByName returns the hash function registered under name ("sdbm", "fnv1a").
// Unknown or empty names select SDBM.
func ByName(name string) (Func, bool) {
	switch name {
	case "", "sdbm":
		return SDBM, true
	case "fnv", "fnv1a":
		return FNV1a, true
	default:
		return SDBM, false
	}
}

// String hashes s with fn, treating an empty name as key 0.
func String(fn Func, s string) uint32 {
	if s == "" || fn == nil {
		return 0
	}
	return fn([]byte(s))
}
