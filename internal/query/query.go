// Package query implements the incremental, content-addressed query engine
// that schedules compilation work: every query is a pure function of its
// inputs keyed by a fingerprint, results are memoized both in-process and in
// a persistent store, and concurrent re-requests for the same fingerprint
// collapse onto a single in-flight computation.
//
// This package does not itself own a lex/parse/check/lower/codegen driver —
// no such end-to-end pipeline is assembled in this repository (the parser
// stage was dropped; see DESIGN.md). Instead Engine exposes the six named
// queries as thin, honestly-scoped wrappers around a generic memoizing
// core: callers supply the compute function for a given fingerprint, and
// Engine supplies caching, deduplication, persistence, and deterministic
// parallel scheduling across many such calls. internal/lexer's Tokens query
// is the one query wired to a real compiler stage, since internal/lexer is
// the only phase of the pipeline that survived intact.
package query

import (
	"hash/fnv"
)

// Kind names one of the six query families a Fingerprint is scoped under.
// The same source bytes produce different results depending on which kind
// of query is being asked of them, so the cache key is (Kind, Fingerprint),
// not Fingerprint alone.
type Kind uint8

const (
	KindTokens Kind = iota
	KindParsed
	KindTyped
	KindCanon
	KindArc
	KindEmitted
)

func (k Kind) String() string {
	switch k {
	case KindTokens:
		return "tokens"
	case KindParsed:
		return "parsed"
	case KindTyped:
		return "typed"
	case KindCanon:
		return "canon"
	case KindArc:
		return "arc"
	case KindEmitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Fingerprint is a content-address: the FNV-1a hash of a query's input
// bytes. Two inputs with the same Fingerprint are treated as the same
// query input; the engine never compares raw bytes once fingerprinted.
type Fingerprint uint64

// Fingerprint64 computes the FNV-1a hash of data.
func Fingerprint64(data []byte) Fingerprint {
	h := fnv.New64a()
	h.Write(data)
	return Fingerprint(h.Sum64())
}

// FingerprintString is a convenience wrapper for string inputs (source
// files are read and fingerprinted as text).
func FingerprintString(s string) Fingerprint {
	h := fnv.New64a()
	h.Write([]byte(s))
	return Fingerprint(h.Sum64())
}

// FileID identifies one source file within a compilation, stable across
// queries run against that file (tokens, parsed, typed, canon all key off
// the same FileID's current fingerprint).
type FileID string

// FunctionID identifies one function within a module, the unit the arc and
// emitted queries are keyed by.
type FunctionID string

// key is the internal memoization key: a query kind scoped to a
// fingerprint. Two different FileIDs with identical contents share a cache
// entry, which is the point of content addressing.
type key struct {
	kind Kind
	fp   Fingerprint
}
