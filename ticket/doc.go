// Package ticket implements the session ticket service: creation with
// collision-checked identifiers, monotonic renewal, revocation, and lookup
// over a pluggable durable store (Redis, relational, or in-memory).
//
// The store backend is selected once at process start; Service semantics
// are identical across backends.
package ticket
