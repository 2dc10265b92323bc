// Package authcore is the authentication core of an identity platform.
// It decides whether a presented credential (password, mobile one-time
// code, or trusted delegated token) establishes a valid principal,
// enforces password and account policy, issues session tickets, and
// manages signed remember-me tokens.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder],
// [Config], the credential and account value types, and the sentinel
// error taxonomy. Pipeline orchestration lives under internal/flows;
// the ticket, otp, rememberme, jwt, and password packages hold the
// storage and cryptography building blocks and can be used standalone.
//
// # What this package must NOT do
//
//   - Expose Redis clients, SQL handles, or store encodings in its
//     public API beyond the constructor options that accept them.
//   - Perform I/O outside of Engine methods (construction via Builder
//     is allocation-only until Build).
//   - Import any sub-package that re-imports authcore (no import cycles).
package authcore
