// Package middleware exposes HTTP middleware adapters for session enforcement
// built on top of authcore.Engine ticket lookups.
//
// # Guards
//
//   - [Guard] — requires a live session ticket on every request.
//   - [GuardRenewing] — like [Guard], but also slides the ticket deadline.
//
// Each guard reads the ticket header, calls Engine.LookupTicket or
// Engine.RenewTicket, and injects the resolved ticket into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself — all decisions are delegated to the Engine.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access Redis or the database (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the ticket lookup.
package middleware
