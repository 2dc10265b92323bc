// Package jwt implements the compact token signing service used for trust
// tokens and remember-me tokens: HMAC-SHA512 signed JWS with subject,
// token id, time bounds, and a key id header, verified against a
// revocation registry.
//
// Verification collapses every failure (signature, time bounds,
// revocation, registry unavailability) into [ErrInvalid]; the wrapped
// cause is for internal logging only and must never be surfaced to a
// caller presenting the token.
package jwt
