// Package rememberme issues and resolves persistent login tokens.
//
// A token is a signed compact JWT whose token id must match the single
// record kept per username. Issuing a new token supersedes the previous
// one, and revoking the record invalidates every outstanding token for
// that username even while its signature is still valid.
package rememberme
