// Package session turns an HTTP request into the caller's identity and
// effective plan tier.
//
// The bearer token is an HS256 JWT issued by the auth service; its subject is
// the user id. The tier is never read from the token. It comes from the
// subscription record at request time, so an upgrade or cancellation takes
// effect on the next request.
package session
