// Package session owns the client-side credential lifecycle: the
// authorization code callback, token persistence in a credstore.Store,
// expiry checks, refresh, route guarding and logout.
//
// Nothing here caches session state. Every decision re-reads the store and
// decodes the access token, so a write by one component is seen by the next.
package session
