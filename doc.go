// Package auth is the authentication, authorization, and error-classification
// core that guards every mutating route of the developer-network API.
//
// The package owns four concerns:
//   - Credential store: the User record, bcrypt hashing, and lookup by email
//     or id backed by Bun repositories.
//   - Token codec: HS256 JWT issuance and validation with a configurable TTL.
//     Tokens are stateless; there is no revocation list and logout is a
//     client-side discard.
//   - Error taxonomy: a closed set of failure kinds (validation, auth,
//     authorize, not found, duplicate key, logic) expressed as go-errors
//     categories. NewErrorResponder is the single exit point that turns any
//     of them into the wire shape {"errors":[{"msg":...}]}.
//   - Request validation: ordered, per-route field constraints evaluated
//     before the handler runs, collecting every violation.
//
// The middleware/authware subpackage guards protected routes: it extracts a
// bearer token from the configured lookup chain, validates it, loads the
// principal, and attaches it to the request context.
package auth
