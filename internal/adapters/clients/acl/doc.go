// Package acl is the anti-corruption layer between the HTTP transport and
// application code. It translates in both directions:
//
//   - Outbound: request bodies are rewritten from the client naming
//     convention (camelCase) to the wire convention (snake_case) by
//     [SnakeCaseKeys]. Only top-level keys are rewritten.
//   - Inbound: every failed exchange is mapped by [Classifier] onto the
//     closed taxonomy in package domain.
//
// # Classification
//
// The transport reports failures as a [clients.Failure], a closed union of
// four shapes. The classifier inspects them in order:
//
//   - Responded, body errorType ACCESS_TOKEN_EXPIRED or UNAUTHORIZED
//     → [KindSessionInvalid]
//   - Responded, anything else → [KindServerError] with a [ServerError]
//     holding the original response
//   - NoNetwork → [domain.CategoryInternetDisconnected]
//   - NoResponse → [domain.CategoryBadRequest]
//   - Malformed → [domain.CategoryGeneric]
//
// Categorized errors carry a localized message resolved through
// [ports.Localizer]. Server errors are never reworded: the response body
// reaches the caller byte for byte.
//
// Example server error body recognized as an authentication failure:
//
//	{"errorType": "ACCESS_TOKEN_EXPIRED", "message": "token expired"}
package acl
