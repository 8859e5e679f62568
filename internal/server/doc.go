// Package server provides HTTP routing, middleware and the JSON handlers for the client/contact API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so path parameters are read with
// [http.Request.PathValue] and a wrong method yields 405.
//
// # Middleware
//
//   - [Recover] turns handler panics into a 500
//   - [Logging] logs method, path, status and duration
//   - [CORS] answers preflight requests for browser clients
//   - [RateLimit] applies a token bucket from golang.org/x/time/rate
//   - [Timeout] bounds the request context so slow store calls fail instead of hanging
//
// # Error Mapping
//
// [StatusFor] maps the shared error taxonomy onto status codes:
//
//	ErrPartialLink             500 with {"message", "partial": true}
//	ErrNotFound                404
//	ErrInvalidInput, Conflict  400
//	ErrConnectivity, Timeout   503
//	anything else              500
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [HealthHandler] is registered this way.
package server
