// Package server provides the loopback HTTP surface for the Google sign-in flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// CallbackHandler receives the redirect-back leg of the Google sign-in flow.
//
// The backend redirects the browser to the loopback address with the bearer
// token in the URL fragment. Fragments never reach the server, so the GET
// route serves a small page whose script re-posts the fragment parameters to
// the token route. That POST validates the state parameter (CSRF protection)
// and delivers the token through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs `testivid auth google`, a temporary HTTP server starts on
// the configured loopback port, handles the callback, and shuts down after the
// token is delivered to the session controller.
package server
