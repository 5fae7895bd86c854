// Package api implements the HTTP client for the Testivid backend.
//
// [Client] exposes one method per backend operation across four surfaces:
// auth (signup/signin/google callback exchange/signout/me/password reset),
// questions CRUD and reordering, testimonial requests and processing, and the
// unauthenticated public surface (invitation validation and multipart video
// submission).
//
// Backend errors are surfaced using the message the backend provides where
// present, else a generic fallback, wrapped over [shared.ErrAPIRequest];
// a 401 is wrapped over [shared.ErrNotAuthenticated] so callers can force
// sign-out.
package api
