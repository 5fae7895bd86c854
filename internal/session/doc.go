// Package session owns client-side authentication state.
//
// [Controller] is the single owner of the persisted session: every mutation is
// a named operation (Restore, SignIn, SignUp, SignOut, HandleOAuthCallback)
// with its invariant-preserving logic attached; no raw setters are exposed.
//
// Auth state is one tagged value rather than overlapping flags:
//
//	Anonymous                       no session
//	AuthenticatedComplete           signed in, account fully set up
//	AuthenticatedPendingCompanyInfo Google signup started, registration unfinished
//
// The backend's verdict on whether a Google callback belongs to a new or
// existing user is authoritative; the locally stored auth action is advisory
// and only forwarded for telemetry.
package session
