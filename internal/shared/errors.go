package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoAccessToken    = fmt.Errorf("no access token received")
	ErrSignupIncomplete = fmt.Errorf("signup incomplete")
	ErrSessionCorrupt   = fmt.Errorf("stored session corrupt")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrInvitationInvalid  = fmt.Errorf("invitation token invalid or expired")

	// Capture and recording errors
	ErrCaptureDevice = fmt.Errorf("capture device unavailable")
	ErrNoRecordings  = fmt.Errorf("no recordings to submit")
	ErrInvalidState  = fmt.Errorf("operation not valid in current state")
	ErrSubmitFailed  = fmt.Errorf("failed to submit testimonial videos")
	ErrSessionClosed = fmt.Errorf("recording session closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
