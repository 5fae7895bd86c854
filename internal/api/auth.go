package api

import (
	"context"
	"net/http"

	"github.com/testivid/testivid/internal/models"
)

// SignUpPayload is the registration request body.
//
// AccessToken is required when FromGoogle is set; the session controller
// enforces that precondition before the request is built.
type SignUpPayload struct {
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
	Password    string `json:"password,omitempty"`
	FromGoogle  bool   `json:"fromGoogle,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// AuthResponse is the session envelope returned by signin, signup, and the
// auth-callback exchange.
type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	IsNewUser bool         `json:"isNewUser,omitempty"`
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, payload SignUpPayload) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn authenticates with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignInGoogle initiates the provider-delegated flow. The returned URL is the
// identity provider page the user must be sent to; the flow completes out of
// band via the callback exchange.
func (c *Client) SignInGoogle(ctx context.Context, redirectURI string) (string, error) {
	body := map[string]string{"redirectUri": redirectURI}
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin-google", body, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// ProcessAuthCallback exchanges the provider access token for a Testivid
// session. The backend decides whether this is a new or existing user; its
// IsNewUser verdict takes precedence over the client-supplied authAction.
func (c *Client) ProcessAuthCallback(ctx context.Context, accessToken, authAction string) (*AuthResponse, error) {
	body := map[string]string{"accessToken": accessToken, "authAction": authAction}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/process-auth-callback", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut invalidates the current session server-side.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
}

// Me fetches the current user for the configured bearer token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ForgotPassword requests a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password using the token from the reset email.
func (c *Client) ResetPassword(ctx context.Context, accessToken, newPassword string) error {
	body := map[string]string{"access_token": accessToken, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", body, nil)
}
