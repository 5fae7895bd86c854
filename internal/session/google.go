package session

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleAuthURL builds the provider authorization URL directly from the
// configured client credentials. Used when the backend's signin-google
// endpoint is unreachable; the implicit-flow token arrives in the redirect
// fragment either way.
func GoogleAuthURL(clientID, redirectURI, state string) string {
	cfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      []string{"openid", "email", "profile"},
		Endpoint:    google.Endpoint,
	}
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "token"))
}
