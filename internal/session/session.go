package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/testivid/testivid/internal/api"
	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/shared"
)

// State is the tagged authentication state.
type State int

const (
	Anonymous State = iota
	AuthenticatedComplete
	AuthenticatedPendingCompanyInfo
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case AuthenticatedComplete:
		return "authenticated"
	case AuthenticatedPendingCompanyInfo:
		return "pending company info"
	default:
		return "unknown"
	}
}

// AuthAction is the client-side intent recorded before redirecting to the
// identity provider. Advisory only: the backend's isNewUser verdict decides
// the actual branch.
type AuthAction string

const (
	ActionSignIn AuthAction = "signin"
	ActionSignUp AuthAction = "signup"
)

// CallbackResult describes the resolved branch of a Google callback.
type CallbackResult struct {
	NewUser bool
	User    *models.User
	Profile *models.GoogleProfile // staged prefill, set on the signup branch
}

// Controller owns authentication state and the persisted session.
//
// All operations serialize on an internal mutex: the persisted store is a
// single shared mutable resource and each operation both reads and rewrites
// overlapping keys.
type Controller struct {
	mu     sync.Mutex
	api    *api.Client
	store  Store
	logger *log.Logger

	user     *models.User
	state    State
	loading  bool
	restored bool
	lastErr  error
}

// NewController creates a Controller in the pre-restore loading state.
func NewController(client *api.Client, store Store, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Controller{
		api:     client,
		store:   store,
		logger:  logger,
		state:   Anonymous,
		loading: true,
	}
}

// User returns the current user record, nil when anonymous.
func (c *Controller) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// State returns the current tagged auth state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsLoading reports whether the startup restore window is still open.
// Consumers must treat this window as "unknown", never "unauthenticated".
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last operation error surfaced for view rendering.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Restore rebuilds auth state from the persisted store.
//
// It runs its full decision tree at most once per Controller; later calls are
// no-ops. The loading flag is cleared on every path.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.restored {
		return nil
	}
	c.restored = true
	defer func() { c.loading = false }()

	token, ok, err := c.store.Get(KeyToken)
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}
	if !ok || token == "" {
		// A staged Google signup has no session token yet; the flag alone
		// decides the pending state.
		if flag, ok, _ := c.store.Get(KeyGoogleSignupInProgress); ok && flag == "true" {
			c.state = AuthenticatedPendingCompanyInfo
			return nil
		}
		c.becomeAnonymousLocked()
		return nil
	}

	// Optimistically authenticated while the user record resolves.
	c.api.SetToken(token)
	c.state = AuthenticatedComplete

	userJSON, ok, err := c.store.Get(KeyUser)
	if err != nil {
		return fmt.Errorf("failed to read stored user: %w", err)
	}

	switch {
	case ok && userJSON != "":
		var user models.User
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			// Corrupt persisted session self-heals into a full sign-out.
			c.logger.Warn("stored user record corrupt, clearing session", "error", err)
			c.wipeLocked()
			return nil
		}
		c.user = &user

	default:
		user, err := c.api.Me(ctx)
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				c.logger.Warn("stored token rejected, clearing session")
				c.wipeLocked()
				return nil
			}
			// Transient failure: keep the token for a later run, but the
			// session has no user record this run.
			c.logger.Warn("failed to refetch user record", "error", err)
			c.lastErr = err
			return fmt.Errorf("%w: could not resolve stored session user: %v", shared.ErrAuthFailed, err)
		} else if user != nil {
			c.user = user
			if data, err := json.Marshal(user); err == nil {
				if err := c.store.Set(KeyUser, string(data)); err != nil {
					c.logger.Warn("failed to persist refetched user", "error", err)
				}
			}
		}
	}

	if flag, ok, _ := c.store.Get(KeyGoogleSignupInProgress); ok && flag == "true" {
		c.state = AuthenticatedPendingCompanyInfo
	}

	return nil
}

// SignIn authenticates with email and password and persists the session.
func (c *Controller) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil

	resp, err := c.api.SignIn(ctx, email, password)
	if err != nil {
		c.lastErr = err
		return nil, err
	}
	if resp.Token == "" {
		err := fmt.Errorf("%w: response missing session token", shared.ErrAuthFailed)
		c.lastErr = err
		return nil, err
	}

	if err := c.persistSessionLocked(resp.Token, resp.User); err != nil {
		return nil, err
	}
	c.state = AuthenticatedComplete

	return resp.User, nil
}

// BeginGoogleFlow records the advisory auth action and obtains the identity
// provider URL. The flow is terminal for the caller: completion arrives out of
// band through HandleOAuthCallback.
func (c *Controller) BeginGoogleFlow(ctx context.Context, action AuthAction, redirectURI string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil

	if err := c.store.Set(KeyGoogleAuthAction, string(action)); err != nil {
		return "", fmt.Errorf("failed to record auth action: %w", err)
	}

	url, err := c.api.SignInGoogle(ctx, redirectURI)
	if err != nil {
		c.lastErr = err
		return "", err
	}
	return url, nil
}

// SignUp registers a new account. When payload.FromGoogle is set the access
// token captured during the OAuth callback must be present in the store;
// its absence is a local precondition failure and no request is made.
func (c *Controller) SignUp(ctx context.Context, payload api.SignUpPayload) (*models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil

	if payload.FromGoogle {
		accessToken, ok, err := c.store.Get(KeyGoogleAccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to read stored access token: %w", err)
		}
		if !ok || accessToken == "" {
			c.lastErr = shared.ErrNoAccessToken
			return nil, shared.ErrNoAccessToken
		}
		payload.AccessToken = accessToken
	}

	resp, err := c.api.SignUp(ctx, payload)
	if err != nil {
		c.lastErr = err
		return nil, err
	}

	if resp.Token != "" {
		if err := c.persistSessionLocked(resp.Token, resp.User); err != nil {
			return nil, err
		}
	}
	if err := c.store.Delete(KeyGoogleSignupInProgress, KeyGoogleUserData, KeyGoogleAccessToken, KeyGoogleAuthAction); err != nil {
		c.logger.Warn("failed to clear signup staging keys", "error", err)
	}
	c.state = AuthenticatedComplete

	return resp.User, nil
}

// SignOut invalidates the session server-side on a best-effort basis and
// unconditionally clears all persisted auth keys.
func (c *Controller) SignOut(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.api.SignOut(ctx); err != nil {
		// Swallowed: local teardown proceeds regardless.
		c.logger.Warn("server-side sign-out failed", "error", err)
	}

	c.wipeLocked()
}

// HandleOAuthCallback resolves the redirect-back leg of the Google flow.
//
// Precondition: a non-empty access token extracted from the redirect fragment.
// The backend's isNewUser verdict determines the branch regardless of the
// stored intent, reconciling a "sign in with Google" click from a user who has
// no account yet.
func (c *Controller) HandleOAuthCallback(ctx context.Context, accessToken string) (*CallbackResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil

	if accessToken == "" {
		c.lastErr = shared.ErrNoAccessToken
		return nil, shared.ErrNoAccessToken
	}

	if err := c.store.Set(KeyGoogleAccessToken, accessToken); err != nil {
		return nil, fmt.Errorf("failed to persist access token: %w", err)
	}

	action, _, _ := c.store.Get(KeyGoogleAuthAction)
	c.logger.Debug("processing auth callback", "stored_action", action)

	resp, err := c.api.ProcessAuthCallback(ctx, accessToken, action)
	if err != nil {
		c.lastErr = err
		return nil, err
	}
	if resp.User == nil || resp.Token == "" {
		err := fmt.Errorf("%w: callback exchange returned incomplete session", shared.ErrAuthFailed)
		c.lastErr = err
		return nil, err
	}

	if err := c.persistSessionLocked(resp.Token, resp.User); err != nil {
		return nil, err
	}

	if resp.IsNewUser {
		profile := &models.GoogleProfile{
			Email:     resp.User.Email,
			FirstName: resp.User.FirstName,
			LastName:  resp.User.LastName,
			Picture:   resp.User.AvatarURL,
		}
		if data, err := json.Marshal(profile); err == nil {
			if err := c.store.Set(KeyGoogleUserData, string(data)); err != nil {
				c.logger.Warn("failed to stage google profile", "error", err)
			}
		}
		if err := c.store.Set(KeyGoogleSignupInProgress, "true"); err != nil {
			c.logger.Warn("failed to set signup-in-progress flag", "error", err)
		}
		c.state = AuthenticatedPendingCompanyInfo

		return &CallbackResult{NewUser: true, User: resp.User, Profile: profile}, nil
	}

	if err := c.store.Delete(KeyGoogleSignupInProgress, KeyGoogleAuthAction); err != nil {
		c.logger.Warn("failed to clear signup flags", "error", err)
	}
	c.state = AuthenticatedComplete

	return &CallbackResult{NewUser: false, User: resp.User}, nil
}

// StagedProfile returns the Google profile staged for signup prefill, if any.
func (c *Controller) StagedProfile() *models.GoogleProfile {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok, err := c.store.Get(KeyGoogleUserData)
	if err != nil || !ok || data == "" {
		return nil
	}
	var profile models.GoogleProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil
	}
	return &profile
}

// persistSessionLocked writes the token and user record and marks the client
// authorized. Callers hold the mutex.
func (c *Controller) persistSessionLocked(token string, user *models.User) error {
	if err := c.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("failed to persist session token: %w", err)
	}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode user record: %w", err)
		}
		if err := c.store.Set(KeyUser, string(data)); err != nil {
			return fmt.Errorf("failed to persist user record: %w", err)
		}
	}

	c.api.SetToken(token)
	c.user = user
	return nil
}

// wipeLocked clears all persisted auth keys and resets to anonymous.
// Callers hold the mutex.
func (c *Controller) wipeLocked() {
	if err := c.store.Delete(AllKeys...); err != nil {
		c.logger.Error("failed to clear persisted session", "error", err)
	}
	c.becomeAnonymousLocked()
}

func (c *Controller) becomeAnonymousLocked() {
	c.api.SetToken("")
	c.user = nil
	c.state = Anonymous
}
