package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/testivid/testivid/internal/api"
	"github.com/testivid/testivid/internal/shared"
	tu "github.com/testivid/testivid/internal/testing"
)

func newController(t *testing.T, handler http.Handler) (*Controller, *tu.MemoryStore, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := tu.NewMemoryStore()
	client := api.NewClient(server.URL, nil)
	return NewController(client, store, shared.NewLogger(nil)), store, server
}

func okAuthHandler(isNewUser bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user":      map[string]string{"id": "u1", "firstname": "Jane", "lastname": "Doe", "email": "jane@acme.io", "company_id": "co-1"},
			"token":     "session-token",
			"isNewUser": isNewUser,
		})
	})
}

func TestRestore(t *testing.T) {
	t.Run("No Token", func(t *testing.T) {
		c, _, _ := newController(t, http.NotFoundHandler())

		if !c.IsLoading() {
			t.Error("expected loading before restore")
		}
		if err := c.Restore(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.IsLoading() {
			t.Error("expected loading cleared")
		}
		if c.State() != Anonymous {
			t.Errorf("expected Anonymous, got %v", c.State())
		}
	})

	t.Run("Token And User Present", func(t *testing.T) {
		c, store, _ := newController(t, http.NotFoundHandler())
		store.Set(KeyToken, "tok")
		store.Set(KeyUser, `{"id":"u1","email":"jane@acme.io"}`)

		if err := c.Restore(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.IsLoading() {
			t.Error("expected loading cleared")
		}
		if c.State() != AuthenticatedComplete {
			t.Errorf("expected AuthenticatedComplete, got %v", c.State())
		}
		if user := c.User(); user == nil || user.ID != "u1" {
			t.Errorf("unexpected user: %+v", user)
		}
	})

	t.Run("Malformed User Self-Heals", func(t *testing.T) {
		c, store, _ := newController(t, http.NotFoundHandler())
		store.Set(KeyToken, "tok")
		store.Set(KeyUser, "{not json")
		store.Set(KeyGoogleAccessToken, "ga")

		if err := c.Restore(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.IsLoading() {
			t.Error("expected loading cleared")
		}
		if c.State() != Anonymous {
			t.Errorf("expected Anonymous after corruption, got %v", c.State())
		}
		if store.Len() != 0 {
			t.Errorf("expected all persisted keys removed, %d remain", store.Len())
		}
	})

	t.Run("Token Without User Refetches", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/auth/me" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"id": "u9", "email": "x@y.z"}})
		})
		c, store, _ := newController(t, handler)
		store.Set(KeyToken, "tok")

		if err := c.Restore(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user := c.User(); user == nil || user.ID != "u9" {
			t.Errorf("expected refetched user, got %+v", user)
		}
		if _, ok, _ := store.Get(KeyUser); !ok {
			t.Error("expected refetched user persisted")
		}
	})

	t.Run("Token Without User And 401 Forces Sign-Out", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		c, store, _ := newController(t, handler)
		store.Set(KeyToken, "tok")

		if err := c.Restore(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.IsLoading() {
			t.Error("expected loading cleared")
		}
		if c.State() != Anonymous {
			t.Errorf("expected Anonymous, got %v", c.State())
		}
		if store.Len() != 0 {
			t.Errorf("expected persisted keys cleared, %d remain", store.Len())
		}
	})

	t.Run("Token Without User And Backend Down Surfaces Failure", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		c, store, _ := newController(t, handler)
		store.Set(KeyToken, "tok")

		err := c.Restore(context.Background())
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if c.IsLoading() {
			t.Error("expected loading cleared")
		}
		if c.User() != nil {
			t.Errorf("expected no user, got %+v", c.User())
		}
		if tok, ok, _ := store.Get(KeyToken); !ok || tok != "tok" {
			t.Error("expected token kept for a later run")
		}
	})

	t.Run("Signup In Progress", func(t *testing.T) {
		c, store, _ := newController(t, http.NotFoundHandler())
		store.Set(KeyToken, "tok")
		store.Set(KeyUser, `{"id":"u1"}`)
		store.Set(KeyGoogleSignupInProgress, "true")

		if err := c.Restore(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.State() != AuthenticatedPendingCompanyInfo {
			t.Errorf("expected AuthenticatedPendingCompanyInfo, got %v", c.State())
		}
	})

	t.Run("Signup In Progress Without Token", func(t *testing.T) {
		c, store, _ := newController(t, http.NotFoundHandler())
		store.Set(KeyGoogleSignupInProgress, "true")

		if err := c.Restore(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.State() != AuthenticatedPendingCompanyInfo {
			t.Errorf("expected AuthenticatedPendingCompanyInfo, got %v", c.State())
		}
	})

	t.Run("Runs Once", func(t *testing.T) {
		calls := 0
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
		})
		c, store, _ := newController(t, handler)
		store.Set(KeyToken, "tok")

		c.Restore(context.Background())
		c.Restore(context.Background())
		if calls != 1 {
			t.Errorf("expected single refetch, got %d", calls)
		}
	})
}

func TestSignIn(t *testing.T) {
	t.Run("Success Persists Session", func(t *testing.T) {
		c, store, _ := newController(t, okAuthHandler(false))

		user, err := c.SignIn(context.Background(), "jane@acme.io", "pw")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user == nil || user.Email != "jane@acme.io" {
			t.Errorf("unexpected user: %+v", user)
		}
		if tok, _, _ := store.Get(KeyToken); tok != "session-token" {
			t.Errorf("expected persisted token, got %q", tok)
		}
		if c.State() != AuthenticatedComplete {
			t.Errorf("expected AuthenticatedComplete, got %v", c.State())
		}
	})

	t.Run("Failure Leaves Store Untouched", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "wrong password"})
		})
		c, store, _ := newController(t, handler)

		_, err := c.SignIn(context.Background(), "jane@acme.io", "bad")
		if err == nil {
			t.Fatal("expected error")
		}
		if c.Err() == nil {
			t.Error("expected error surfaced in controller state")
		}
		if store.Len() != 0 {
			t.Errorf("expected no persisted keys, got %d", store.Len())
		}
		if c.State() != Anonymous {
			t.Errorf("expected Anonymous, got %v", c.State())
		}
	})
}

func TestSignUp(t *testing.T) {
	t.Run("Google Signup Requires Stored Access Token", func(t *testing.T) {
		called := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
		c, _, _ := newController(t, handler)

		_, err := c.SignUp(context.Background(), api.SignUpPayload{FromGoogle: true, Email: "jane@acme.io"})
		if !errors.Is(err, shared.ErrNoAccessToken) {
			t.Errorf("expected ErrNoAccessToken, got %v", err)
		}
		if called {
			t.Error("expected local precondition failure before any network call")
		}
	})

	t.Run("Google Signup Attaches Token And Clears Staging", func(t *testing.T) {
		var gotToken string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload map[string]any
			json.NewDecoder(r.Body).Decode(&payload)
			gotToken, _ = payload["accessToken"].(string)
			okAuthHandler(false).ServeHTTP(w, r)
		})
		c, store, _ := newController(t, handler)
		store.Set(KeyGoogleAccessToken, "provider-token")
		store.Set(KeyGoogleSignupInProgress, "true")
		store.Set(KeyGoogleUserData, `{"email":"jane@acme.io"}`)

		if _, err := c.SignUp(context.Background(), api.SignUpPayload{FromGoogle: true, Email: "jane@acme.io", CompanyName: "Acme"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotToken != "provider-token" {
			t.Errorf("expected provider token in payload, got %q", gotToken)
		}
		for _, key := range []string{KeyGoogleSignupInProgress, KeyGoogleUserData, KeyGoogleAccessToken, KeyGoogleAuthAction} {
			if _, ok, _ := store.Get(key); ok {
				t.Errorf("expected staging key %s cleared", key)
			}
		}
		if c.State() != AuthenticatedComplete {
			t.Errorf("expected AuthenticatedComplete, got %v", c.State())
		}
	})
}

func TestSignOut(t *testing.T) {
	t.Run("Clears All Keys Even When Server Fails", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		c, store, _ := newController(t, handler)
		for _, key := range AllKeys {
			store.Set(key, "x")
		}

		c.SignOut(context.Background())

		if store.Len() != 0 {
			t.Errorf("expected all six keys cleared, %d remain", store.Len())
		}
		if c.State() != Anonymous {
			t.Errorf("expected Anonymous, got %v", c.State())
		}
		if c.User() != nil {
			t.Error("expected nil user")
		}
	})
}

func TestHandleOAuthCallback(t *testing.T) {
	t.Run("Missing Token Is Local Failure", func(t *testing.T) {
		called := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
		c, _, _ := newController(t, handler)

		_, err := c.HandleOAuthCallback(context.Background(), "")
		if !errors.Is(err, shared.ErrNoAccessToken) {
			t.Errorf("expected ErrNoAccessToken, got %v", err)
		}
		if called {
			t.Error("expected no backend call without an access token")
		}
	})

	t.Run("Backend Verdict Overrides Signin Intent", func(t *testing.T) {
		c, store, _ := newController(t, okAuthHandler(true))
		store.Set(KeyGoogleAuthAction, string(ActionSignIn))

		result, err := c.HandleOAuthCallback(context.Background(), "provider-token")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.NewUser {
			t.Error("expected new-user branch")
		}
		if c.State() != AuthenticatedPendingCompanyInfo {
			t.Errorf("expected AuthenticatedPendingCompanyInfo, got %v", c.State())
		}
		if flag, _, _ := store.Get(KeyGoogleSignupInProgress); flag != "true" {
			t.Errorf("expected signup-in-progress persisted, got %q", flag)
		}
		if result.Profile == nil || result.Profile.Email != "jane@acme.io" {
			t.Errorf("expected staged profile, got %+v", result.Profile)
		}
		if profile := c.StagedProfile(); profile == nil || profile.FirstName != "Jane" {
			t.Errorf("expected staged profile readable, got %+v", profile)
		}
	})

	t.Run("Existing User Signs In", func(t *testing.T) {
		c, store, _ := newController(t, okAuthHandler(false))
		store.Set(KeyGoogleAuthAction, string(ActionSignUp))
		store.Set(KeyGoogleSignupInProgress, "true")

		result, err := c.HandleOAuthCallback(context.Background(), "provider-token")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.NewUser {
			t.Error("expected existing-user branch")
		}
		if c.State() != AuthenticatedComplete {
			t.Errorf("expected AuthenticatedComplete, got %v", c.State())
		}
		if _, ok, _ := store.Get(KeyGoogleSignupInProgress); ok {
			t.Error("expected signup-in-progress cleared")
		}
		if tok, _, _ := store.Get(KeyToken); tok != "session-token" {
			t.Errorf("expected session token persisted, got %q", tok)
		}
	})
}
