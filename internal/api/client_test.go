package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/testivid/testivid/internal/shared"
)

func TestClient(t *testing.T) {
	t.Run("NewClient", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			c := NewClient("", nil)
			if c.baseURL != "https://app.testivid.com" {
				t.Errorf("unexpected default base URL: %s", c.baseURL)
			}
			if c.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			c := NewClient("http://example.com/", nil)
			if c.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
			}
		})
	})

	t.Run("Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
				t.Errorf("expected bearer header, got %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"id": "u1"}})
		}))
		defer server.Close()

		c := NewClient(server.URL, nil)
		c.SetToken("tok-123")

		if _, err := c.Me(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Error Mapping", func(t *testing.T) {
		t.Run("Backend Message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"message": "email already registered"})
			}))
			defer server.Close()

			c := NewClient(server.URL, nil)
			_, err := c.SignIn(context.Background(), "a@b.c", "pw")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if want := "email already registered"; !strings.Contains(err.Error(), want) {
				t.Errorf("expected backend message in error, got %q", err.Error())
			}
		})

		t.Run("Error Field Preferred", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "bad token", "message": "ignored"})
			}))
			defer server.Close()

			c := NewClient(server.URL, nil)
			_, err := c.ValidateInvitation(context.Background(), "tok")
			if err == nil || !strings.Contains(err.Error(), "bad token") {
				t.Errorf("expected error field message, got %v", err)
			}
		})

		t.Run("Generic Fallback", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil)
			_, err := c.SignIn(context.Background(), "a@b.c", "pw")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest fallback, got %v", err)
			}
		})

		t.Run("Unauthorized", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil)
			_, err := c.Me(context.Background())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("SignInGoogle", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/auth/signin-google" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["redirectUri"] != "http://localhost:8521/auth/callback" {
				t.Errorf("unexpected redirect uri %q", body["redirectUri"])
			}
			json.NewEncoder(w).Encode(map[string]string{"url": "https://accounts.google.com/o/oauth2/auth?x=1"})
		}))
		defer server.Close()

		c := NewClient(server.URL, nil)
		url, err := c.SignInGoogle(context.Background(), "http://localhost:8521/auth/callback")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url == "" {
			t.Error("expected provider URL")
		}
	})

	t.Run("ProcessAuthCallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["accessToken"] != "at" || body["authAction"] != "signin" {
				t.Errorf("unexpected body: %v", body)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"user":      map[string]string{"id": "u1", "email": "a@b.c"},
				"token":     "session-token",
				"isNewUser": true,
			})
		}))
		defer server.Close()

		c := NewClient(server.URL, nil)
		resp, err := c.ProcessAuthCallback(context.Background(), "at", "signin")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !resp.IsNewUser {
			t.Error("expected isNewUser to round-trip")
		}
		if resp.Token != "session-token" {
			t.Errorf("unexpected token %q", resp.Token)
		}
	})

	t.Run("ListQuestions", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("company_id"); got != "co-1" {
				t.Errorf("unexpected company id %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"questions": []map[string]any{
					{"id": "q1", "text": "What problem did we solve?", "position": 0},
					{"id": "q2", "text": "Would you recommend us?", "position": 1},
				},
			})
		}))
		defer server.Close()

		c := NewClient(server.URL, nil)
		questions, err := c.ListQuestions(context.Background(), "co-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(questions) != 2 {
			t.Fatalf("expected 2 questions, got %d", len(questions))
		}
		if questions[0].ID != "q1" {
			t.Errorf("unexpected first question: %+v", questions[0])
		}
	})
}
