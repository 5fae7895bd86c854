package server

import (
	"fmt"
	"net/http"
	"sync"
)

// CallbackResult contains the outcome of one sign-in callback.
type CallbackResult struct {
	AccessToken string
	err         error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the redirect-back leg of the Google sign-in flow.
// Implements the Handler interface for registration with a Router.
//
// The bearer token arrives in the URL fragment, which the server never sees;
// the GET route serves a page that re-posts the fragment parameters to the
// token route.
type CallbackHandler struct {
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a new callback handler expecting the given state token.
// The state token should be cryptographically random for CSRF protection.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/auth/callback", "/auth/callback/token"}
}

// ServeHTTP dispatches between the fragment-repost page and the token drop.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/auth/callback" && r.Method == http.MethodGet:
		h.servePage(w)
	case r.URL.Path == "/auth/callback/token" && r.Method == http.MethodPost:
		h.receiveToken(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// receiveToken consumes the re-posted fragment parameters.
//
// Validates the state parameter and delivers the access token through the
// result channel. Processed at most once.
func (h *CallbackHandler) receiveToken(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		h.Send(CallbackResult{err: fmt.Errorf("malformed callback form: %w", err)})
		http.Error(w, "Malformed request", http.StatusBadRequest)
		return
	}

	state := r.PostFormValue("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.Send(CallbackResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token := r.PostFormValue("access_token")
	if token == "" {
		errParam := r.PostFormValue("error")
		errDesc := r.PostFormValue("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{AccessToken: token})
	w.WriteHeader(http.StatusNoContent)
}

// servePage renders the page that extracts the URL fragment and re-posts it.
func (h *CallbackHandler) servePage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Signing In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #4285F4; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1 id="status">Completing sign-in…</h1>
        <p>You can close this window once the terminal confirms.</p>
    </div>
    <script>
        const params = new URLSearchParams(window.location.hash.replace(/^#/, ""));
        new URLSearchParams(window.location.search).forEach((value, name) => {
            if (!params.has(name)) params.set(name, value);
        });
        fetch("/auth/callback/token", {
            method: "POST",
            headers: { "Content-Type": "application/x-www-form-urlencoded" },
            body: params.toString(),
        }).then((resp) => {
            document.getElementById("status").textContent =
                resp.ok ? "✓ Sign-in complete" : "Sign-in failed";
        }).catch(() => {
            document.getElementById("status").textContent = "Sign-in failed";
        });
    </script>
</body>
</html>
`)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving callback completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
