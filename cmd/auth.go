package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/testivid/testivid/internal/api"
	"github.com/testivid/testivid/internal/server"
	"github.com/testivid/testivid/internal/session"
	"github.com/testivid/testivid/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthSignIn authenticates with email and password and persists the session.
func (r *Runner) AuthSignIn(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	if r.session == nil {
		return fmt.Errorf("%w: local storage not initialized, run 'testivid setup' first", shared.ErrServiceUnavailable)
	}
	if email == "" || password == "" {
		return fmt.Errorf("%w: --email and --password are required", shared.ErrMissingArgument)
	}

	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("session restore failed", "error", err)
	}

	user, err := r.session.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	r.writePlainln("✓ Signed in as %s <%s>", user.Name(), user.Email)
	return nil
}

// AuthSignUp registers a new account, either with a password or from a pending
// Google signup.
//
// With --from-google the staged provider profile pre-fills any name and email
// flags left empty, mirroring the pre-filled registration form.
func (r *Runner) AuthSignUp(ctx context.Context, cmd *cli.Command) error {
	fromGoogle := cmd.Bool("from-google")

	if r.session == nil {
		return fmt.Errorf("%w: local storage not initialized, run 'testivid setup' first", shared.ErrServiceUnavailable)
	}

	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("session restore failed", "error", err)
	}

	payload := api.SignUpPayload{
		FirstName:   cmd.String("first-name"),
		LastName:    cmd.String("last-name"),
		Email:       cmd.String("email"),
		CompanyName: cmd.String("company"),
		Password:    cmd.String("password"),
		FromGoogle:  fromGoogle,
	}

	if fromGoogle {
		if profile := r.session.StagedProfile(); profile != nil {
			if payload.FirstName == "" {
				payload.FirstName = profile.FirstName
			}
			if payload.LastName == "" {
				payload.LastName = profile.LastName
			}
			if payload.Email == "" {
				payload.Email = profile.Email
			}
		}
	} else if payload.Password == "" {
		return fmt.Errorf("%w: --password is required without --from-google", shared.ErrMissingArgument)
	}

	if payload.Email == "" || payload.CompanyName == "" {
		return fmt.Errorf("%w: --email and --company are required", shared.ErrMissingArgument)
	}

	user, err := r.session.SignUp(ctx, payload)
	if err != nil {
		return fmt.Errorf("sign up failed: %w", err)
	}

	r.writePlainln("✓ Account created for %s <%s>", user.Name(), user.Email)
	r.writePlain("You can now use: testivid questions list\n")
	return nil
}

// AuthSignOut clears the persisted session locally regardless of backend reachability.
func (r *Runner) AuthSignOut(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil {
		return fmt.Errorf("%w: local storage not initialized, run 'testivid setup' first", shared.ErrServiceUnavailable)
	}

	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("session restore failed", "error", err)
	}

	r.session.SignOut(ctx)
	r.writePlainln("✓ Signed out")
	return nil
}

// AuthStatus prints the restored session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	if r.session == nil {
		return fmt.Errorf("%w: local storage not initialized, run 'testivid setup' first", shared.ErrServiceUnavailable)
	}

	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("session restore failed", "error", err)
	}

	state := r.session.State()
	user := r.session.User()

	if useJSON {
		status := map[string]any{"state": state.String()}
		if user != nil {
			status["user"] = user
		}
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Session")
	r.writePlain("State: %s\n", state)
	if user != nil {
		r.writePlain("User:  %s <%s>\n", user.Name(), user.Email)
		r.writePlain("Company: %s\n", user.CompanyID)
	}
	if state == session.AuthenticatedPendingCompanyInfo {
		r.writePlain("\nFinish registration with: testivid auth signup --from-google --company \"Your Company\"\n")
	}
	return nil
}

// AuthGoogle runs the delegated Google sign-in flow through a loopback server.
//
// Starts a local HTTP server, opens the browser for provider authorization,
// and hands the received access token to the session controller. The backend
// decides whether the account is new; a stale local signal never overrides it.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil {
		return fmt.Errorf("%w: local storage not initialized, run 'testivid setup' first", shared.ErrServiceUnavailable)
	}

	action := session.ActionSignIn
	if cmd.Bool("signup") {
		action = session.ActionSignUp
	}

	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("session restore failed", "error", err)
	}

	accessToken, err := r.doGoogleOAuth(ctx, action)
	if err != nil {
		return err
	}

	result, err := r.session.HandleOAuthCallback(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("callback processing failed: %w", err)
	}

	if result.NewUser {
		r.writePlainln("✓ Google account verified")
		if result.Profile != nil {
			r.writePlain("Name:  %s %s\n", result.Profile.FirstName, result.Profile.LastName)
			r.writePlain("Email: %s\n", result.Profile.Email)
		}
		r.writePlain("\nFinish registration with: testivid auth signup --from-google --company \"Your Company\"\n")
		return nil
	}

	r.writePlainln("✓ Signed in as %s", result.User.Name())
	return nil
}

// AuthForgotPassword requests a password reset email.
func (r *Runner) AuthForgotPassword(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	if email == "" {
		return fmt.Errorf("%w: --email is required", shared.ErrMissingArgument)
	}

	if err := r.api.ForgotPassword(ctx, email); err != nil {
		return fmt.Errorf("password reset request failed: %w", err)
	}

	r.writePlainln("✓ Reset email sent to %s", email)
	return nil
}

// AuthResetPassword sets a new password using the emailed reset token.
func (r *Runner) AuthResetPassword(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	password := cmd.String("password")

	if token == "" || password == "" {
		return fmt.Errorf("%w: --token and --password are required", shared.ErrMissingArgument)
	}

	if err := r.api.ResetPassword(ctx, token, password); err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	r.writePlainln("✓ Password updated, sign in with: testivid auth signin")
	return nil
}

// doGoogleOAuth executes the implicit-grant authorization flow with a local HTTP server.
//
// The provider delivers the access token in the redirect URI fragment, which
// never reaches a server directly. The callback page re-posts it, along with
// the state carried on the redirect URI query, to the token endpoint.
func (r *Runner) doGoogleOAuth(ctx context.Context, action session.AuthAction) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	serverAddr := fmt.Sprintf("%s:%d", r.config.Callback.Host, r.config.Callback.Port)
	redirectURI := fmt.Sprintf("http://%s/auth/callback?state=%s", serverAddr, url.QueryEscape(state))

	authURL, err := r.session.BeginGoogleFlow(ctx, action, redirectURI)
	if err != nil {
		clientID := r.config.Credentials.Google.ClientID
		if clientID == "" {
			return "", fmt.Errorf("failed to get sign-in URL: %w", err)
		}
		r.logger.Warnf("backend sign-in URL unavailable, building provider URL locally %v", err)
		authURL = session.GoogleAuthURL(clientID, redirectURI, state)
	}

	callbackHandler := server.NewCallbackHandler(state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(callbackHandler)

	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server for %s at %v", action, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Google %s...\n", action)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return "", fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.AccessToken == "" {
		return "", shared.ErrNoAccessToken
	}

	return result.AccessToken, nil
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Account and session management",
		Commands: []*cli.Command{
			{
				Name:  "signin",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthSignIn,
			},
			{
				Name:  "signup",
				Usage: "Register a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "first-name",
						Usage: "First name",
					},
					&cli.StringFlag{
						Name:  "last-name",
						Usage: "Last name",
					},
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "Account email",
					},
					&cli.StringFlag{
						Name:  "company",
						Usage: "Company name",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
					},
					&cli.BoolFlag{
						Name:  "from-google",
						Usage: "Complete a pending Google signup",
					},
				},
				Action: r.AuthSignUp,
			},
			{
				Name:   "signout",
				Usage:  "Sign out and clear the persisted session",
				Action: r.AuthSignOut,
			},
			{
				Name:  "status",
				Usage: "Show the current session state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "google",
				Usage: "Sign in or sign up with Google",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "signup",
						Usage: "Record signup intent before redirecting",
					},
				},
				Action: r.AuthGoogle,
			},
			{
				Name:  "forgot-password",
				Usage: "Request a password reset email",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
				},
				Action: r.AuthForgotPassword,
			},
			{
				Name:  "reset-password",
				Usage: "Set a new password with a reset token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "token",
						Usage:    "Reset token from the email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "New password",
						Required: true,
					},
				},
				Action: r.AuthResetPassword,
			},
		},
	}
}
