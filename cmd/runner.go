package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/testivid/testivid/internal/api"
	"github.com/testivid/testivid/internal/capture"
	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/session"
	"github.com/testivid/testivid/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *api.Client
	session    *session.Controller
	factory    capture.Factory
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	API        *api.Client
	Store      session.Store
	Session    *session.Controller
	Factory    capture.Factory
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = api.NewClient(opts.Config.API.BaseURL, opts.HTTPClient)
	}
	if opts.Session == nil && opts.Store != nil {
		opts.Session = session.NewController(opts.API, opts.Store, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		api:        opts.API,
		session:    opts.Session,
		factory:    opts.Factory,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, questionsCommand, requestsCommand, testimonialsCommand, recordCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAuth restores the persisted session and returns the authenticated user.
//
// A pending Google signup is an error here: the account exists at the provider
// but has no company yet, so every authenticated surface redirects to signup.
func (r *Runner) requireAuth(ctx context.Context) (*models.User, error) {
	if r.session == nil {
		return nil, fmt.Errorf("%w: local storage not initialized, run 'testivid setup' first", shared.ErrServiceUnavailable)
	}

	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("session restore failed", "error", err)
	}

	switch r.session.State() {
	case session.AuthenticatedComplete:
		user := r.session.User()
		if user == nil {
			return nil, fmt.Errorf("%w: could not resolve account details, check connectivity and retry", shared.ErrAuthFailed)
		}
		return user, nil
	case session.AuthenticatedPendingCompanyInfo:
		return nil, fmt.Errorf("%w: finish registration with 'testivid auth signup --from-google'", shared.ErrSignupIncomplete)
	default:
		return nil, fmt.Errorf("%w: run 'testivid auth signin'", shared.ErrNotAuthenticated)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
