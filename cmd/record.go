package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/testivid/testivid/internal/formatter"
	"github.com/testivid/testivid/internal/recording"
	"github.com/testivid/testivid/internal/repositories"
	"github.com/testivid/testivid/internal/shared"
	"github.com/testivid/testivid/internal/ui"
	"github.com/urfave/cli/v3"
)

// Record launches the interactive recording session for an invitation token.
//
// No authentication is required: the invitation token is the credential.
func (r *Runner) Record(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	if token == "" {
		return fmt.Errorf("%w: --token is required", shared.ErrMissingArgument)
	}

	if r.factory == nil {
		return fmt.Errorf("%w: capture device not configured", shared.ErrServiceUnavailable)
	}

	invitation, err := r.api.ValidateInvitation(ctx, token)
	if err != nil {
		return fmt.Errorf("invitation validation failed: %w", err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/testivid-record.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine := recording.NewEngine(r.api, r.factory, invitation, token, fileLogger)
	defer engine.Close()

	if r.db != nil {
		engine.SetHistory(repositories.NewSubmissionRepository(r.db))
	}

	model := ui.NewModel(ctx, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if engine.Submitted() {
		r.writePlainln("✓ Testimonial submitted, thank you!")
		for _, videoURL := range engine.VideoURLs() {
			r.writePlain("%s\n", videoURL)
		}
	}

	return nil
}

// RecordHistory lists locally recorded submission history.
func (r *Runner) RecordHistory(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	if r.db == nil {
		return fmt.Errorf("%w: local storage not initialized, run 'testivid setup' first", shared.ErrServiceUnavailable)
	}

	records, err := repositories.NewSubmissionRepository(r.db).List()
	if err != nil {
		return fmt.Errorf("failed to read submission history: %w", err)
	}

	if useJSON {
		return r.writeJSON(records, true)
	}

	r.writePlain("%s", formatter.SubmissionsTable(records))
	return nil
}

// recordCommand handles the customer-facing recording surface
func recordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record a testimonial from an invitation link",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   "Invitation token from the recording link",
			},
		},
		Action: r.Record,
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "List past submissions recorded on this machine",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RecordHistory,
			},
		},
	}
}
