package main

import (
	"context"
	"fmt"

	"github.com/testivid/testivid/internal/formatter"
	"github.com/testivid/testivid/internal/shared"
	"github.com/testivid/testivid/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RequestsList lists the company's testimonial requests.
func (r *Runner) RequestsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pendingOnly := cmd.Bool("pending")

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	requests, err := r.api.ListRequests(ctx, user.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}

	if pendingOnly {
		requests = tasks.PendingRequests(requests)
	}

	if useJSON {
		return r.writeJSON(requests, true)
	}

	r.writePlain("%s", formatter.RequestsTable(requests))
	return nil
}

// RequestsCreate sends a new testimonial invitation to a customer.
func (r *Runner) RequestsCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	email := cmd.String("email")

	if name == "" || email == "" {
		return fmt.Errorf("%w: --name and --email are required", shared.ErrMissingArgument)
	}

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	request, err := r.api.CreateRequest(ctx, user.CompanyID, name, email)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	r.writePlainln("✓ Invitation sent to %s <%s>", request.CustomerName, request.CustomerEmail)
	if request.Token != "" {
		r.writePlain("Recording link token: %s\n", request.Token)
	}
	return nil
}

// RequestsRemind re-sends invitation emails.
//
// With explicit ids only those requests are reminded; with --all every
// pending request receives a reminder, rate limited against the mail gateway.
func (r *Runner) RequestsRemind(ctx context.Context, cmd *cli.Command) error {
	requestID := cmd.StringArg("id")
	all := cmd.Bool("all")
	rateLimit := cmd.Float("rate-limit")

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	if requestID == "" && !all {
		return fmt.Errorf("%w: provide a request id or --all", shared.ErrMissingArgument)
	}

	var ids []string
	if requestID != "" {
		ids = []string{requestID}
	}

	engine := tasks.NewReminderEngine(r.api, r.logger)

	prog := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.RemindAll(ctx, prog, ids, tasks.ReminderOpts{
		CompanyID: user.CompanyID,
		RateLimit: rateLimit,
	})
	close(prog)
	<-done

	if err != nil {
		return fmt.Errorf("reminder run failed: %w", err)
	}

	r.writePlainln("✓ Sent %d of %d reminders (%d failed)", result.SuccessCount, result.Total, result.FailedCount)
	return nil
}

// RequestsShow displays one request with its collected videos.
func (r *Runner) RequestsShow(ctx context.Context, cmd *cli.Command) error {
	requestID := cmd.StringArg("id")
	useJSON := cmd.Bool("json")

	if requestID == "" {
		return fmt.Errorf("%w: request id", shared.ErrMissingArgument)
	}

	if _, err := r.requireAuth(ctx); err != nil {
		return err
	}

	testimonial, err := r.api.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to fetch request: %w", err)
	}

	if useJSON {
		return r.writeJSON(testimonial, true)
	}

	r.output.Write(formatter.TestimonialText(testimonial))
	return nil
}

// requestsCommand handles testimonial invitations
func requestsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "requests",
		Aliases: []string{"req"},
		Usage:   "Manage testimonial requests",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List testimonial requests",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pending",
						Usage: "Show only pending requests",
					},
				},
				Action: r.RequestsList,
			},
			{
				Name:  "create",
				Usage: "Send a testimonial invitation",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Customer name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Customer email",
						Required: true,
					},
				},
				Action: r.RequestsCreate,
			},
			{
				Name:  "remind",
				Usage: "Re-send invitation emails",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Remind every pending request",
					},
					&cli.FloatFlag{
						Name:  "rate-limit",
						Usage: "Maximum reminders per second",
						Value: 2.0,
					},
				},
				Action: r.RequestsRemind,
			},
			{
				Name:  "show",
				Usage: "Show one request and its videos",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RequestsShow,
			},
		},
	}
}
