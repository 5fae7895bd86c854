package main

import (
	"context"
	"fmt"

	"github.com/testivid/testivid/internal/formatter"
	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/shared"
	"github.com/urfave/cli/v3"
)

// TestimonialsList lists collected testimonials for the company.
//
// The backend has no bulk testimonial endpoint, so completed requests are
// resolved individually. Failures on single requests are logged and skipped.
func (r *Runner) TestimonialsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	requests, err := r.api.ListRequests(ctx, user.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}

	testimonials := []models.Testimonial{}
	for _, request := range requests {
		if request.Status != "completed" {
			continue
		}
		testimonial, err := r.api.GetRequest(ctx, request.ID)
		if err != nil {
			r.logger.Warn("failed to fetch testimonial", "request", request.ID, "error", err)
			continue
		}
		testimonials = append(testimonials, *testimonial)
	}

	if useJSON {
		return r.writeJSON(testimonials, true)
	}

	r.writePlain("%s", formatter.TestimonialsTable(testimonials))
	return nil
}

// TestimonialsShow displays a single testimonial.
func (r *Runner) TestimonialsShow(ctx context.Context, cmd *cli.Command) error {
	testimonialID := cmd.StringArg("id")
	useJSON := cmd.Bool("json")

	if testimonialID == "" {
		return fmt.Errorf("%w: testimonial id", shared.ErrMissingArgument)
	}

	if _, err := r.requireAuth(ctx); err != nil {
		return err
	}

	testimonial, err := r.api.GetRequest(ctx, testimonialID)
	if err != nil {
		return fmt.Errorf("failed to fetch testimonial: %w", err)
	}

	if useJSON {
		return r.writeJSON(testimonial, true)
	}

	r.output.Write(formatter.TestimonialText(testimonial))
	return nil
}

// TestimonialsMerge combines a testimonial's per-question videos into one file.
func (r *Runner) TestimonialsMerge(ctx context.Context, cmd *cli.Command) error {
	testimonialID := cmd.StringArg("id")
	if testimonialID == "" {
		return fmt.Errorf("%w: testimonial id", shared.ErrMissingArgument)
	}

	if _, err := r.requireAuth(ctx); err != nil {
		return err
	}

	r.writePlain("→ Merging videos (this can take a while)...\n")

	mergedURL, err := r.api.Merge(ctx, testimonialID)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	r.writePlainln("✓ Merged video ready")
	r.writePlain("%s\n", mergedURL)
	return nil
}

// TestimonialsGenerateIntro creates an intro clip for a response video.
func (r *Runner) TestimonialsGenerateIntro(ctx context.Context, cmd *cli.Command) error {
	responseID := cmd.StringArg("id")
	if responseID == "" {
		return fmt.Errorf("%w: response id", shared.ErrMissingArgument)
	}

	if _, err := r.requireAuth(ctx); err != nil {
		return err
	}

	introURL, err := r.api.GenerateIntro(ctx, responseID)
	if err != nil {
		return fmt.Errorf("intro generation failed: %w", err)
	}

	r.writePlainln("✓ Intro clip ready")
	r.writePlain("%s\n", introURL)
	return nil
}

// TestimonialsStats prints the dashboard counters.
func (r *Runner) TestimonialsStats(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	if _, err := r.requireAuth(ctx); err != nil {
		return err
	}

	stats, err := r.api.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	if useJSON {
		return r.writeJSON(stats, true)
	}

	r.writePlainHeader("Testimonial Stats")
	r.writePlain("%s", formatter.StatsTable(*stats))
	return nil
}

// testimonialsCommand handles collected testimonials
func testimonialsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "testimonials",
		Aliases: []string{"tm"},
		Usage:   "View and process collected testimonials",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List collected testimonials",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TestimonialsList,
			},
			{
				Name:  "show",
				Usage: "Show one testimonial",
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
				Action: r.TestimonialsShow,
			},
			{
				Name:  "merge",
				Usage: "Merge a testimonial's videos into one file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.TestimonialsMerge,
			},
			{
				Name:  "generate-intro",
				Usage: "Generate an intro clip for a response video",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.TestimonialsGenerateIntro,
			},
			{
				Name:  "stats",
				Usage: "Show dashboard counters",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TestimonialsStats,
			},
		},
	}
}
