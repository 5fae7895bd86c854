package main

import (
	"context"
	"fmt"

	"github.com/testivid/testivid/internal/formatter"
	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/repositories"
	"github.com/testivid/testivid/internal/shared"
	"github.com/urfave/cli/v3"
)

// QuestionsList lists the company's testimonial questions in position order.
//
// A successful fetch refreshes the local cache; when the backend is
// unreachable the cached copy is shown instead.
func (r *Runner) QuestionsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	questions, err := r.api.ListQuestions(ctx, user.CompanyID)
	if err != nil {
		if r.db == nil {
			return fmt.Errorf("failed to list questions: %w", err)
		}
		cache := repositories.NewQuestionCacheRepository(r.db)
		cached, cacheErr := cache.List(user.CompanyID)
		if cacheErr != nil || len(cached) == 0 {
			return fmt.Errorf("failed to list questions: %w", err)
		}
		fetchedAt, _ := cache.FetchedAt(user.CompanyID)
		r.logger.Warn("backend unreachable, showing cached questions", "error", err)
		r.writePlain("⚠ Showing cached questions from %s\n", fetchedAt.Format("2006-01-02 15:04"))
		questions = cached
	} else if r.db != nil {
		cache := repositories.NewQuestionCacheRepository(r.db)
		if err := cache.Replace(user.CompanyID, questions); err != nil {
			r.logger.Warn("failed to refresh question cache", "error", err)
		}
	}

	if useJSON {
		return r.writeJSON(questions, true)
	}

	r.writePlain("%s", formatter.QuestionsTable(questions))
	return nil
}

// QuestionsAdd creates a new question for the company.
func (r *Runner) QuestionsAdd(ctx context.Context, cmd *cli.Command) error {
	text := cmd.StringArg("text")
	if text == "" {
		return fmt.Errorf("%w: question text", shared.ErrMissingArgument)
	}

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	question, err := r.api.AddQuestion(ctx, user.CompanyID, text)
	if err != nil {
		return fmt.Errorf("failed to add question: %w", err)
	}

	r.writePlainln("✓ Added question %s", question.ID)
	return r.invalidateQuestionCache(user.CompanyID)
}

// QuestionsEdit replaces a question's text.
func (r *Runner) QuestionsEdit(ctx context.Context, cmd *cli.Command) error {
	questionID := cmd.StringArg("id")
	text := cmd.String("text")

	if questionID == "" {
		return fmt.Errorf("%w: question id", shared.ErrMissingArgument)
	}
	if text == "" {
		return fmt.Errorf("%w: --text is required", shared.ErrMissingArgument)
	}

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := r.api.EditQuestion(ctx, questionID, text); err != nil {
		return fmt.Errorf("failed to edit question: %w", err)
	}

	r.writePlainln("✓ Updated question %s", questionID)
	return r.invalidateQuestionCache(user.CompanyID)
}

// QuestionsDelete removes a question.
func (r *Runner) QuestionsDelete(ctx context.Context, cmd *cli.Command) error {
	questionID := cmd.StringArg("id")
	if questionID == "" {
		return fmt.Errorf("%w: question id", shared.ErrMissingArgument)
	}

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := r.api.DeleteQuestion(ctx, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	r.writePlainln("✓ Deleted question %s", questionID)
	return r.invalidateQuestionCache(user.CompanyID)
}

// QuestionsMove changes a question's position in the recording order.
func (r *Runner) QuestionsMove(ctx context.Context, cmd *cli.Command) error {
	questionID := cmd.StringArg("id")
	position := cmd.Int("position")

	if questionID == "" {
		return fmt.Errorf("%w: question id", shared.ErrMissingArgument)
	}
	if position < 0 {
		return fmt.Errorf("%w: --position must be non-negative", shared.ErrInvalidFlag)
	}

	user, err := r.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := r.api.UpdateQuestionPosition(ctx, questionID, position); err != nil {
		return fmt.Errorf("failed to move question: %w", err)
	}

	r.writePlainln("✓ Moved question %s to position %d", questionID, position)
	return r.invalidateQuestionCache(user.CompanyID)
}

// invalidateQuestionCache drops the cached list after a mutation so the next
// listing refetches.
func (r *Runner) invalidateQuestionCache(companyID string) error {
	if r.db == nil {
		return nil
	}
	cache := repositories.NewQuestionCacheRepository(r.db)
	if err := cache.Replace(companyID, []models.Question{}); err != nil {
		r.logger.Warn("failed to invalidate question cache", "error", err)
	}
	return nil
}

// questionsCommand handles question management
func questionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "questions",
		Aliases: []string{"q"},
		Usage:   "Manage testimonial questions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List questions in recording order",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.QuestionsList,
			},
			{
				Name:  "add",
				Usage: "Add a question",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "text",
					},
				},
				Action: r.QuestionsAdd,
			},
			{
				Name:  "edit",
				Usage: "Edit a question's text",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "text",
						Aliases:  []string{"t"},
						Usage:    "New question text",
						Required: true,
					},
				},
				Action: r.QuestionsEdit,
			},
			{
				Name:  "delete",
				Usage: "Delete a question",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.QuestionsDelete,
			},
			{
				Name:  "move",
				Usage: "Change a question's position",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "position",
						Aliases:  []string{"p"},
						Usage:    "New zero-based position",
						Required: true,
					},
				},
				Action: r.QuestionsMove,
			},
		},
	}
}
