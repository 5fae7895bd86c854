// package tasks implements bulk operations against the Testivid backend.
//
// The core abstraction is ReminderEngine, which fans one command out over many
// testimonial requests with rate limiting. Operations emit progress updates
// via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/testivid/testivid/internal/api"
	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/shared"
	"golang.org/x/time/rate"
)

// ReminderResult represents the outcome of reminding a single request.
type ReminderResult struct {
	RequestID    string // Request the reminder was sent for
	CustomerName string // Customer display name, when known
	Success      bool   // Whether the reminder was delivered
	Error        error  // Error if delivery failed
}

// RemindAllResult contains all data from a bulk reminder operation.
type RemindAllResult struct {
	Total        int              // Requests processed
	SuccessCount int              // Reminders delivered
	FailedCount  int              // Reminders that failed
	Results      []ReminderResult // Individual outcomes in processing order
}

// ReminderOpts contains configuration for bulk reminders.
type ReminderOpts struct {
	CompanyID string  // Company whose pending requests are reminded when no IDs are given
	RateLimit float64 // Requests per second (default: 2)
}

// ReminderEngine sends testimonial request reminders in bulk.
type ReminderEngine struct {
	api    *api.Client
	logger *log.Logger
}

// NewReminderEngine creates a [ReminderEngine] backed by the given API client.
func NewReminderEngine(client *api.Client, logger *log.Logger) *ReminderEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ReminderEngine{api: client, logger: logger}
}

// RemindAll sends a reminder for each request, rate limited.
//
// With no explicit IDs it fetches the company's requests and reminds the
// pending ones. Partial failures are collected per request, not fatal; the
// returned result reports both counts.
func (e *ReminderEngine) RemindAll(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts ReminderOpts,
) (*RemindAllResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: api client not initialized", shared.ErrServiceUnavailable)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	names := map[string]string{}
	if len(ids) == 0 {
		e.sendProgress(prog, fetchRequestsUpdate())
		requests, err := e.api.ListRequests(ctx, opts.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list requests: %w", err)
		}
		for _, req := range requests {
			if req.Status != "pending" {
				continue
			}
			ids = append(ids, req.ID)
			names[req.ID] = req.CustomerName
		}
	}

	result := &RemindAllResult{
		Total:   len(ids),
		Results: make([]ReminderResult, 0, len(ids)),
	}
	if len(ids) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("reminder run cancelled: %w", err)
		}

		res := ReminderResult{RequestID: id, CustomerName: names[id]}
		if err := e.api.RemindRequest(ctx, id); err != nil {
			res.Error = fmt.Errorf("failed to remind request %s: %w", id, err)
			result.FailedCount++
			e.logger.Warn("reminder failed", "request", id, "error", err)
			e.sendProgress(prog, remindFailedUpdate(i+1, len(ids), id, err))
		} else {
			res.Success = true
			result.SuccessCount++
			e.sendProgress(prog, remindSentUpdate(i+1, len(ids), id, res.CustomerName))
		}
		result.Results = append(result.Results, res)
	}

	return result, nil
}

// sendProgress sends an update without blocking when the receiver is slow.
func (e *ReminderEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}

// PendingRequests filters a request list down to the ones awaiting a response.
func PendingRequests(requests []models.TestimonialRequest) []models.TestimonialRequest {
	var pending []models.TestimonialRequest
	for _, req := range requests {
		if req.Status == "pending" {
			pending = append(pending, req)
		}
	}
	return pending
}
