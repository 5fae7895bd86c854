package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/testivid/testivid/internal/models"
)

// ListRequests fetches outstanding testimonial requests for a company.
func (c *Client) ListRequests(ctx context.Context, companyID string) ([]models.TestimonialRequest, error) {
	path := "/api/testimonials/requests?company_id=" + url.QueryEscape(companyID)
	var out struct {
		Requests []models.TestimonialRequest `json:"requests"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

// CreateRequest sends a new testimonial invitation to a customer.
func (c *Client) CreateRequest(ctx context.Context, companyID, customerName, customerEmail string) (*models.TestimonialRequest, error) {
	body := map[string]string{
		"company_id":     companyID,
		"customer_name":  customerName,
		"customer_email": customerEmail,
	}
	var out struct {
		Request *models.TestimonialRequest `json:"request"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/testimonials/request", body, &out); err != nil {
		return nil, err
	}
	return out.Request, nil
}

// RemindRequest re-sends the invitation email for a pending request.
func (c *Client) RemindRequest(ctx context.Context, requestID string) error {
	path := "/api/testimonials/request/" + url.PathEscape(requestID) + "/remind"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// GetRequest fetches one testimonial request with its collected videos.
func (c *Client) GetRequest(ctx context.Context, requestID string) (*models.Testimonial, error) {
	path := "/api/testimonials/request/" + url.PathEscape(requestID)
	var out struct {
		Testimonial *models.Testimonial `json:"testimonial"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Testimonial, nil
}

// Merge asks the backend to merge a testimonial's per-question videos into one.
func (c *Client) Merge(ctx context.Context, testimonialID string) (string, error) {
	path := "/api/testimonials/" + url.PathEscape(testimonialID) + "/merge"
	var out struct {
		MergedURL string `json:"merged_url"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}
	return out.MergedURL, nil
}

// GenerateIntro asks the backend to generate an intro clip for a response video.
func (c *Client) GenerateIntro(ctx context.Context, responseID string) (string, error) {
	path := "/api/testimonials/response/" + url.PathEscape(responseID) + "/generate-intro"
	var out struct {
		IntroURL string `json:"intro_url"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}
	return out.IntroURL, nil
}

// Stats fetches dashboard counters.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var out struct {
		Stats *models.Stats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/testimonials/stats", nil, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}
