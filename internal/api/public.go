package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/shared"
)

// Invitation is the public payload behind a valid invitation token.
type Invitation struct {
	Testimonial *models.Testimonial `json:"testimonial"`
	Questions   []models.Question   `json:"questions"`
}

// ValidateInvitation resolves an invitation token to the live testimonial
// request and its question list. No authentication is required.
func (c *Client) ValidateInvitation(ctx context.Context, token string) (*Invitation, error) {
	path := "/api/public/testimonial/validate/" + url.PathEscape(token)
	var out Invitation
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvitationInvalid, err)
	}
	if out.Testimonial == nil {
		return nil, fmt.Errorf("%w: empty testimonial in response", shared.ErrInvitationInvalid)
	}
	return &out, nil
}

// Submission is the complete multipart payload for one testimonial.
type Submission struct {
	Recordings    []models.Recording
	CustomerName  string
	CustomerTitle string
	TestimonialID string
	Token         string
}

// SubmitTestimonial uploads all recordings as one multipart request.
//
// Each recording becomes a uniquely named "videos" part, with parallel
// questionIds[i] and bgColors[i] fields mapping part index to question and
// display color. Returns the processed output video URLs.
func (c *Client) SubmitTestimonial(ctx context.Context, sub Submission) ([]string, error) {
	if len(sub.Recordings) == 0 {
		return nil, shared.ErrNoRecordings
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for i, rec := range sub.Recordings {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}

		part, err := writer.CreateFormFile("videos", fmt.Sprintf("video%d.webm", i))
		if err != nil {
			return nil, fmt.Errorf("failed to create video part: %w", err)
		}
		if _, err := part.Write(rec.Media); err != nil {
			return nil, fmt.Errorf("failed to write video part: %w", err)
		}

		if err := writer.WriteField(fmt.Sprintf("questionIds[%d]", i), rec.QuestionID); err != nil {
			return nil, fmt.Errorf("failed to write question id field: %w", err)
		}

		color := rec.BackgroundColor
		if color == "" {
			color = models.DefaultBackgroundColor
		}
		if err := writer.WriteField(fmt.Sprintf("bgColors[%d]", i), color); err != nil {
			return nil, fmt.Errorf("failed to write color field: %w", err)
		}
	}

	fields := map[string]string{
		"name":          sub.CustomerName,
		"title":         sub.CustomerTitle,
		"testimonialId": sub.TestimonialID,
		"token":         sub.Token,
	}
	for _, key := range []string{"name", "title", "testimonialId", "token"} {
		if err := writer.WriteField(key, fields[key]); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/public/testimonial/save", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSubmitFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.asError(resp.StatusCode, data)
	}

	var out struct {
		VideoURLs []string `json:"videoUrls"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return out.VideoURLs, nil
}
