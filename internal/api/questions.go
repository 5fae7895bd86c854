package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/testivid/testivid/internal/models"
)

// ListQuestions fetches the question list for a company, ordered by position.
func (c *Client) ListQuestions(ctx context.Context, companyID string) ([]models.Question, error) {
	path := "/api/questions/list?company_id=" + url.QueryEscape(companyID)
	var out struct {
		Questions []models.Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// AddQuestion creates a question for the company.
func (c *Client) AddQuestion(ctx context.Context, companyID, text string) (*models.Question, error) {
	body := map[string]string{"company_id": companyID, "text": text}
	var out struct {
		Question *models.Question `json:"question"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/questions/add", body, &out); err != nil {
		return nil, err
	}
	return out.Question, nil
}

// EditQuestion updates a question's text.
func (c *Client) EditQuestion(ctx context.Context, questionID, text string) error {
	body := map[string]string{"id": questionID, "text": text}
	return c.do(ctx, http.MethodPost, "/api/questions/edit", body, nil)
}

// DeleteQuestion removes a question.
func (c *Client) DeleteQuestion(ctx context.Context, questionID string) error {
	body := map[string]string{"id": questionID}
	return c.do(ctx, http.MethodPost, "/api/questions/delete", body, nil)
}

// UpdateQuestionPosition moves a question to a new position in the list.
func (c *Client) UpdateQuestionPosition(ctx context.Context, questionID string, position int) error {
	body := map[string]any{"id": questionID, "position": position}
	return c.do(ctx, http.MethodPost, "/api/questions/update-position", body, nil)
}
