package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBackgroundColor is the display hint used when a take has no explicit color.
const DefaultBackgroundColor = "#000000"

// User represents an authenticated Testivid account.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	CompanyID string `json:"company_id"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Name returns the user's display name.
func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Question represents a testimonial question configured by a company.
type Question struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
	CompanyID string `json:"company_id"`
}

// Company represents the requesting company shown on the public submission surface.
type Company struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// TestimonialRequest represents an invitation sent to a customer.
type TestimonialRequest struct {
	ID            string    `json:"id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Status        string    `json:"status"`
	Token         string    `json:"token,omitempty"`
	CompanyID     string    `json:"company_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Testimonial represents a collected testimonial and its metadata.
type Testimonial struct {
	ID            string             `json:"id"`
	CustomerName  string             `json:"customer_name"`
	CustomerTitle string             `json:"customer_title,omitempty"`
	Company       *Company           `json:"company,omitempty"`
	Videos        []TestimonialVideo `json:"videos,omitempty"`
	MergedURL     string             `json:"merged_url,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// TestimonialVideo represents a single per-question response video.
type TestimonialVideo struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	URL        string `json:"url"`
}

// Stats contains dashboard counters.
type Stats struct {
	TotalRequests     int `json:"total_requests"`
	PendingRequests   int `json:"pending_requests"`
	CompletedRequests int `json:"completed_requests"`
	TotalVideos       int `json:"total_videos"`
}

// Recording is one accepted take for a question.
//
// Media is held in memory for the lifetime of the recording session; it is never
// persisted locally.
type Recording struct {
	QuestionID      string
	Media           []byte
	BackgroundColor string
}

// Validate checks that the recording can be part of a submission payload.
func (r Recording) Validate() error {
	if r.QuestionID == "" {
		return fmt.Errorf("recording missing question id")
	}
	if len(r.Media) == 0 {
		return fmt.Errorf("recording for question %s has no media", r.QuestionID)
	}
	return nil
}

// GoogleProfile holds provider-supplied profile fields staged during the
// Google signup flow to pre-fill the registration form.
type GoogleProfile struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Picture   string `json:"picture,omitempty"`
}

// SubmissionRecord is a local history row for a completed submission.
type SubmissionRecord struct {
	ID            string
	Sequence      int
	TestimonialID string
	CustomerName  string
	VideoCount    int
	VideoURLs     []string
	SubmittedAt   time.Time
}

// Validate checks the record before persistence.
func (s SubmissionRecord) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("submission record missing id")
	}
	if s.TestimonialID == "" {
		return fmt.Errorf("submission record missing testimonial id")
	}
	if s.VideoCount != len(s.VideoURLs) {
		return fmt.Errorf("submission record video count %d does not match %d urls", s.VideoCount, len(s.VideoURLs))
	}
	return nil
}
