// Package domain holds DTOs for publish http and service contracts
package domain

import "time"

// PublishInput is the request body for publishing a note
type PublishInput struct {
	Title     string   `json:"title" validate:"required" example:"Hello World"`
	Content   string   `json:"content" validate:"required" example:"Testing the pipeline"`
	ImageURL  string   `json:"image_url,omitempty" validate:"omitempty,url" example:"https://cdn.example.com/a.jpg"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	IsPrivate bool     `json:"is_private,omitempty"`
}

// URLs merges the single and list image fields, single wins when both
// are present so a caller cannot accidentally double-publish an image
func (in PublishInput) URLs() []string {
	if in.ImageURL != "" {
		return []string{in.ImageURL}
	}
	return in.ImageURLs
}

// PublishResult is the success body for a published note
type PublishResult struct {
	Success bool   `json:"success"`
	NoteID  string `json:"note_id"`
	NoteURL string `json:"note_url"`
}

// AuditEntry is one recorded publish outcome
type AuditEntry struct {
	NoteID     string    `json:"note_id,omitempty"`
	Title      string    `json:"title"`
	Success    bool      `json:"success"`
	ErrorType  string    `json:"error_type,omitempty"`
	XHSCode    int       `json:"xhs_code,omitempty"`
	ImageCount int       `json:"image_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditSummary aggregates the audit trail for operators
type AuditSummary struct {
	Total    int64        `json:"total"`
	Failures int64        `json:"failures"`
	Recent   []AuditEntry `json:"recent"`
}

// Failure is the error body shared by every failing publish response
type Failure struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error"`
	ErrorType   string   `json:"error_type,omitempty"`
	Message     string   `json:"message,omitempty"`
	Hint        string   `json:"hint,omitempty"`
	XHSCode     *int     `json:"xhs_code,omitempty"`
	XHSMsg      string   `json:"xhs_msg,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
