package dto

import (
	"encoding/json"
	"time"
)

type CreateEmailTemplateRequest struct {
	Name      string   `json:"name" validate:"required,min=1,max=100"`
	Subject   string   `json:"subject" validate:"required,max=255"`
	Body      string   `json:"body" validate:"required"`
	Variables []string `json:"variables"`
	IsActive  *bool    `json:"isActive"`
}

type UpdateEmailTemplateRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Subject   *string  `json:"subject" validate:"omitempty,max=255"`
	Body      *string  `json:"body"`
	Variables []string `json:"variables"`
	IsActive  *bool    `json:"isActive"`
}

type PreviewTemplateRequest struct {
	Variables map[string]string `json:"variables"`
}

type PreviewTemplateResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SendTestEmailRequest struct {
	To        string            `json:"to" validate:"required,email"`
	Variables map[string]string `json:"variables"`
}

type SendTestEmailResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type SiteConfigRequest struct {
	Value    json.RawMessage `json:"value" validate:"required"`
	IsPublic *bool           `json:"isPublic"`
}

type CreateBlogPostRequest struct {
	Slug      string `json:"slug" validate:"required,min=1,max=200,is-slug"`
	Title     string `json:"title" validate:"required,min=1,max=200"`
	Excerpt   string `json:"excerpt" validate:"max=500"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

type UpdateBlogPostRequest struct {
	Slug      *string `json:"slug" validate:"omitempty,min=1,max=200,is-slug"`
	Title     *string `json:"title" validate:"omitempty,min=1,max=200"`
	Excerpt   *string `json:"excerpt" validate:"omitempty,max=500"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

type BlogPostSummary struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	PublishedAt *time.Time `json:"publishedAt"`
}
