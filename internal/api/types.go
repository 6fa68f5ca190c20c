package api

import (
	"time"

	"newsforge/internal/jobs"
)

// JobView is the wire representation of a job.
type JobView struct {
	ID               string            `json:"id"`
	Topic            string            `json:"topic"`
	Language         string            `json:"language,omitempty"`
	RequestedLength  int               `json:"requestedLength"`
	Category         string            `json:"category,omitempty"`
	Country          string            `json:"country,omitempty"`
	VoiceID          string            `json:"voiceId,omitempty"`
	VideoTheme       string            `json:"videoTheme,omitempty"`
	PublishRequested bool              `json:"publishRequested"`
	Status           string            `json:"status"`
	Steps            []StepView        `json:"steps,omitempty"`
	Artifacts        map[string]string `json:"artifacts,omitempty"`
	Articles         []ArticleView     `json:"articles,omitempty"`
	ExternalURL      string            `json:"externalUrl,omitempty"`
	ExternalID       string            `json:"externalId,omitempty"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
	CreatedBy        string            `json:"createdBy,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	StartedAt        *time.Time        `json:"startedAt,omitempty"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
}

// StepView is the wire representation of one pipeline step.
type StepView struct {
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// ArticleView is the wire representation of a stored source article.
type ArticleView struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url,omitempty"`
	SourceName  string     `json:"sourceName,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// FromJob converts a stored job into its wire form.
func FromJob(job *jobs.Job) JobView {
	view := JobView{
		ID:               job.ID,
		Topic:            job.Topic,
		Language:         job.Language,
		RequestedLength:  job.RequestedLength,
		Category:         job.Category,
		Country:          job.Country,
		VoiceID:          job.VoiceID,
		VideoTheme:       job.VideoTheme,
		PublishRequested: job.PublishRequested,
		Status:           string(job.Status),
		ExternalURL:      job.ExternalURL,
		ExternalID:       job.ExternalID,
		ErrorMessage:     job.ErrorMessage,
		CreatedBy:        job.CreatedBy,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        job.UpdatedAt,
		StartedAt:        job.StartedAt,
		CompletedAt:      job.CompletedAt,
	}
	for _, step := range job.Steps {
		view.Steps = append(view.Steps, StepView{
			Name:         string(step.Name),
			Status:       string(step.Status),
			StartedAt:    step.StartedAt,
			CompletedAt:  step.CompletedAt,
			ErrorMessage: step.ErrorMessage,
		})
	}
	if len(job.Artifacts) > 0 {
		view.Artifacts = make(map[string]string, len(job.Artifacts))
		for kind, ref := range job.Artifacts {
			view.Artifacts[string(kind)] = ref
		}
	}
	return view
}

// FromArticles converts stored articles into wire form.
func FromArticles(articles []jobs.Article) []ArticleView {
	views := make([]ArticleView, 0, len(articles))
	for _, article := range articles {
		views = append(views, ArticleView{
			Title:       article.Title,
			Description: article.Description,
			URL:         article.URL,
			SourceName:  article.SourceName,
			PublishedAt: article.PublishedAt,
		})
	}
	return views
}

// CreateJobRequest is the POST /jobs payload.
type CreateJobRequest struct {
	Topic            string `json:"topic"`
	Language         string `json:"language"`
	RequestedLength  int    `json:"requestedLength"`
	Category         string `json:"category"`
	Country          string `json:"country"`
	VoiceID          string `json:"voiceId"`
	VideoTheme       string `json:"videoTheme"`
	PublishRequested bool   `json:"publishRequested"`
}

// ListJobsResponse is the GET /jobs payload.
type ListJobsResponse struct {
	Jobs       []JobView  `json:"jobs"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// PublishResponse is the POST /jobs/{id}/publish payload.
type PublishResponse struct {
	VideoURL string `json:"videoUrl"`
	VideoID  string `json:"videoId"`
}

// LoginRequest is the POST /auth/login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string `json:"token"`
	User      string `json:"user"`
	ExpiresIn int    `json:"expiresIn"`
}

// ErrorBody is the stable error envelope for all failure responses.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the failure description inside the envelope.
type ErrorDetail struct {
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}
