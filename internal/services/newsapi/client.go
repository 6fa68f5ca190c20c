package newsapi

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsforge/internal/config"
	"newsforge/internal/services"
	"newsforge/internal/services/restclient"
)

const serviceName = "newsapi"

// Article is one story returned by the news source.
type Article struct {
	Title       string
	Description string
	Content     string
	URL         string
	SourceName  string
	PublishedAt *time.Time
}

// Service defines the news source operations used by discovery and the
// fetch stage.
type Service interface {
	TopHeadlines(ctx context.Context, category, country string, max int) ([]Article, error)
	Search(ctx context.Context, query string, max int) ([]Article, error)
	Health(ctx context.Context) error
}

// Client talks to a NewsAPI-compatible service.
type Client struct {
	rest *restclient.Client
}

// New constructs a news source client from config.
func New(cfg config.News, opts ...restclient.Option) *Client {
	options := []restclient.Option{
		restclient.WithAuthHeader("X-Api-Key"),
	}
	if cfg.TimeoutSeconds > 0 {
		options = append(options, restclient.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	options = append(options, opts...)
	return &Client{
		rest: restclient.New(serviceName, cfg.BaseURL, cfg.APIKey, options...),
	}
}

// TopHeadlines fetches current headlines for a category and country.
func (c *Client) TopHeadlines(ctx context.Context, category, country string, max int) ([]Article, error) {
	query := url.Values{}
	if category = strings.TrimSpace(category); category != "" {
		query.Set("category", category)
	}
	if country = strings.TrimSpace(country); country != "" {
		query.Set("country", country)
	}
	if max > 0 {
		query.Set("pageSize", strconv.Itoa(max))
	}
	return c.fetch(ctx, "top_headlines", "/top-headlines", query)
}

// Search runs a free-text query over recent articles, most relevant first.
func (c *Client) Search(ctx context.Context, query string, max int) ([]Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, serviceName, "search", "query required", nil)
	}
	values := url.Values{}
	values.Set("q", query)
	values.Set("sortBy", "relevancy")
	if max > 0 {
		values.Set("pageSize", strconv.Itoa(max))
	}
	return c.fetch(ctx, "search", "/everything", values)
}

// Health issues a minimal headline request to confirm reachability and
// credentials.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.TopHeadlines(ctx, "general", "", 1)
	return err
}

func (c *Client) fetch(ctx context.Context, operation, path string, query url.Values) ([]Article, error) {
	var resp articlesResponse
	if err := c.rest.Get(ctx, operation, path, query, &resp); err != nil {
		return nil, err
	}
	if !strings.EqualFold(resp.Status, "ok") {
		message := strings.TrimSpace(resp.Message)
		if message == "" {
			message = "status " + resp.Status
		}
		return nil, services.Wrap(services.ErrBadResponse, serviceName, operation, message, nil)
	}

	articles := make([]Article, 0, len(resp.Articles))
	for _, raw := range resp.Articles {
		title := strings.TrimSpace(raw.Title)
		if title == "" || strings.EqualFold(title, "[Removed]") {
			continue
		}
		article := Article{
			Title:       title,
			Description: strings.TrimSpace(raw.Description),
			Content:     strings.TrimSpace(raw.Content),
			URL:         strings.TrimSpace(raw.URL),
			SourceName:  strings.TrimSpace(raw.Source.Name),
		}
		if raw.PublishedAt != "" {
			if published, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
				utc := published.UTC()
				article.PublishedAt = &utc
			}
		}
		articles = append(articles, article)
	}
	return articles, nil
}

type articlesResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Message      string       `json:"message"`
	Articles     []rawArticle `json:"articles"`
}

type rawArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}
