package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsforge/internal/config"
	"newsforge/internal/services"
)

func newTestClient(serverURL string) *Client {
	return New(config.News{
		APIKey:  "test-key",
		BaseURL: serverURL,
	})
}

func TestTopHeadlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/top-headlines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key %q", got)
		}
		if got := r.URL.Query().Get("category"); got != "technology" {
			t.Errorf("unexpected category %q", got)
		}
		if got := r.URL.Query().Get("pageSize"); got != "3" {
			t.Errorf("unexpected pageSize %q", got)
		}
		_, _ = w.Write([]byte(`{
            "status": "ok",
            "totalResults": 2,
            "articles": [
                {
                    "source": {"id": "wired", "name": "Wired"},
                    "title": "Chips get faster",
                    "description": "A new fab opens.",
                    "url": "https://example.com/a",
                    "publishedAt": "2026-08-27T10:00:00Z",
                    "content": "Full text here."
                },
                {
                    "source": {"name": "Old Site"},
                    "title": "[Removed]",
                    "url": "https://example.com/gone"
                }
            ]
        }`))
	}))
	defer server.Close()

	articles, err := newTestClient(server.URL).TopHeadlines(context.Background(), "technology", "us", 3)
	if err != nil {
		t.Fatalf("top headlines: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected removed article filtered, got %d", len(articles))
	}
	article := articles[0]
	if article.Title != "Chips get faster" || article.SourceName != "Wired" {
		t.Fatalf("unexpected article: %+v", article)
	}
	if article.PublishedAt == nil {
		t.Fatal("expected parsed publishedAt")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	client := newTestClient("http://unused.example")
	if _, err := client.Search(context.Background(), "  ", 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestErrorStatusInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "message": "apiKeyInvalid"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "ai", 5)
	if !errors.Is(err, services.ErrBadResponse) {
		t.Fatalf("expected bad response, got %v", err)
	}
}

func TestUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	err := newTestClient(server.URL).Health(context.Background())
	if !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
