package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"newsforge/internal/api"
	"newsforge/internal/config"
)

// apiClient talks to the daemon's HTTP API with a bearer token minted from
// the configured credentials.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func dialAPI(cfg *config.Config) (*apiClient, error) {
	client := &apiClient{
		baseURL:    "http://" + strings.TrimSpace(cfg.Paths.APIBind),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if err := client.login(cfg.Auth.Username, cfg.Auth.Password); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *apiClient) login(username, password string) error {
	var out api.LoginResponse
	err := c.call(http.MethodPost, "/auth/login", api.LoginRequest{
		Username: username,
		Password: password,
	}, &out)
	if err != nil {
		return wrapDialError(err, c.baseURL)
	}
	c.token = out.Token
	return nil
}

func wrapDialError(err error, baseURL string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `newsforge daemon`", baseURL)
	}
	return err
}

// apiError carries the server's error envelope back to the terminal.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (c *apiClient) call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope api.ErrorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil && envelope.Error.Message != "" {
			return &apiError{Status: resp.StatusCode, Message: envelope.Error.Message}
		}
		return &apiError{Status: resp.StatusCode}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) CreateJob(req api.CreateJobRequest) (api.JobView, error) {
	var out api.JobView
	err := c.call(http.MethodPost, "/jobs", req, &out)
	return out, err
}

func (c *apiClient) ListJobs(query url.Values) (api.ListJobsResponse, error) {
	path := "/jobs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var out api.ListJobsResponse
	err := c.call(http.MethodGet, path, nil, &out)
	return out, err
}

func (c *apiClient) GetJob(id string) (api.JobView, error) {
	var out api.JobView
	err := c.call(http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *apiClient) DeleteJob(id string) error {
	return c.call(http.MethodDelete, "/jobs/"+url.PathEscape(id), nil, nil)
}

func (c *apiClient) Publish(id string) (api.PublishResponse, error) {
	var out api.PublishResponse
	err := c.call(http.MethodPost, "/jobs/"+url.PathEscape(id)+"/publish", nil, &out)
	return out, err
}

// Health fetches /health; a degraded response is returned alongside the
// payload rather than as an error.
func (c *apiClient) Health() (api.HealthResponse, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return api.HealthResponse{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return api.HealthResponse{}, err
	}
	defer resp.Body.Close()

	var out api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return api.HealthResponse{}, fmt.Errorf("decode health: %w", err)
	}
	return out, nil
}
