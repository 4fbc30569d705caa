// internal/client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MereWhiplash/semfind/internal/apitypes"
	"github.com/MereWhiplash/semfind/internal/types"
)

// Client is an HTTP client for the semfind API
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a new API client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	return c.http.Do(req)
}

// decode reads a successful response into out, or turns an error body back
// into a typed error
func decode(op string, resp *http.Response, want int, out interface{}) error {
	if resp.StatusCode != want {
		var errResp apitypes.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			return fmt.Errorf("API error: %s", resp.Status)
		}
		return apitypes.ErrorFromResponse(op, errResp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IndexFile asks the server to index a file on its filesystem
func (c *Client) IndexFile(ctx context.Context, path string) (*apitypes.IndexFileResponse, error) {
	resp, err := c.doRequest(ctx, "POST", "/v1/files", apitypes.IndexFileRequest{Path: path})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result apitypes.IndexFileResponse
	if err := decode("index_file", resp, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search returns the path of the best match for query
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	result, err := c.search(ctx, query, 1)
	if err != nil {
		return "", err
	}
	return result.Path, nil
}

// SearchN returns up to limit ranked matches for query
func (c *Client) SearchN(ctx context.Context, query string, limit int) ([]types.Match, error) {
	if limit <= 1 {
		limit = 2
	}
	result, err := c.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return result.Matches, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) (*apitypes.SearchResponse, error) {
	resp, err := c.doRequest(ctx, "POST", "/v1/search", apitypes.SearchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result apitypes.SearchResponse
	if err := decode("search", resp, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns indexed files, newest first
func (c *Client) List(ctx context.Context, limit, offset int) (*apitypes.ListResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/v1/files"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result apitypes.ListResponse
	if err := decode("list", resp, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "GET", "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result apitypes.HealthResponse
	return decode("health", resp, http.StatusOK, &result)
}
