// Package airtable lists records from Airtable tables.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Airtable REST API host.
	DefaultBaseURL = "https://api.airtable.com"

	// Airtable allows 5 requests per second per base.
	defaultRPS = 5
	pageSize   = 100
)

// Record is one Airtable row.
type Record struct {
	ID          string                 `json:"id"`
	CreatedTime string                 `json:"createdTime"`
	Fields      map[string]interface{} `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client reads tables from one Airtable base.
type Client struct {
	baseURL    string
	apiKey     string
	baseID     string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient creates a client. rps <= 0 uses the Airtable default of 5.
func NewClient(baseURL, apiKey, baseID string, rps float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rps <= 0 {
		rps = defaultRPS
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		baseID:  baseID,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether the client has credentials and a base.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.baseID != ""
}

// ListRecords returns every record of table, following offset pagination
// until Airtable stops returning an offset.
func (c *Client) ListRecords(ctx context.Context, table string) ([]Record, error) {
	var (
		all    []Record
		offset string
	)

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		page, err := c.listPage(ctx, table, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)

		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	return all, nil
}

func (c *Client) listPage(ctx context.Context, table, offset string) (*listResponse, error) {
	q := url.Values{}
	q.Set("pageSize", fmt.Sprint(pageSize))
	if offset != "" {
		q.Set("offset", offset)
	}
	endpoint := fmt.Sprintf("%s/v0/%s/%s?%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(table), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call airtable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Type != "" {
			return nil, fmt.Errorf("airtable returned status %d: %s: %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("airtable returned status %d", resp.StatusCode)
	}

	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &page, nil
}

// String returns the first field among names that holds a non-blank value,
// rendered as text.
func (r Record) String(names ...string) string {
	for _, name := range names {
		v, ok := r.Fields[name]
		if !ok || v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case float64:
			s = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			s = fmt.Sprint(val)
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			s = strings.Join(parts, ", ")
		default:
			s = fmt.Sprint(val)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
