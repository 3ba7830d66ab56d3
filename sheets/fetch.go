package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Google Sheets host.
const DefaultBaseURL = "https://docs.google.com"

// Fetcher downloads tabs of public spreadsheets as CSV text.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher. An empty baseURL uses DefaultBaseURL.
func NewFetcher(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ExportURL builds the CSV export URL for one tab of a sheet.
func (f *Fetcher) ExportURL(sheetID, gid string) string {
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", gid)
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", f.baseURL, url.PathEscape(sheetID), q.Encode())
}

type wrappedCSV struct {
	CSV  string `json:"csv"`
	Data string `json:"data"`
}

// Fetch returns the CSV text of one tab. Any transport failure or non-200
// status is returned as an error. JSON bodies carrying the CSV in a "csv" or
// "data" field are unwrapped.
func (f *Fetcher) Fetch(ctx context.Context, sheetID, gid string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.ExportURL(sheetID, gid), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch sheet %s/%s: %w", sheetID, gid, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read sheet response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sheet %s/%s returned status %d", sheetID, gid, resp.StatusCode)
	}

	trimmed := bytes.TrimSpace(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") || bytes.HasPrefix(trimmed, []byte("{")) {
		var w wrappedCSV
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return "", fmt.Errorf("failed to decode wrapped csv: %w", err)
		}
		return FirstNonEmpty(w.CSV, w.Data), nil
	}

	return string(body), nil
}
