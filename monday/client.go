// Package monday queries board items from the monday.com GraphQL API and
// turns them into completion metrics.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIURL is the monday.com GraphQL endpoint.
const DefaultAPIURL = "https://api.monday.com/v2"

const boardItemsQuery = `query ($boardIds: [ID!], $columnIds: [String!]) {
  boards(ids: $boardIds) {
    id
    name
    items_page(limit: 500) {
      items {
        id
        name
        column_values(ids: $columnIds) { id text }
      }
    }
  }
}`

// Item is one board row with the text of its status and timeline columns.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Timeline string `json:"timeline"`
}

// Board is a board and its items.
type Board struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		Boards []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			ItemsPage struct {
				Items []struct {
					ID           string `json:"id"`
					Name         string `json:"name"`
					ColumnValues []struct {
						ID   string `json:"id"`
						Text string `json:"text"`
					} `json:"column_values"`
				} `json:"items"`
			} `json:"items_page"`
		} `json:"boards"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	ErrorMessage string `json:"error_message"`
}

// Client talks to the monday.com API.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

// NewClient creates a client. An empty apiURL uses DefaultAPIURL.
func NewClient(apiURL, token string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		token:  token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether the client has an API token.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

// BoardItems fetches the items of one board with a single query, keeping the
// text of the status and timeline columns.
func (c *Client) BoardItems(ctx context.Context, boardID, statusCol, timelineCol string) (*Board, error) {
	payload, err := json.Marshal(graphQLRequest{
		Query: boardItemsQuery,
		Variables: map[string]interface{}{
			"boardIds":  []string{boardID},
			"columnIds": []string{statusCol, timelineCol},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)
	req.Header.Set("API-Version", "2024-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call monday: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("monday returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gql graphQLResponse
	if err := json.Unmarshal(body, &gql); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(gql.Errors) > 0 {
		return nil, fmt.Errorf("monday query failed: %s", gql.Errors[0].Message)
	}
	if gql.ErrorMessage != "" {
		return nil, fmt.Errorf("monday query failed: %s", gql.ErrorMessage)
	}
	if len(gql.Data.Boards) == 0 {
		return nil, fmt.Errorf("board %s not found", boardID)
	}

	b := gql.Data.Boards[0]
	board := &Board{ID: b.ID, Name: b.Name, Items: make([]Item, 0, len(b.ItemsPage.Items))}
	for _, it := range b.ItemsPage.Items {
		item := Item{ID: it.ID, Name: it.Name}
		for _, cv := range it.ColumnValues {
			switch cv.ID {
			case statusCol:
				item.Status = strings.TrimSpace(cv.Text)
			case timelineCol:
				item.Timeline = strings.TrimSpace(cv.Text)
			}
		}
		board.Items = append(board.Items, item)
	}

	return board, nil
}
