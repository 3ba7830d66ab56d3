package monday

import (
	"math"
	"strings"
	"time"
)

// Status buckets used by Summarize.
const (
	BucketDone       = "done"
	BucketWorking    = "working"
	BucketStuck      = "stuck"
	BucketNotStarted = "not_started"
	BucketOther      = "other"
)

// Metrics summarizes the progress of one board.
type Metrics struct {
	BoardID           string         `json:"board_id"`
	BoardName         string         `json:"board_name"`
	Total             int            `json:"total"`
	Done              int            `json:"done"`
	Working           int            `json:"working"`
	Stuck             int            `json:"stuck"`
	NotStarted        int            `json:"not_started"`
	Other             int            `json:"other"`
	Overdue           int            `json:"overdue"`
	CompletionPercent float64        `json:"completion_percent"`
	ByStatus          map[string]int `json:"by_status"`
}

// Bucket classifies a status label. Negated labels such as "Not done" or
// "Incomplete" never count as done.
func Bucket(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	negated := strings.HasPrefix(s, "not ") || strings.Contains(s, " not ") ||
		strings.Contains(s, "incomplete") || strings.Contains(s, "undone")
	switch {
	case s == "":
		return BucketNotStarted
	case negated && (strings.Contains(s, "done") || strings.Contains(s, "complete")):
		return BucketNotStarted
	case strings.Contains(s, "done"), strings.Contains(s, "complete"):
		return BucketDone
	case strings.Contains(s, "stuck"), strings.Contains(s, "blocked"):
		return BucketStuck
	case strings.Contains(s, "working"), strings.Contains(s, "progress"), strings.Contains(s, "review"):
		return BucketWorking
	case strings.Contains(s, "not started"), strings.Contains(s, "to do"), strings.Contains(s, "todo"):
		return BucketNotStarted
	default:
		return BucketOther
	}
}

// TimelineEnd parses the end date of a timeline column text such as
// "2024-01-01 - 2024-02-15". A single date is both start and end.
func TimelineEnd(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	end := text
	if i := strings.LastIndex(text, " - "); i >= 0 {
		end = text[i+3:]
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Summarize computes completion metrics for board as of now. An item is
// overdue when its timeline ended before now's date and it is not done.
func Summarize(board *Board, now time.Time) Metrics {
	m := Metrics{ByStatus: map[string]int{}}
	if board == nil {
		return m
	}
	m.BoardID = board.ID
	m.BoardName = board.Name

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, item := range board.Items {
		m.Total++
		label := item.Status
		if label == "" {
			label = "(none)"
		}
		m.ByStatus[label]++

		bucket := Bucket(item.Status)
		switch bucket {
		case BucketDone:
			m.Done++
		case BucketWorking:
			m.Working++
		case BucketStuck:
			m.Stuck++
		case BucketNotStarted:
			m.NotStarted++
		default:
			m.Other++
		}

		if bucket != BucketDone {
			if end, ok := TimelineEnd(item.Timeline); ok && end.Before(today) {
				m.Overdue++
			}
		}
	}

	m.CompletionPercent = Percent(m.Done, m.Total)
	return m
}

// Percent returns done as a percentage of total with one decimal, or 0 when
// total is 0.
func Percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*1000) / 10
}
