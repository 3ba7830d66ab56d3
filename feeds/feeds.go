// Package feeds fetches the studio's external data sources, turns them into
// typed records with summaries and caches the results.
//
// A fetch failure never fails the request. The result comes back empty with
// Degraded set and the error message attached, so callers can show that the
// source is down instead of silently rendering zeros.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studio/airtable"
	"studio/cache"
	"studio/config"
	"studio/ingest"
	"studio/monday"
	"studio/sheets"
)

// ErrFeedNotConfigured is returned when a feed has no source configured.
var ErrFeedNotConfigured = errors.New("feed not configured")

// Feed names, also used as cache keys and by the ingest command.
const (
	FeedHR            = "hr"
	FeedBuildings     = "buildings"
	FeedProjectStats  = "project-stats"
	FeedPXT           = "pxt"
	FeedFlowStandards = "flow-standards"
	FeedMonday        = "monday"
)

// Names lists every feed.
var Names = []string{FeedHR, FeedBuildings, FeedProjectStats, FeedPXT, FeedFlowStandards, FeedMonday}

// Result is one feed's records and summary.
type Result[R any, S any] struct {
	Records   []R       `json:"records"`
	Summary   S         `json:"summary"`
	Degraded  bool      `json:"degraded"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Service loads feeds.
type Service struct {
	cfg      *config.Config
	sheets   *sheets.Fetcher
	airtable *airtable.Client
	monday   *monday.Client
	cache    cache.Cache
	logger   *zap.Logger
	now      func() time.Time
}

// NewService builds the feed clients from cfg. A nil cache disables caching.
func NewService(cfg *config.Config, c cache.Cache, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	s := &Service{
		cfg:    cfg,
		sheets: sheets.NewFetcher(cfg.Sheets.BaseURL),
		cache:  c,
		logger: logger.Named("feeds"),
		now:    time.Now,
	}
	if cfg.Airtable.APIKey != "" && cfg.Airtable.BaseID != "" {
		s.airtable = airtable.NewClient(cfg.Airtable.BaseURL, cfg.Airtable.APIKey, cfg.Airtable.BaseID, cfg.Airtable.RateLimit)
	}
	if cfg.Monday.Token != "" {
		s.monday = monday.NewClient(cfg.Monday.APIURL, cfg.Monday.Token)
	}
	return s
}

// load runs the cache, fetch, summarize, cache cycle shared by every feed.
func load[R any, S any](ctx context.Context, s *Service, key string, fetch func(context.Context) ([]R, error), summarize func([]R) S) (*Result[R, S], error) {
	var cached Result[R, S]
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("feed cache read failed", zap.String("feed", key), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	res := &Result[R, S]{FetchedAt: s.now().UTC()}
	records, err := fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrFeedNotConfigured) {
			return nil, err
		}
		s.logger.Warn("feed fetch failed", zap.String("feed", key), zap.Error(err))
		res.Degraded = true
		res.Error = err.Error()
		records = nil
	}
	if records == nil {
		records = []R{}
	}
	res.Records = records
	res.Summary = summarize(records)

	if !res.Degraded {
		if err := s.cache.Set(ctx, key, res, s.cfg.Cache.FeedTTL); err != nil {
			s.logger.Warn("feed cache write failed", zap.String("feed", key), zap.Error(err))
		}
	}
	return res, nil
}

// sheetText downloads one tab and logs any drift between its header and the
// columns the parser reads by position.
func (s *Service) sheetText(ctx context.Context, feed string, ref config.SheetRef, want map[int]string) (string, error) {
	if !ref.Configured() {
		return "", ErrFeedNotConfigured
	}
	text, err := s.sheets.Fetch(ctx, ref.SheetID, ref.GID)
	if err != nil {
		return "", err
	}
	if drift := sheets.CheckHeader(sheets.Header(text), want); len(drift) > 0 {
		s.logger.Warn("sheet header does not match column mapping",
			zap.String("feed", feed),
			zap.Strings("mismatches", drift),
		)
	}
	return text, nil
}

func (s *Service) HR(ctx context.Context) (*Result[ingest.Employee, ingest.HRSummary], error) {
	return load(ctx, s, FeedHR, func(ctx context.Context) ([]ingest.Employee, error) {
		text, err := s.sheetText(ctx, FeedHR, s.cfg.Sheets.HR, ingest.HRHeader)
		if err != nil {
			return nil, err
		}
		return ingest.ParseHR(text), nil
	}, ingest.SummarizeHR)
}

func (s *Service) Buildings(ctx context.Context) (*Result[ingest.Building, ingest.BuildingSummary], error) {
	return load(ctx, s, FeedBuildings, func(ctx context.Context) ([]ingest.Building, error) {
		text, err := s.sheetText(ctx, FeedBuildings, s.cfg.Sheets.Buildings, ingest.BuildingHeader)
		if err != nil {
			return nil, err
		}
		return ingest.ParseBuildings(text), nil
	}, ingest.SummarizeBuildings)
}

func (s *Service) ProjectStats(ctx context.Context) (*Result[ingest.ProjectStat, ingest.ProjectStatsSummary], error) {
	return load(ctx, s, FeedProjectStats, func(ctx context.Context) ([]ingest.ProjectStat, error) {
		text, err := s.sheetText(ctx, FeedProjectStats, s.cfg.Sheets.ProjectStats, ingest.ProjectStatsHeader)
		if err != nil {
			return nil, err
		}
		return ingest.ParseProjectStats(text), nil
	}, ingest.SummarizeProjectStats)
}

func (s *Service) PXT(ctx context.Context) (*Result[ingest.PXTEntry, ingest.PXTSummary], error) {
	return load(ctx, s, FeedPXT, func(ctx context.Context) ([]ingest.PXTEntry, error) {
		text, err := s.sheetText(ctx, FeedPXT, s.cfg.Sheets.PXT, ingest.PXTHeader)
		if err != nil {
			return nil, err
		}
		return ingest.ParsePXT(text), nil
	}, ingest.SummarizePXT)
}

func (s *Service) FlowStandards(ctx context.Context) (*Result[ingest.FlowStandard, ingest.FlowStandardsSummary], error) {
	return load(ctx, s, FeedFlowStandards, func(ctx context.Context) ([]ingest.FlowStandard, error) {
		if !s.airtable.Configured() {
			return nil, ErrFeedNotConfigured
		}
		records, err := s.airtable.ListRecords(ctx, s.cfg.Airtable.FlowTable)
		if err != nil {
			return nil, err
		}
		return ingest.FlowStandardsFromAirtable(records), nil
	}, ingest.SummarizeFlowStandards)
}

// MondaySummary rolls the per-board metrics up across boards.
type MondaySummary struct {
	Boards            int     `json:"boards"`
	Total             int     `json:"total"`
	Done              int     `json:"done"`
	Working           int     `json:"working"`
	Stuck             int     `json:"stuck"`
	NotStarted        int     `json:"not_started"`
	Overdue           int     `json:"overdue"`
	CompletionPercent float64 `json:"completion_percent"`
}

func summarizeMonday(boards []monday.Metrics) MondaySummary {
	var s MondaySummary
	for _, m := range boards {
		s.Boards++
		s.Total += m.Total
		s.Done += m.Done
		s.Working += m.Working
		s.Stuck += m.Stuck
		s.NotStarted += m.NotStarted
		s.Overdue += m.Overdue
	}
	s.CompletionPercent = monday.Percent(s.Done, s.Total)
	return s
}

// Monday loads metrics for every configured board. Boards are queried
// concurrently; any board failing degrades the whole result.
func (s *Service) Monday(ctx context.Context) (*Result[monday.Metrics, MondaySummary], error) {
	return load(ctx, s, FeedMonday, func(ctx context.Context) ([]monday.Metrics, error) {
		boardIDs := s.cfg.Monday.BoardIDs
		if !s.monday.Configured() || len(boardIDs) == 0 {
			return nil, ErrFeedNotConfigured
		}

		metrics := make([]monday.Metrics, len(boardIDs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, id := range boardIDs {
			i, id := i, id
			g.Go(func() error {
				board, err := s.monday.BoardItems(gctx, id, s.cfg.Monday.StatusColumn, s.cfg.Monday.TimelineColumn)
				if err != nil {
					return fmt.Errorf("board %s: %w", id, err)
				}
				metrics[i] = monday.Summarize(board, s.now())
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return metrics, nil
	}, summarizeMonday)
}

// FeedStatus is one feed's entry in the overview.
type FeedStatus struct {
	Feed       string      `json:"feed"`
	Configured bool        `json:"configured"`
	Degraded   bool        `json:"degraded"`
	Error      string      `json:"error,omitempty"`
	Count      int         `json:"count"`
	Summary    interface{} `json:"summary,omitempty"`
}

func status[R any, S any](feed string, res *Result[R, S], err error) FeedStatus {
	st := FeedStatus{Feed: feed}
	if errors.Is(err, ErrFeedNotConfigured) {
		return st
	}
	st.Configured = true
	if err != nil {
		st.Degraded = true
		st.Error = err.Error()
		return st
	}
	st.Degraded = res.Degraded
	st.Error = res.Error
	st.Count = len(res.Records)
	st.Summary = res.Summary
	return st
}

// Overview loads every feed concurrently and returns their summaries in
// Names order. Individual feed failures are reported per feed.
func (s *Service) Overview(ctx context.Context) ([]FeedStatus, error) {
	out := make([]FeedStatus, len(Names))
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := s.HR(ctx)
		out[0] = status(FeedHR, res, err)
		return nil
	})
	g.Go(func() error {
		res, err := s.Buildings(ctx)
		out[1] = status(FeedBuildings, res, err)
		return nil
	})
	g.Go(func() error {
		res, err := s.ProjectStats(ctx)
		out[2] = status(FeedProjectStats, res, err)
		return nil
	})
	g.Go(func() error {
		res, err := s.PXT(ctx)
		out[3] = status(FeedPXT, res, err)
		return nil
	})
	g.Go(func() error {
		res, err := s.FlowStandards(ctx)
		out[4] = status(FeedFlowStandards, res, err)
		return nil
	})
	g.Go(func() error {
		res, err := s.Monday(ctx)
		out[5] = status(FeedMonday, res, err)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load returns the named feed's result as an untyped value, for callers
// that only serialize it.
func (s *Service) Load(ctx context.Context, feed string) (interface{}, error) {
	switch feed {
	case FeedHR:
		return s.HR(ctx)
	case FeedBuildings:
		return s.Buildings(ctx)
	case FeedProjectStats:
		return s.ProjectStats(ctx)
	case FeedPXT:
		return s.PXT(ctx)
	case FeedFlowStandards:
		return s.FlowStandards(ctx)
	case FeedMonday:
		return s.Monday(ctx)
	default:
		return nil, fmt.Errorf("unknown feed %q", feed)
	}
}
