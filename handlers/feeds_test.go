package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/config"
	"studio/feeds"
	"studio/ingest"
)

const hrSheet = `Sr. No,Name,Designation,Department,Status,Date of Joining,Experience,Location,Email,Reporting Manager
1,Asha,Architect,Design,Active,2021-04-01,6,Mumbai,asha@studio.com,Vik
2,Neha,Intern,Design,TBJ,2025-01-01,0,Mumbai,,Asha
`

func feedEnv(t *testing.T) *testEnv {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/hr-sheet/"):
			w.Write([]byte(hrSheet))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	t.Cleanup(server.Close)

	cfg := testConfig()
	cfg.Sheets.BaseURL = server.URL
	cfg.Sheets.HR = config.SheetRef{SheetID: "hr-sheet", GID: "0"}
	cfg.Sheets.Buildings = config.SheetRef{SheetID: "down", GID: "0"}
	return newTestEnvWithConfig(t, cfg)
}

func TestFeedHR(t *testing.T) {
	env := feedEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(nil, http.MethodGet, "/api/hr", nil).Code)

	rec := env.do(env.member, http.MethodGet, "/api/hr", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[feeds.Result[ingest.Employee, ingest.HRSummary]](t, rec)
	assert.False(t, res.Degraded)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Asha", res.Records[0].Name)
	assert.Equal(t, 2, res.Summary.Total)
}

func TestFeedDegraded(t *testing.T) {
	env := feedEnv(t)

	rec := env.do(env.member, http.MethodGet, "/api/buildings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[feeds.Result[ingest.Building, ingest.BuildingSummary]](t, rec)
	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Records)
}

func TestFeedNotConfigured(t *testing.T) {
	env := feedEnv(t)

	for _, path := range []string{"/api/project-stats", "/api/pxt", "/api/flow-standards", "/api/monday-metrics"} {
		rec := env.do(env.member, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "not configured", path)
	}
}

func TestFeedOverview(t *testing.T) {
	env := feedEnv(t)

	rec := env.do(env.member, http.MethodGet, "/api/feeds/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[[]feeds.FeedStatus](t, rec)
	require.Len(t, out, len(feeds.Names))
	assert.Equal(t, feeds.FeedHR, out[0].Feed)
	assert.Equal(t, 2, out[0].Count)
	assert.True(t, out[1].Degraded)
	assert.False(t, out[2].Configured)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(nil, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}
