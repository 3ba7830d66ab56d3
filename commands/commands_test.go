package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hrSheet = `Sr. No,Name,Designation,Department,Status,Date of Joining,Experience,Location,Email,Reporting Manager
1,Asha,Architect,Design,Active,2021-04-01,6,Mumbai,asha@studio.com,Vik
`

func runIngest(t *testing.T, args ...string) string {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(hrSheet))
	}))
	t.Cleanup(server.Close)

	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SHEETS_BASE_URL", server.URL)
	t.Setenv("HR_SHEET_ID", "roster")
	t.Setenv("BUILDINGS_SHEET_ID", "")
	t.Setenv("PROJECT_STATS_SHEET_ID", "")
	t.Setenv("PXT_SHEET_ID", "")
	t.Setenv("AIRTABLE_API_KEY", "")
	t.Setenv("MONDAY_API_TOKEN", "")

	color.NoColor = true
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"ingest"}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestIngestFeed(t *testing.T) {
	out := runIngest(t, "hr")

	var res struct {
		Records []struct {
			Name string `json:"name"`
		} `json:"records"`
		Degraded bool `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.False(t, res.Degraded)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Asha", res.Records[0].Name)
}

func TestIngestOverview(t *testing.T) {
	out := runIngest(t)

	assert.Contains(t, out, fmt.Sprintf("%-16s %s", "hr", "ok 1 records"))
	assert.Contains(t, out, fmt.Sprintf("%-16s %s", "monday", "not configured"))
}
