package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/spreadsheets/d/sheet-1/export" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		assert.Equal(t, "42", r.URL.Query().Get("gid"))
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("a,b\n1,2\n"))
	}))
	defer server.Close()

	text, err := NewFetcher(server.URL).Fetch(context.Background(), "sheet-1", "42")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", text)
}

func TestFetcher_FetchWrappedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"a,b\n1,2"}`))
	}))
	defer server.Close()

	text, err := NewFetcher(server.URL).Fetch(context.Background(), "s", "0")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", text)
}

func TestFetcher_FetchNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewFetcher(server.URL).Fetch(context.Background(), "s", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetcher_FetchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewFetcher(url).Fetch(context.Background(), "s", "0")
	require.Error(t, err)
}
