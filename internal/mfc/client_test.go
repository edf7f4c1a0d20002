package mfc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:   baseURL,
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	})
}

func TestClientLookupSuccess(t *testing.T) {
	var gotPath, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	record, err := client.Lookup(context.Background(), "1685257")
	require.NoError(t, err)

	require.Equal(t, "/item/1685257", gotPath)
	require.Equal(t, "test-agent", gotAgent)
	require.Equal(t, "Rem", record.Name)
	require.Equal(t, "2023-04", record.ReleaseDate)
	require.NotNil(t, record.Links)
	require.Equal(t, server.URL+"/item/1685257", record.Links.MFC)
}

func TestClientLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClientLookupUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "1")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestClientLookupChallenge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Just a moment...</title></head>
<body><script src="/cdn-cgi/challenge-platform/h/b/orchestrate"></script></body></html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "1")
	require.ErrorIs(t, err, ErrChallenge)
}

func TestClientLookupEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>blank</p></body></html>"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "1")
	require.ErrorIs(t, err, ErrEmpty)
}

func TestClientLookupUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "1")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestItemURL(t *testing.T) {
	client := NewClient(Config{})
	require.Equal(t, "https://myfigurecollection.net/item/42", client.ItemURL("42"))

	client = NewClient(Config{BaseURL: "https://mirror.example/"})
	require.Equal(t, "https://mirror.example/item/42", client.ItemURL("42"))
}
