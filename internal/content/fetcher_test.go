package content_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/abnzrdev/trainer/internal/content"
	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

func TestNewFetcher_RequiresBaseURL(t *testing.T) {
	if _, err := content.NewFetcher(content.FetcherConfig{}); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"in":"5\n","out":"25\n"},{"in":"6\n","out":"36\n"}]`))
	}))
	defer server.Close()

	fetcher, err := content.NewFetcher(content.FetcherConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	pack, err := fetcher.Fetch(context.Background(), "abc300", "2")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pack.Contest != "abc300" || pack.ProblemID != "2" {
		t.Errorf("pack identity = %s/%s", pack.Contest, pack.ProblemID)
	}
	if len(pack.Samples) != 2 || pack.Samples[1].Output != "36\n" {
		t.Errorf("samples = %+v", pack.Samples)
	}
	if pack.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestFetcher_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"in":"1\n","out":"1\n"}]`))
	}))
	defer server.Close()

	fetcher, err := content.NewFetcher(content.FetcherConfig{BaseURL: server.URL, MaxRetries: 5})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	pack, err := fetcher.Fetch(context.Background(), "abc300", "1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(pack.Samples) != 1 {
		t.Errorf("samples = %+v", pack.Samples)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestFetcher_NotFoundIsPermanent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher, err := content.NewFetcher(content.FetcherConfig{BaseURL: server.URL, MaxRetries: 5})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), "abc300", "404")
	if !appErr.Is(err, appErr.SamplesNotCached) {
		t.Errorf("error = %v, want SamplesNotCached", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("404 should not be retried, got %d calls", got)
	}
}

func TestFetcher_ClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher, err := content.NewFetcher(content.FetcherConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), "abc300", "1")
	if !appErr.Is(err, appErr.SampleFetchFailed) {
		t.Errorf("error = %v, want SampleFetchFailed", err)
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher, err := content.NewFetcher(content.FetcherConfig{BaseURL: server.URL, MaxRetries: 20})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fetcher.Fetch(ctx, "abc300", "1"); err == nil {
		t.Error("expected error with cancelled context")
	}
}
