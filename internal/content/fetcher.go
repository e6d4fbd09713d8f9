package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	appErr "github.com/abnzrdev/trainer/pkg/errors"
	"github.com/abnzrdev/trainer/pkg/utils/logger"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultMaxRetries   = 4
)

// FetcherConfig holds remote sample source settings.
type FetcherConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"maxRetries"`
}

// Fetcher pulls a problem's samples from the remote content source.
// Transient failures (network errors, 5xx) are retried with exponential
// backoff before a terminal error is surfaced.
type Fetcher struct {
	baseURL    string
	client     *http.Client
	maxRetries uint64
	clock      func() time.Time
}

// NewFetcher creates a fetcher for the configured base URL.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.BaseURL == "" {
		return nil, appErr.ValidationError("baseURL", "required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "invalid base URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	return &Fetcher{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		clock:      time.Now,
	}, nil
}

// Fetch retrieves the sample pack for one problem.
func (f *Fetcher) Fetch(ctx context.Context, contest, problemID string) (*SamplePack, error) {
	endpoint := fmt.Sprintf("%s/contests/%s/problems/%s/samples",
		f.baseURL, url.PathEscape(contest), url.PathEscape(problemID))

	var samples []Sample
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err // retryable: network failure
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(body, &samples); err != nil {
				return backoff.Permanent(
					appErr.Wrapf(err, appErr.SampleFetchFailed, "decode samples response failed"))
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(appErr.Newf(appErr.SamplesNotCached,
				"remote has no samples for contest=%q problem=%q", contest, problemID))
		case resp.StatusCode >= 500:
			return fmt.Errorf("remote returned %d", resp.StatusCode) // retryable
		default:
			return backoff.Permanent(appErr.Newf(appErr.SampleFetchFailed,
				"remote returned %d", resp.StatusCode))
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		logger.Warn(ctx, "sample fetch retrying",
			zap.String("contest", contest),
			zap.String("problem_id", problemID),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if appErr.Is(err, appErr.SamplesNotCached) || appErr.Is(err, appErr.SampleFetchFailed) {
			return nil, err
		}
		return nil, appErr.Wrapf(err, appErr.SampleFetchFailed,
			"fetch samples failed for contest=%q problem=%q", contest, problemID)
	}

	return &SamplePack{
		Contest:   contest,
		ProblemID: problemID,
		Samples:   samples,
		FetchedAt: f.clock().UTC(),
	}, nil
}
