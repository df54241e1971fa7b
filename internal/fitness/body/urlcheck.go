package body

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// URLChecker does a HEAD probe against a photo URL to catch dead links
// early. Failures are advisory, the caller decides whether to care.
type URLChecker struct {
	httpClient *http.Client
}

func NewURLChecker() *URLChecker {
	return &URLChecker{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   5 * time.Second,
		},
	}
}

func (c *URLChecker) Check(ctx context.Context, photoURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, photoURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("head %s: %w", photoURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("head %s: status %d", photoURL, resp.StatusCode)
	}

	return nil
}
