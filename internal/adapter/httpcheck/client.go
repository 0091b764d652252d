// Package httpcheck holds the check stages that work off a plain HTTP GET.
package httpcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxBodyBytes caps how much of a page is read into memory.
const maxBodyBytes = 8 << 20

// Identity is the request identity presented to audited sites.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
}

func (id Identity) apply(req *http.Request) {
	if id.UserAgent != "" {
		req.Header.Set("User-Agent", id.UserAgent)
	}
	if id.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", id.AcceptLanguage)
	}
}

type page struct {
	status    int
	header    http.Header
	body      string
	truncated bool
}

// fetch performs a GET and returns status, headers and the (capped) body.
// Non-2xx statuses are returned as data.
func fetch(ctx context.Context, client *http.Client, id Identity, url string, logger *zap.Logger) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	id.apply(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	truncated := len(body) > maxBodyBytes
	if truncated {
		body = body[:maxBodyBytes]
		logger.Debug("response body truncated, scanning the first part only",
			zap.String("url", url), zap.Int("limit_bytes", maxBodyBytes))
	}
	return &page{status: resp.StatusCode, header: resp.Header, body: string(body), truncated: truncated}, nil
}

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
