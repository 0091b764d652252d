package repository

import (
	"context"
	"io"
	"time"

	"github.com/user/site-auditor/internal/entity"
)

// RunLock guards work that must not run twice at once.
type RunLock interface {
	// Acquire returns false when the key is already held. The token identifies
	// this holder in Refresh and Release.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Refresh extends the hold by ttl and returns false if token lost the key.
	Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Release is a no-op when token no longer owns the key.
	Release(ctx context.Context, key, token string) error
}

// EventPublisher fans run progress out to whoever is watching.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.RunEvent) error
	// Recent returns up to n events, oldest first.
	Recent(ctx context.Context, n int64) ([]entity.RunEvent, error)
}

// ReportExporter renders reports into a downloadable document.
type ReportExporter interface {
	ContentType() string
	FileName() string
	Export(w io.Writer, reports []*entity.SiteReport) error
}
