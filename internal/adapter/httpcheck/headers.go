package httpcheck

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/entity"
)

var insecureRefPattern = regexp.MustCompile(`(?i)http://`)

// HeaderAuditor checks HSTS/CSP presence and plain-http references.
type HeaderAuditor struct {
	client *http.Client
	logger *zap.Logger
}

// NewHeaderAuditor creates an auditor with its own, shorter, request timeout.
func NewHeaderAuditor(timeout time.Duration, logger *zap.Logger) *HeaderAuditor {
	return &HeaderAuditor{client: newClient(timeout), logger: logger}
}

// Audit performs its own GET. When the request fails HeadersMissing is set
// and MixedContent is left absent.
func (a *HeaderAuditor) Audit(ctx context.Context, url string) entity.HeaderFlags {
	p, err := fetch(ctx, a.client, Identity{}, url, a.logger)
	if err != nil {
		a.logger.Warn("security header audit failed", zap.String("url", url), zap.Error(err))
		return entity.HeaderFlags{HeadersMissing: entity.Flag(true)}
	}
	return AnalyzeHeaders(p.header, p.body)
}

// AnalyzeHeaders derives the header flags from a response.
// Both HSTS and CSP must be present for HeadersMissing to be false.
func AnalyzeHeaders(header http.Header, body string) entity.HeaderFlags {
	hsts := header.Get("Strict-Transport-Security") != ""
	csp := header.Get("Content-Security-Policy") != ""
	return entity.HeaderFlags{
		HeadersMissing: entity.Flag(!(hsts && csp)),
		MixedContent:   entity.Flag(insecureRefPattern.MatchString(body)),
	}
}
