package repository

import (
	"context"

	"github.com/user/site-auditor/internal/entity"
)

// The check stages below never return errors: a failure is recorded in the
// stage's own flags, so one stage can never block another.

// TechDetector fingerprints the technologies a page is built with.
type TechDetector interface {
	Detect(ctx context.Context, url string) ([]string, entity.TechFlags)
}

// TLSProber inspects the certificate served on the host's TLS port.
type TLSProber interface {
	Probe(ctx context.Context, host string) entity.TLSFlags
}

// HeaderAuditor inspects response headers and body for transport security.
type HeaderAuditor interface {
	Audit(ctx context.Context, url string) entity.HeaderFlags
}

// DomainAuthChecker inspects TXT records for SPF and DMARC declarations.
type DomainAuthChecker interface {
	Check(ctx context.Context, domain string) entity.AuthFlags
}

// PageRenderer loads the page in a headless browser and inspects the DOM.
type PageRenderer interface {
	Render(ctx context.Context, url string) entity.RenderFlags
}
