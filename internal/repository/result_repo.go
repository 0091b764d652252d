package repository

import (
	"context"

	"github.com/user/site-auditor/internal/entity"
)

// ResultRepository defines the interface for storing and reading analysis results.
type ResultRepository interface {
	// Upsert stores the result for a site. An existing row for the site is replaced
	// and its timestamp refreshed.
	Upsert(ctx context.Context, siteID int64, result *entity.AnalysisResult) error
	// ListReports returns every site with its result, if any, ordered by site id.
	ListReports(ctx context.Context) ([]*entity.SiteReport, error)
	// ListAnalyzed returns only sites that have a result, ordered by site id.
	ListAnalyzed(ctx context.Context) ([]*entity.SiteReport, error)
}
