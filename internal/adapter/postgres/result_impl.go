package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/site-auditor/internal/entity"
)

// ResultRepoImpl provides a concrete implementation for the ResultRepository interface using PostgreSQL.
type ResultRepoImpl struct {
	db *pgxpool.Pool
}

// NewResultRepo creates a new instance of ResultRepoImpl.
func NewResultRepo(db *pgxpool.Pool) *ResultRepoImpl {
	return &ResultRepoImpl{db: db}
}

// Upsert stores or replaces the analysis result for a site.
func (r *ResultRepoImpl) Upsert(ctx context.Context, siteID int64, result *entity.AnalysisResult) error {
	details, err := json.Marshal(result.Checks)
	if err != nil {
		return fmt.Errorf("encode checks: %w", err)
	}

	query := `
		INSERT INTO analysis_results (site_id, score, technologies, details, analyzed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (site_id) DO UPDATE SET
			score = EXCLUDED.score,
			technologies = EXCLUDED.technologies,
			details = EXCLUDED.details,
			analyzed_at = NOW();
	`
	_, err = r.db.Exec(ctx, query,
		siteID,
		result.Score,
		strings.Join(result.Technologies, ", "),
		details,
	)
	if err != nil {
		return fmt.Errorf("upsert result for site %d: %w", siteID, err)
	}
	return nil
}

const reportColumns = `
	s.id,
	s.domain,
	'https://' || s.domain,
	a.score::float8,
	a.technologies,
	a.details,
	a.analyzed_at
`

// ListReports returns every site with its result, if any.
func (r *ResultRepoImpl) ListReports(ctx context.Context) ([]*entity.SiteReport, error) {
	query := `SELECT` + reportColumns + `
		FROM sites s
		LEFT JOIN analysis_results a ON s.id = a.site_id
		ORDER BY s.id ASC;`
	return r.queryReports(ctx, query)
}

// ListAnalyzed returns only sites that have a stored result.
func (r *ResultRepoImpl) ListAnalyzed(ctx context.Context) ([]*entity.SiteReport, error) {
	query := `SELECT` + reportColumns + `
		FROM sites s
		INNER JOIN analysis_results a ON s.id = a.site_id
		ORDER BY s.id ASC;`
	return r.queryReports(ctx, query)
}

func (r *ResultRepoImpl) queryReports(ctx context.Context, query string) ([]*entity.SiteReport, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	reports, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.SiteReport, error) {
		var rep entity.SiteReport
		var details []byte
		if err := row.Scan(
			&rep.ID,
			&rep.Site,
			&rep.URL,
			&rep.Score,
			&rep.Technologies,
			&details,
			&rep.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		if details != nil {
			rep.Details = json.RawMessage(details)
		}
		return &rep, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan reports: %w", err)
	}
	return reports, nil
}
