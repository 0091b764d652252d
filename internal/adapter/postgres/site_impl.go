package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/internal/repository"
)

// SiteRepoImpl provides a concrete implementation for the SiteRepository interface using PostgreSQL.
type SiteRepoImpl struct {
	db *pgxpool.Pool
}

// NewSiteRepo creates a new instance of SiteRepoImpl.
func NewSiteRepo(db *pgxpool.Pool) *SiteRepoImpl {
	return &SiteRepoImpl{db: db}
}

// ClaimPending retrieves the next batch of unanalyzed sites after afterID.
func (r *SiteRepoImpl) ClaimPending(ctx context.Context, afterID int64, limit int) ([]*entity.Site, error) {
	query := `
		SELECT id, domain, url, analyzed, analyzed_at
		FROM sites
		WHERE analyzed = FALSE AND id > $1
		ORDER BY id ASC
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending sites: %w", err)
	}
	defer rows.Close()

	var sites []*entity.Site
	for rows.Next() {
		var s entity.Site
		if err := rows.Scan(&s.ID, &s.Domain, &s.URL, &s.Analyzed, &s.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, &s)
	}
	return sites, rows.Err()
}

// FindByID retrieves a single site.
func (r *SiteRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Site, error) {
	query := `SELECT id, domain, url, analyzed, analyzed_at FROM sites WHERE id = $1;`

	var s entity.Site
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Domain, &s.URL, &s.Analyzed, &s.AnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrSiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find site %d: %w", id, err)
	}
	return &s, nil
}

// MarkAnalyzed flags a site as processed.
func (r *SiteRepoImpl) MarkAnalyzed(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE sites SET analyzed = TRUE, analyzed_at = $2 WHERE id = $1;`
	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark site %d analyzed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrSiteNotFound
	}
	return nil
}

// ResetBacklog clears every result and marks every site pending within a single transaction.
func (r *SiteRepoImpl) ResetBacklog(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM analysis_results;`); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE sites SET analyzed = FALSE;`); err != nil {
		return fmt.Errorf("reset sites: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}
