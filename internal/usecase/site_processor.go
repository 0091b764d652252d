package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/internal/repository"
)

// ErrPersist wraps a failure to store a result. The site stays in the backlog.
var ErrPersist = errors.New("persist result")

// SiteProcessor analyzes one site and stores the outcome.
type SiteProcessor struct {
	analyzer Analyzer
	sites    repository.SiteRepository
	results  repository.ResultRepository
	now      func() time.Time
	logger   *zap.Logger
}

// NewSiteProcessor creates a processor shared by batch and single-site runs.
func NewSiteProcessor(analyzer Analyzer, sites repository.SiteRepository, results repository.ResultRepository, logger *zap.Logger) *SiteProcessor {
	return &SiteProcessor{
		analyzer: analyzer,
		sites:    sites,
		results:  results,
		now:      time.Now,
		logger:   logger,
	}
}

// Process runs the pipeline against target and persists the result for
// siteID. Once started, the pipeline and the write are not interrupted by
// ctx cancellation. The site is marked analyzed only after a successful upsert.
func (p *SiteProcessor) Process(ctx context.Context, siteID int64, target string) (*entity.AnalysisResult, error) {
	ctx = context.WithoutCancel(ctx)

	result, err := p.analyzer.Analyze(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := p.results.Upsert(ctx, siteID, result); err != nil {
		p.logger.Error("error saving result", zap.Int64("site_id", siteID), zap.Error(err))
		return result, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	if err := p.sites.MarkAnalyzed(ctx, siteID, p.now()); err != nil {
		p.logger.Error("error marking site analyzed", zap.Int64("site_id", siteID), zap.Error(err))
		return result, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return result, nil
}
