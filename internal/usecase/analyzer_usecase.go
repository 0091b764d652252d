package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/internal/repository"
	"github.com/user/site-auditor/internal/scoring"
	"github.com/user/site-auditor/pkg/metrics"
	"github.com/user/site-auditor/pkg/utils"
)

// ErrEmptyURL is returned when there is nothing to analyze.
var ErrEmptyURL = errors.New("empty url")

// Analyzer runs the full check pipeline against one URL.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*entity.AnalysisResult, error)
}

// Stages bundles the five independent check stages.
type Stages struct {
	Tech    repository.TechDetector
	TLS     repository.TLSProber
	Headers repository.HeaderAuditor
	Auth    repository.DomainAuthChecker
	Render  repository.PageRenderer
}

type analyzerUseCase struct {
	stages   Stages
	parallel bool
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAnalyzer creates the pipeline. With parallel set the stages of one site
// run concurrently; each writes only its own part of the flag-set.
func NewAnalyzer(stages Stages, parallel bool, m *metrics.Metrics, logger *zap.Logger) Analyzer {
	return &analyzerUseCase{
		stages:   stages,
		parallel: parallel,
		metrics:  m,
		logger:   logger,
	}
}

// Analyze normalizes rawURL, runs every stage and scores the flag-set.
// Stage failures end up as flags; the only error is an empty input.
func (uc *analyzerUseCase) Analyze(ctx context.Context, rawURL string) (*entity.AnalysisResult, error) {
	url, ok := utils.NormalizeURL(rawURL)
	if !ok {
		return nil, ErrEmptyURL
	}

	host, err := utils.Hostname(url)
	if err != nil {
		// The stages below surface this as their own failures.
		uc.logger.Warn("could not extract host", zap.String("url", url), zap.Error(err))
	}

	uc.logger.Info("analyzing site", zap.String("url", url))
	startTime := time.Now()

	var (
		techs  []string
		checks entity.Checks
	)
	steps := []func(context.Context){
		func(ctx context.Context) { techs, checks.TechFlags = uc.stages.Tech.Detect(ctx, url) },
		func(ctx context.Context) { checks.TLSFlags = uc.stages.TLS.Probe(ctx, host) },
		func(ctx context.Context) { checks.HeaderFlags = uc.stages.Headers.Audit(ctx, url) },
		func(ctx context.Context) { checks.AuthFlags = uc.stages.Auth.Check(ctx, utils.LookupDomain(host)) },
		func(ctx context.Context) { checks.RenderFlags = uc.stages.Render.Render(ctx, url) },
	}

	if uc.parallel {
		var g errgroup.Group
		for _, step := range steps {
			g.Go(func() error {
				step(ctx)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, step := range steps {
			step(ctx)
		}
	}

	if techs == nil {
		techs = []string{}
	}
	result := &entity.AnalysisResult{
		URL:          url,
		Technologies: techs,
		Checks:       checks,
		Score:        scoring.Score(checks),
	}

	duration := time.Since(startTime)
	uc.recordStageFailures(checks)
	if uc.metrics != nil {
		uc.metrics.AnalysisDuration.Observe(duration.Seconds())
		uc.metrics.SiteScore.Observe(result.Score)
	}
	uc.logger.Info("site analyzed",
		zap.String("url", url),
		zap.Float64("score", result.Score),
		zap.Strings("technologies", techs),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
	return result, nil
}

func (uc *analyzerUseCase) recordStageFailures(c entity.Checks) {
	if uc.metrics == nil {
		return
	}
	if entity.IsTrue(c.TechError) {
		uc.metrics.StageFailuresTotal.WithLabelValues("tech").Inc()
	}
	if entity.IsTrue(c.AuthError) {
		uc.metrics.StageFailuresTotal.WithLabelValues("dns").Inc()
	}
	if c.RenderFlags == (entity.RenderFlags{}) {
		uc.metrics.StageFailuresTotal.WithLabelValues("render").Inc()
	}
	if c.MixedContent == nil && entity.IsTrue(c.HeadersMissing) {
		uc.metrics.StageFailuresTotal.WithLabelValues("headers").Inc()
	}
}
