package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/internal/repository"
	"github.com/user/site-auditor/pkg/metrics"
)

// BatchRunner drains the backlog of unanalyzed sites.
type BatchRunner interface {
	// Run claims batches until none are left or ctx is cancelled.
	Run(ctx context.Context) (*entity.RunSummary, error)
	State() entity.RunState
}

// BatchRunnerConfig tunes the runner.
type BatchRunnerConfig struct {
	BatchSize int
	// SitesPerSecond paces site starts; zero disables pacing.
	SitesPerSecond float64
}

type batchRunner struct {
	sites     repository.SiteRepository
	processor *SiteProcessor
	events    repository.EventPublisher
	limiter   *rate.Limiter
	batchSize int
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu    sync.Mutex
	state entity.RunState
}

// NewBatchRunner creates a runner. events may be nil.
func NewBatchRunner(cfg BatchRunnerConfig, sites repository.SiteRepository, processor *SiteProcessor, events repository.EventPublisher, m *metrics.Metrics, logger *zap.Logger) BatchRunner {
	limit := rate.Inf
	if cfg.SitesPerSecond > 0 {
		limit = rate.Limit(cfg.SitesPerSecond)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &batchRunner{
		sites:     sites,
		processor: processor,
		events:    events,
		limiter:   rate.NewLimiter(limit, 1),
		batchSize: cfg.BatchSize,
		metrics:   m,
		logger:    logger,
		state:     entity.StateIdle,
	}
}

func (r *batchRunner) State() entity.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *batchRunner) setState(s entity.RunState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run walks the backlog by id. Every claim asks for sites after the last one
// seen, so a site skipped for an empty domain is not claimed again in this run.
// A site already started finishes even if ctx is cancelled mid-way; the runner
// stops before the next one.
func (r *batchRunner) Run(ctx context.Context) (*entity.RunSummary, error) {
	summary := &entity.RunSummary{}
	var cursor int64

	for {
		if err := ctx.Err(); err != nil {
			return r.stop(ctx, summary, err)
		}

		r.setState(entity.StateClaimBatch)
		batch, err := r.sites.ClaimPending(ctx, cursor, r.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return r.stop(ctx, summary, ctx.Err())
			}
			r.setState(entity.StateIdle)
			summary.State = entity.StateIdle
			r.logf(ctx, "error claiming batch: %v", err)
			return summary, fmt.Errorf("claim batch: %w", err)
		}
		if len(batch) == 0 {
			return r.finish(ctx, summary), nil
		}

		summary.Batches++
		summary.Claimed += len(batch)
		if r.metrics != nil {
			r.metrics.SitesPending.Set(float64(len(batch)))
		}
		r.logf(ctx, "processing %d sites", len(batch))

		r.setState(entity.StateProcessSite)
		for _, site := range batch {
			if site.ID > cursor {
				cursor = site.ID
			}
			if err := r.limiter.Wait(ctx); err != nil {
				return r.stop(ctx, summary, ctx.Err())
			}
			r.processSite(ctx, site, summary)
		}
	}
}

func (r *batchRunner) processSite(ctx context.Context, site *entity.Site, summary *entity.RunSummary) {
	if !site.HasDomain() {
		summary.Skipped++
		r.count("skipped")
		r.logf(ctx, "site %d has no domain, skipping", site.ID)
		return
	}

	r.logf(ctx, "analyzing %s", site.Domain)
	result, err := r.processor.Process(ctx, site.ID, site.Domain)
	switch {
	case errors.Is(err, ErrEmptyURL):
		summary.Skipped++
		r.count("skipped")
		r.logf(ctx, "site %d has no usable url, skipping", site.ID)
	case err != nil:
		summary.Failed++
		r.count("persist_failed")
		r.logf(ctx, "error saving %s: %v", site.Domain, err)
	default:
		summary.Processed++
		r.count("persisted")
		r.logf(ctx, "%s analyzed, score %.2f", site.Domain, result.Score)
	}
}

func (r *batchRunner) finish(ctx context.Context, summary *entity.RunSummary) *entity.RunSummary {
	r.setState(entity.StateDone)
	summary.State = entity.StateDone
	if r.metrics != nil {
		r.metrics.SitesPending.Set(0)
	}
	r.logger.Info("no pending sites left",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	r.publish(ctx, entity.RunEvent{Kind: entity.EventDone, Message: "analysis finished", Summary: summary})
	return summary
}

func (r *batchRunner) stop(ctx context.Context, summary *entity.RunSummary, cause error) (*entity.RunSummary, error) {
	r.setState(entity.StateStopped)
	summary.State = entity.StateStopped
	r.logger.Info("batch run stopped", zap.Error(cause))
	r.publish(ctx, entity.RunEvent{Kind: entity.EventDone, Message: "analysis stopped", Summary: summary})
	return summary, cause
}

func (r *batchRunner) count(outcome string) {
	if r.metrics != nil {
		r.metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	}
}

func (r *batchRunner) logf(ctx context.Context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.logger.Info(msg)
	r.publish(ctx, entity.RunEvent{Kind: entity.EventLog, Message: msg})
}

func (r *batchRunner) publish(ctx context.Context, event entity.RunEvent) {
	event.Time = time.Now().UTC()
	if err := r.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		r.logger.Debug("could not publish run event", zap.Error(err))
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, entity.RunEvent) error { return nil }

func (nopPublisher) Recent(context.Context, int64) ([]entity.RunEvent, error) { return nil, nil }
