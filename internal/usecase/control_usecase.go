package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/internal/repository"
	"github.com/user/site-auditor/pkg/utils"
)

// ErrRunInProgress is returned when a run is requested while another holds the lock.
var ErrRunInProgress = errors.New("an analysis run is already in progress")

const batchLockKey = "batch"

// Controller is what the API and the CLI drive.
type Controller interface {
	// RunPending starts a background run over unanalyzed sites.
	RunPending(ctx context.Context) error
	// RunAll wipes every result, resets the backlog and starts a background run.
	RunAll(ctx context.Context) error
	// RunSite analyzes one site synchronously.
	RunSite(ctx context.Context, id int64) (*entity.AnalysisResult, error)
	Results(ctx context.Context) ([]*entity.SiteReport, error)
	// Export writes the analyzed sites as a document.
	Export(ctx context.Context, w io.Writer) error
	ExportContentType() string
	ExportFileName() string
	Events(ctx context.Context, n int64) ([]entity.RunEvent, error)
	// Wait blocks until background runs have returned and reports the
	// summary of the last one, or nil if none has finished.
	Wait() *entity.RunSummary
}

// ControlConfig tunes the controller.
type ControlConfig struct {
	LockTTL time.Duration
}

type controlUseCase struct {
	runner    BatchRunner
	processor *SiteProcessor
	sites     repository.SiteRepository
	results   repository.ResultRepository
	lock      repository.RunLock
	events    repository.EventPublisher
	exporter  repository.ReportExporter
	lockTTL   time.Duration
	logger    *zap.Logger

	// baseCtx outlives the request that triggered a background run.
	baseCtx context.Context
	wg      sync.WaitGroup

	mu          sync.Mutex
	lastSummary *entity.RunSummary
}

// lease is a held lock identified by the token the lock handed out.
type lease struct {
	key   string
	token string
}

// NewController creates a controller. Background runs use baseCtx, so
// cancelling it stops them between sites.
func NewController(
	baseCtx context.Context,
	cfg ControlConfig,
	runner BatchRunner,
	processor *SiteProcessor,
	sites repository.SiteRepository,
	results repository.ResultRepository,
	lock repository.RunLock,
	events repository.EventPublisher,
	exporter repository.ReportExporter,
	logger *zap.Logger,
) Controller {
	if events == nil {
		events = nopPublisher{}
	}
	return &controlUseCase{
		runner:    runner,
		processor: processor,
		sites:     sites,
		results:   results,
		lock:      lock,
		events:    events,
		exporter:  exporter,
		lockTTL:   cfg.LockTTL,
		logger:    logger,
		baseCtx:   baseCtx,
	}
}

func (uc *controlUseCase) RunPending(ctx context.Context) error {
	l, err := uc.acquire(ctx, batchLockKey)
	if err != nil {
		return err
	}
	uc.startRun(l)
	return nil
}

func (uc *controlUseCase) RunAll(ctx context.Context) error {
	l, err := uc.acquire(ctx, batchLockKey)
	if err != nil {
		return err
	}
	if err := uc.sites.ResetBacklog(ctx); err != nil {
		uc.release(ctx, l)
		return fmt.Errorf("reset backlog: %w", err)
	}
	uc.logger.Info("previous results cleared, backlog reset")
	uc.startRun(l)
	return nil
}

func (uc *controlUseCase) startRun(l *lease) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()

		runCtx, cancel := context.WithCancel(uc.baseCtx)
		stop := uc.hold(runCtx, l, cancel)
		summary, err := uc.runner.Run(runCtx)
		cancel()
		stop()

		uc.mu.Lock()
		uc.lastSummary = summary
		uc.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			uc.logger.Error("batch run failed", zap.Error(err))
			return
		}
		uc.logger.Info("batch run finished",
			zap.String("state", string(summary.State)),
			zap.Int("batches", summary.Batches),
			zap.Int("processed", summary.Processed),
		)
	}()
}

func (uc *controlUseCase) RunSite(ctx context.Context, id int64) (*entity.AnalysisResult, error) {
	site, err := uc.sites.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target := site.Target()
	l, err := uc.acquire(ctx, "site:"+utils.HashURL(target))
	if err != nil {
		return nil, err
	}
	defer uc.hold(ctx, l, func() {})()

	uc.logger.Info("single site analysis", zap.Int64("site_id", id), zap.String("target", target))
	return uc.processor.Process(ctx, site.ID, target)
}

func (uc *controlUseCase) Results(ctx context.Context) ([]*entity.SiteReport, error) {
	return uc.results.ListReports(ctx)
}

func (uc *controlUseCase) Export(ctx context.Context, w io.Writer) error {
	reports, err := uc.results.ListAnalyzed(ctx)
	if err != nil {
		return fmt.Errorf("list analyzed sites: %w", err)
	}
	return uc.exporter.Export(w, reports)
}

func (uc *controlUseCase) ExportContentType() string {
	return uc.exporter.ContentType()
}

func (uc *controlUseCase) ExportFileName() string {
	return uc.exporter.FileName()
}

func (uc *controlUseCase) Events(ctx context.Context, n int64) ([]entity.RunEvent, error) {
	return uc.events.Recent(ctx, n)
}

func (uc *controlUseCase) Wait() *entity.RunSummary {
	uc.wg.Wait()
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.lastSummary
}

func (uc *controlUseCase) acquire(ctx context.Context, key string) (*lease, error) {
	token, ok, err := uc.lock.Acquire(ctx, key, uc.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return &lease{key: key, token: token}, nil
}

// hold keeps l alive in the background and returns a func that stops the
// refreshes and releases l.
func (uc *controlUseCase) hold(ctx context.Context, l *lease, onLost func()) (release func()) {
	aliveCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	alive := make(chan struct{})
	go func() {
		defer close(alive)
		uc.keepAlive(aliveCtx, l, onLost)
	}()
	return func() {
		cancel()
		<-alive
		uc.release(ctx, l)
	}
}

// keepAlive refreshes l every third of the TTL until ctx ends. If another
// holder has taken the key, onLost runs and keepAlive returns.
func (uc *controlUseCase) keepAlive(ctx context.Context, l *lease, onLost func()) {
	if uc.lockTTL <= 0 {
		return
	}
	ticker := time.NewTicker(uc.lockTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := uc.lock.Refresh(ctx, l.key, l.token, uc.lockTTL)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				uc.logger.Warn("could not refresh run lock", zap.String("key", l.key), zap.Error(err))
				continue
			}
			if !ok {
				uc.logger.Error("run lock lost to another holder", zap.String("key", l.key))
				onLost()
				return
			}
		}
	}
}

func (uc *controlUseCase) release(ctx context.Context, l *lease) {
	if err := uc.lock.Release(context.WithoutCancel(ctx), l.key, l.token); err != nil {
		uc.logger.Warn("could not release run lock", zap.String("key", l.key), zap.Error(err))
	}
}
