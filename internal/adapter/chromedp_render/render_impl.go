package chromedp_render

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/entity"
)

// LoadFunc loads url and returns the rendered document HTML.
type LoadFunc func(ctx context.Context, url string) (string, error)

// ChromedpRenderer renders pages in a headless Chrome and audits the DOM.
type ChromedpRenderer struct {
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	logger         *zap.Logger
	load           LoadFunc
}

// NewChromedpRenderer creates a renderer that launches one browser per call.
func NewChromedpRenderer(pageLoadTimeout time.Duration, userAgent, acceptLanguage string, logger *zap.Logger) *ChromedpRenderer {
	r := &ChromedpRenderer{
		timeout:        pageLoadTimeout,
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
		logger:         logger,
	}
	r.load = r.loadWithChrome
	return r
}

// Render loads url and inspects the DOM. A navigation failure leaves every
// render flag absent, no error flag is recorded for this stage.
func (r *ChromedpRenderer) Render(ctx context.Context, url string) entity.RenderFlags {
	html, err := r.load(ctx, url)
	if err != nil {
		r.logger.Warn("page render failed", zap.String("url", url), zap.Error(err))
		return entity.RenderFlags{}
	}
	flags, err := AuditDocument(html)
	if err != nil {
		r.logger.Warn("rendered document could not be parsed", zap.String("url", url), zap.Error(err))
		return entity.RenderFlags{}
	}
	return flags
}

// loadWithChrome starts an isolated browser for this call only. Both the
// browser and its allocator are torn down on every return path.
func (r *ChromedpRenderer) loadWithChrome(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer cancelBrowser()

	taskCtx, cancel := context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	startTime := time.Now()

	var html string
	headers := network.Headers{}
	if r.acceptLanguage != "" {
		headers["Accept-Language"] = r.acceptLanguage
	}
	// Navigate returns once the load event fired.
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}

	r.logger.Debug("page rendered", zap.String("url", url), zap.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return html, nil
}
