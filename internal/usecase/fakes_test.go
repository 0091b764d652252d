package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/internal/repository"
)

type stubStages struct {
	mu      sync.Mutex
	targets []string
	hosts   []string
	domains []string
}

func (s *stubStages) record(dst *[]string, v string) {
	s.mu.Lock()
	*dst = append(*dst, v)
	s.mu.Unlock()
}

func (s *stubStages) Detect(_ context.Context, url string) ([]string, entity.TechFlags) {
	s.record(&s.targets, url)
	return []string{"WordPress", "PHP"}, entity.TechFlags{TechError: entity.Flag(false), TechObsolete: entity.Flag(false)}
}

func (s *stubStages) Probe(_ context.Context, host string) entity.TLSFlags {
	s.record(&s.hosts, host)
	return entity.TLSFlags{SSLIssue: entity.Flag(true)}
}

func (s *stubStages) Audit(context.Context, string) entity.HeaderFlags {
	return entity.HeaderFlags{HeadersMissing: entity.Flag(true), MixedContent: entity.Flag(false)}
}

func (s *stubStages) Check(_ context.Context, domain string) entity.AuthFlags {
	s.record(&s.domains, domain)
	return entity.AuthFlags{MissingSPF: entity.Flag(true), MissingDMARC: entity.Flag(false)}
}

func (s *stubStages) Render(context.Context, string) entity.RenderFlags {
	return entity.RenderFlags{
		Favicon:     entity.Flag(true),
		MetaSEO:     entity.Flag(true),
		Responsive:  entity.Flag(true),
		CTA:         entity.Flag(true),
		PolicyPage:  entity.Flag(true),
		FormsBroken: entity.Flag(false),
	}
}

func (s *stubStages) stages() Stages {
	return Stages{Tech: s, TLS: s, Headers: s, Auth: s, Render: s}
}

// fakeAnalyzer returns a fixed score without touching the network.
type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	// onAnalyze runs before returning, e.g. to cancel a context mid-site.
	onAnalyze func()
}

func (f *fakeAnalyzer) Analyze(_ context.Context, rawURL string) (*entity.AnalysisResult, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()
	if f.onAnalyze != nil {
		f.onAnalyze()
	}
	return &entity.AnalysisResult{URL: "https://" + rawURL, Technologies: []string{}, Score: 1.5}, nil
}

type memSiteRepo struct {
	mu       sync.Mutex
	sites    map[int64]*entity.Site
	claimErr error
	claims   int
	// results is cleared together with the backlog on reset.
	results  *memResultRepo
	resetErr error
	resets   int
}

func newMemSiteRepo(sites ...*entity.Site) *memSiteRepo {
	r := &memSiteRepo{sites: make(map[int64]*entity.Site)}
	for _, s := range sites {
		r.sites[s.ID] = s
	}
	return r
}

func (r *memSiteRepo) ClaimPending(_ context.Context, afterID int64, limit int) ([]*entity.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims++
	if r.claimErr != nil {
		return nil, r.claimErr
	}
	var out []*entity.Site
	for _, s := range r.sites {
		if !s.Analyzed && s.ID > afterID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memSiteRepo) FindByID(_ context.Context, id int64) (*entity.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sites[id]
	if !ok {
		return nil, repository.ErrSiteNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSiteRepo) MarkAnalyzed(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sites[id]
	if !ok {
		return repository.ErrSiteNotFound
	}
	s.Analyzed = true
	s.AnalyzedAt = &at
	return nil
}

func (r *memSiteRepo) ResetBacklog(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resetErr != nil {
		return r.resetErr
	}
	r.resets++
	if r.results != nil {
		r.results.clear()
	}
	for _, s := range r.sites {
		s.Analyzed = false
		s.AnalyzedAt = nil
	}
	return nil
}

func (r *memSiteRepo) analyzed(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sites[id].Analyzed
}

type memResultRepo struct {
	mu      sync.Mutex
	results map[int64]*entity.AnalysisResult
	failFor map[int64]bool
}

func newMemResultRepo() *memResultRepo {
	return &memResultRepo{
		results: make(map[int64]*entity.AnalysisResult),
		failFor: make(map[int64]bool),
	}
}

func (r *memResultRepo) Upsert(_ context.Context, siteID int64, result *entity.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[siteID] {
		return errors.New("connection reset")
	}
	r.results[siteID] = result
	return nil
}

func (r *memResultRepo) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = make(map[int64]*entity.AnalysisResult)
}

func (r *memResultRepo) ListReports(context.Context) ([]*entity.SiteReport, error) {
	return r.list(), nil
}

func (r *memResultRepo) ListAnalyzed(context.Context) ([]*entity.SiteReport, error) {
	return r.list(), nil
}

func (r *memResultRepo) list() []*entity.SiteReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.SiteReport, 0, len(r.results))
	for id, res := range r.results {
		score := res.Score
		out = append(out, &entity.SiteReport{ID: id, URL: res.URL, Score: &score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memResultRepo) has(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.results[id]
	return ok
}

// memLock hands out tokens like the Redis lock. expire simulates a TTL running out.
type memLock struct {
	mu        sync.Mutex
	held      map[string]string
	seq       int
	refreshes int
	lost      int
}

func newMemLock() *memLock {
	return &memLock{held: make(map[string]string)}
}

func (l *memLock) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.seq++
	token := fmt.Sprintf("token-%d", l.seq)
	l.held[key] = token
	return token, true, nil
}

func (l *memLock) Refresh(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		l.lost++
		return false, nil
	}
	l.refreshes++
	return true, nil
}

func (l *memLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *memLock) expire(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

func (l *memLock) holder(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

func (l *memLock) isHeld(key string) bool {
	return l.holder(key) != ""
}

func (l *memLock) counts() (refreshes, lost int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshes, l.lost
}

type memEvents struct {
	mu     sync.Mutex
	events []entity.RunEvent
}

func (m *memEvents) Publish(_ context.Context, ev entity.RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memEvents) Recent(_ context.Context, n int64) ([]entity.RunEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int64(len(m.events)) > n {
		return append([]entity.RunEvent(nil), m.events[int64(len(m.events))-n:]...), nil
	}
	return append([]entity.RunEvent(nil), m.events...), nil
}

func (m *memEvents) last() entity.RunEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[len(m.events)-1]
}

type textExporter struct{}

func (textExporter) ContentType() string { return "text/plain" }

func (textExporter) FileName() string { return "results.txt" }

func (textExporter) Export(w io.Writer, reports []*entity.SiteReport) error {
	for _, r := range reports {
		if _, err := io.WriteString(w, r.URL+"\n"); err != nil {
			return err
		}
	}
	return nil
}
