package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/pkg/metrics"
)

func TestAnalyze_EmptyURL(t *testing.T) {
	stages := &stubStages{}
	uc := NewAnalyzer(stages.stages(), false, nil, zaptest.NewLogger(t))

	if _, err := uc.Analyze(context.Background(), ""); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if len(stages.targets) != 0 {
		t.Errorf("no stage should run for an empty url, got %v", stages.targets)
	}
}

func TestAnalyze_MergesStagesAndScores(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		stages := &stubStages{}
		m := metrics.New(prometheus.NewRegistry())
		uc := NewAnalyzer(stages.stages(), parallel, m, zaptest.NewLogger(t))

		result, err := uc.Analyze(context.Background(), "www.example.com")
		if err != nil {
			t.Fatalf("parallel=%v: unexpected error: %v", parallel, err)
		}

		if result.URL != "https://www.example.com" {
			t.Errorf("parallel=%v: expected normalized url, got %s", parallel, result.URL)
		}
		if result.Score != 1.14 {
			t.Errorf("parallel=%v: expected score 1.14, got %.2f", parallel, result.Score)
		}
		if len(result.Technologies) != 2 || result.Technologies[0] != "WordPress" {
			t.Errorf("parallel=%v: unexpected technologies %v", parallel, result.Technologies)
		}
		if !entity.IsTrue(result.Checks.SSLIssue) || !entity.IsTrue(result.Checks.MissingSPF) {
			t.Errorf("parallel=%v: stage flags were not merged: %+v", parallel, result.Checks)
		}
		if got := stages.hosts; len(got) != 1 || got[0] != "www.example.com" {
			t.Errorf("parallel=%v: tls stage should get the host, got %v", parallel, got)
		}
		if got := stages.domains; len(got) != 1 || got[0] != "example.com" {
			t.Errorf("parallel=%v: dns stage should get the domain without www, got %v", parallel, got)
		}
		if n := testutil.CollectAndCount(m.SiteScore); n != 1 {
			t.Errorf("parallel=%v: expected score histogram to be collected, got %d", parallel, n)
		}
	}
}

func TestAnalyze_KeepsExplicitScheme(t *testing.T) {
	stages := &stubStages{}
	uc := NewAnalyzer(stages.stages(), false, nil, zaptest.NewLogger(t))

	result, err := uc.Analyze(context.Background(), "http://legacy.example.org")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.URL != "http://legacy.example.org" {
		t.Errorf("expected scheme to be kept, got %s", result.URL)
	}
	if stages.targets[0] != "http://legacy.example.org" {
		t.Errorf("tech stage got %s", stages.targets[0])
	}
}

type failingStages struct{ stubStages }

func (f *failingStages) Detect(context.Context, string) ([]string, entity.TechFlags) {
	return nil, entity.TechFlags{TechError: entity.Flag(true)}
}

func (f *failingStages) Check(context.Context, string) entity.AuthFlags {
	return entity.AuthFlags{AuthError: entity.Flag(true)}
}

func (f *failingStages) Render(context.Context, string) entity.RenderFlags {
	return entity.RenderFlags{}
}

func TestAnalyze_StageFailuresAreFlagsNotErrors(t *testing.T) {
	f := &failingStages{}
	m := metrics.New(prometheus.NewRegistry())
	uc := NewAnalyzer(Stages{Tech: f, TLS: f, Headers: f, Auth: f, Render: f}, false, m, zaptest.NewLogger(t))

	result, err := uc.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("stage failures must not surface as errors, got %v", err)
	}
	if result.Technologies == nil {
		t.Error("technologies should be an empty list, not nil")
	}
	if !entity.IsTrue(result.Checks.TechError) || !entity.IsTrue(result.Checks.AuthError) {
		t.Errorf("expected error flags, got %+v", result.Checks)
	}
	if result.Checks.Favicon != nil {
		t.Error("render flags should be absent after a render failure")
	}

	for _, stage := range []string{"tech", "dns", "render"} {
		if got := testutil.ToFloat64(m.StageFailuresTotal.WithLabelValues(stage)); got != 1 {
			t.Errorf("expected 1 failure for stage %s, got %v", stage, got)
		}
	}
}
