package httpcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/site-auditor/internal/entity"
)

func TestFingerprint_OrderFollowsSignatures(t *testing.T) {
	body := `<script src="/vue.min.js"></script><div id="react-root"></div><link href="/wp-content/style.css">`
	got := Fingerprint(http.Header{}, body)

	want := []string{"WordPress", "React", "Vue.js"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestFingerprint_PHPFromHeader(t *testing.T) {
	h := http.Header{}
	h.Set("X-Powered-By", "PHP/5.6.40")
	got := Fingerprint(h, "<html></html>")
	if len(got) != 1 || got[0] != "PHP" {
		t.Errorf("expected [PHP], got %v", got)
	}
}

func TestFingerprint_NoMatchIsEmptyNotNil(t *testing.T) {
	got := Fingerprint(http.Header{}, "<html><body>plain</body></html>")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %#v", got)
	}
}

func TestTechDetector_Detect(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte(`<meta name="generator" content="Joomla! - Open Source Content Management">`))
	}))
	defer srv.Close()

	id := Identity{UserAgent: "test-agent", AcceptLanguage: "es-CO"}
	d := NewTechDetector(5*time.Second, id, zaptest.NewLogger(t))

	techs, flags := d.Detect(context.Background(), srv.URL)
	if len(techs) != 1 || techs[0] != "Joomla" {
		t.Errorf("expected [Joomla], got %v", techs)
	}
	if !entity.IsTrue(flags.TechObsolete) {
		t.Error("expected Joomla to be flagged obsolete")
	}
	if flags.TechError != nil {
		t.Error("did not expect techError on success")
	}
	if gotUA != "test-agent" || gotLang != "es-CO" {
		t.Errorf("request identity not sent: ua=%q lang=%q", gotUA, gotLang)
	}
}

func TestTechDetector_ObsoleteOnlyFromLabels(t *testing.T) {
	// "drupal 7" in the page body does not survive into the labels ("Drupal"),
	// so it cannot mark the site obsolete.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`Powered by Drupal 7 and WordPress/4.9`))
	}))
	defer srv.Close()

	d := NewTechDetector(5*time.Second, Identity{}, zaptest.NewLogger(t))
	techs, flags := d.Detect(context.Background(), srv.URL)

	if len(techs) != 2 || techs[0] != "WordPress" || techs[1] != "Drupal" {
		t.Errorf("expected [WordPress Drupal], got %v", techs)
	}
	if !entity.IsFalse(flags.TechObsolete) {
		t.Errorf("expected techObsolete=false, got %v", flags.TechObsolete)
	}
}

func TestTechDetector_NonSuccessStatusIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`cdn.shopify.com`))
	}))
	defer srv.Close()

	d := NewTechDetector(5*time.Second, Identity{}, zaptest.NewLogger(t))
	techs, flags := d.Detect(context.Background(), srv.URL)
	if flags.TechError != nil {
		t.Error("non-2xx must not be treated as a fetch error")
	}
	if len(techs) != 1 || techs[0] != "Shopify" {
		t.Errorf("expected [Shopify], got %v", techs)
	}
}

func TestTechDetector_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := NewTechDetector(2*time.Second, Identity{}, zaptest.NewLogger(t))
	techs, flags := d.Detect(context.Background(), url)

	if len(techs) != 0 {
		t.Errorf("expected no technologies, got %v", techs)
	}
	if !entity.IsTrue(flags.TechError) {
		t.Error("expected techError")
	}
	if flags.TechObsolete != nil {
		t.Error("techObsolete must stay absent on fetch error")
	}
}

func TestAnalyzeHeaders(t *testing.T) {
	testCases := []struct {
		name        string
		hsts, csp   bool
		body        string
		wantMissing bool
		wantMixed   bool
	}{
		{name: "both present", hsts: true, csp: true, body: `<a href="https://x">`, wantMissing: false, wantMixed: false},
		{name: "hsts only", hsts: true, body: "", wantMissing: true},
		{name: "csp only", csp: true, body: "", wantMissing: true},
		{name: "none", body: "", wantMissing: true},
		{name: "mixed content", hsts: true, csp: true, body: `<img src="HTTP://cdn.example.com/a.png">`, wantMixed: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000")
			}
			if tc.csp {
				h.Set("Content-Security-Policy", "default-src 'self'")
			}
			flags := AnalyzeHeaders(h, tc.body)
			if *flags.HeadersMissing != tc.wantMissing {
				t.Errorf("headersMissing = %v, want %v", *flags.HeadersMissing, tc.wantMissing)
			}
			if *flags.MixedContent != tc.wantMixed {
				t.Errorf("mixedContent = %v, want %v", *flags.MixedContent, tc.wantMixed)
			}
		})
	}
}

func TestHeaderAuditor_Audit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=63072000")
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	a := NewHeaderAuditor(5*time.Second, zaptest.NewLogger(t))
	flags := a.Audit(context.Background(), srv.URL)
	if !entity.IsTrue(flags.HeadersMissing) {
		t.Error("expected headersMissing without CSP")
	}
	if !entity.IsFalse(flags.MixedContent) {
		t.Error("expected mixedContent=false")
	}
}

func TestHeaderAuditor_RequestFailureIsConservative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	a := NewHeaderAuditor(50*time.Millisecond, zaptest.NewLogger(t))
	flags := a.Audit(context.Background(), srv.URL)
	if !entity.IsTrue(flags.HeadersMissing) {
		t.Error("expected headersMissing on request failure")
	}
	if flags.MixedContent != nil {
		t.Error("mixedContent must stay absent on request failure")
	}
}

func TestFetch_OversizedBodyIsCappedAndLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", maxBodyBytes+1024)))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.DebugLevel)
	p, err := fetch(context.Background(), newClient(5*time.Second), Identity{}, srv.URL, zap.New(core))
	if err != nil {
		t.Fatalf("fetch() error: %v", err)
	}
	if !p.truncated || len(p.body) != maxBodyBytes {
		t.Errorf("expected body capped at %d bytes, got %d (truncated=%v)", maxBodyBytes, len(p.body), p.truncated)
	}
	if logs.FilterMessageSnippet("truncated").Len() != 1 {
		t.Errorf("expected one truncation log entry, got %v", logs.All())
	}
}

func TestFetch_SmallBodyIsNotTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.DebugLevel)
	p, err := fetch(context.Background(), newClient(5*time.Second), Identity{}, srv.URL, zap.New(core))
	if err != nil {
		t.Fatalf("fetch() error: %v", err)
	}
	if p.truncated || p.body != "<html></html>" {
		t.Errorf("unexpected page %+v", p)
	}
	if logs.Len() != 0 {
		t.Errorf("no log entry expected, got %v", logs.All())
	}
}
