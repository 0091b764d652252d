package httpcheck

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/entity"
)

type signature struct {
	label   string
	pattern *regexp.Regexp
}

// signatures are checked in this order, which is also the order of the
// reported labels.
var signatures = []signature{
	{"WordPress", regexp.MustCompile(`(?i)wp-content|wordpress`)},
	{"Joomla", regexp.MustCompile(`(?i)joomla`)},
	{"Drupal", regexp.MustCompile(`(?i)drupal`)},
	{"React", regexp.MustCompile(`(?i)react`)},
	{"Vue.js", regexp.MustCompile(`(?i)vue`)},
	{"Angular", regexp.MustCompile(`(?i)angular`)},
	{"Shopify", regexp.MustCompile(`(?i)shopify`)},
	{"Magento", regexp.MustCompile(`(?i)magento`)},
}

var (
	phpPattern = regexp.MustCompile(`(?i)php`)
	// obsoletePattern runs over the joined labels, not the page.
	obsoletePattern = regexp.MustCompile(`(?i)joomla|drupal 7|php 5|wordpress/4`)
)

// TechDetector fingerprints CMS, framework and shop platforms from page content.
type TechDetector struct {
	client   *http.Client
	identity Identity
	logger   *zap.Logger
}

// NewTechDetector creates a detector whose GET is bounded by timeout.
func NewTechDetector(timeout time.Duration, id Identity, logger *zap.Logger) *TechDetector {
	return &TechDetector{client: newClient(timeout), identity: id, logger: logger}
}

// Detect returns the detected technology labels and the tech flags.
// A failed fetch sets TechError and nothing else.
func (d *TechDetector) Detect(ctx context.Context, url string) ([]string, entity.TechFlags) {
	p, err := fetch(ctx, d.client, d.identity, url, d.logger)
	if err != nil {
		d.logger.Warn("technology detection failed", zap.String("url", url), zap.Error(err))
		return nil, entity.TechFlags{TechError: entity.Flag(true)}
	}

	d.logger.Debug("fetched page for fingerprinting", zap.String("url", url), zap.Int("status", p.status))

	techs := Fingerprint(p.header, p.body)
	obsolete := obsoletePattern.MatchString(strings.Join(techs, " "))
	return techs, entity.TechFlags{TechObsolete: entity.Flag(obsolete)}
}

// Fingerprint matches the response against the known signatures.
func Fingerprint(header http.Header, body string) []string {
	techs := []string{}
	for _, sig := range signatures {
		if sig.pattern.MatchString(body) {
			techs = append(techs, sig.label)
		}
	}
	if phpPattern.MatchString(header.Get("X-Powered-By")) || phpPattern.MatchString(body) {
		techs = append(techs, "PHP")
	}
	return techs
}
