// Package scoring reduces a flag-set to a bounded site score.
package scoring

import (
	"math"

	"github.com/user/site-auditor/internal/entity"
)

const (
	// MaxRawScore is the fixed normalisation ceiling. The wired checks reach
	// at most 28; performance, template and DKIM fill the rest.
	MaxRawScore = 35.0
	// MaxScore is the upper bound of the final score.
	MaxScore = 5.0
)

// Rule is one weighted condition.
type Rule struct {
	Name   string
	Weight int
	Hit    func(c *entity.Checks) bool
}

// Rules lists every weighted condition. A positive check (favicon, cta, ...)
// only counts against the site when it concluded false; an absent flag
// never adds weight.
var Rules = []Rule{
	{"sslIssue", 4, func(c *entity.Checks) bool { return entity.IsTrue(c.SSLIssue) }},
	{"mixedContent", 3, func(c *entity.Checks) bool { return entity.IsTrue(c.MixedContent) }},
	{"techObsolete", 4, func(c *entity.Checks) bool { return entity.IsTrue(c.TechObsolete) }},
	{"faviconOrMetaSEO", 2, func(c *entity.Checks) bool {
		return entity.IsFalse(c.Favicon) || entity.IsFalse(c.MetaSEO)
	}},
	{"slowLoadOrNoCDN", 3, func(c *entity.Checks) bool {
		return entity.IsTrue(c.SlowLoad) || entity.IsFalse(c.CDN)
	}},
	{"notResponsive", 3, func(c *entity.Checks) bool { return entity.IsFalse(c.Responsive) }},
	{"noCTA", 2, func(c *entity.Checks) bool { return entity.IsFalse(c.CTA) }},
	{"templateLook", 2, func(c *entity.Checks) bool { return entity.IsTrue(c.TemplateLook) }},
	{"formsBroken", 3, func(c *entity.Checks) bool { return entity.IsTrue(c.FormsBroken) }},
	{"noPolicyPage", 3, func(c *entity.Checks) bool { return entity.IsFalse(c.PolicyPage) }},
	{"headersMissing", 2, func(c *entity.Checks) bool { return entity.IsTrue(c.HeadersMissing) }},
	{"mailAuthMissing", 2, func(c *entity.Checks) bool {
		return entity.IsTrue(c.MissingSPF) || entity.IsTrue(c.MissingDKIM) || entity.IsTrue(c.MissingDMARC)
	}},
}

// Raw sums the weights of the triggered rules.
func Raw(c entity.Checks) int {
	total := 0
	for _, r := range Rules {
		if r.Hit(&c) {
			total += r.Weight
		}
	}
	return total
}

// Triggered returns the names of the rules that fired, in rule order.
func Triggered(c entity.Checks) []string {
	var names []string
	for _, r := range Rules {
		if r.Hit(&c) {
			names = append(names, r.Name)
		}
	}
	return names
}

// Score returns min(raw/35*5, 5) rounded to two decimals.
func Score(c entity.Checks) float64 {
	total := math.Min(float64(Raw(c))/MaxRawScore*MaxScore, MaxScore)
	return math.Round(total*100) / 100
}
