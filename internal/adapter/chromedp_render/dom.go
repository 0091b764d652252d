package chromedp_render

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/site-auditor/internal/entity"
)

var (
	ctaPattern    = regexp.MustCompile(`(?i)contact|cotiz|compra|contrata|quote|buy|hire`)
	policyPattern = regexp.MustCompile(`(?i)pol[ií]tica|privacidad|cookie|privacy|policy`)
)

// AuditDocument derives the render flags from a rendered HTML document.
func AuditDocument(html string) (entity.RenderFlags, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return entity.RenderFlags{}, err
	}

	var ctaText []string
	doc.Find("a, button").Each(func(i int, s *goquery.Selection) {
		ctaText = append(ctaText, strings.ToLower(strings.TrimSpace(s.Text())))
	})

	return entity.RenderFlags{
		Favicon:     entity.Flag(doc.Find(`link[rel*="icon"]`).Length() > 0),
		MetaSEO:     entity.Flag(doc.Find(`meta[name="description"]`).Length() > 0),
		Responsive:  entity.Flag(doc.Find(`meta[name="viewport"]`).Length() > 0),
		CTA:         entity.Flag(ctaPattern.MatchString(strings.Join(ctaText, " "))),
		PolicyPage:  entity.Flag(policyPattern.MatchString(html)),
		FormsBroken: entity.Flag(anyFormBroken(doc)),
	}, nil
}

// anyFormBroken reports whether some form has no required input or textarea,
// i.e. it accepts an empty submission.
func anyFormBroken(doc *goquery.Document) bool {
	broken := false
	doc.Find("form").EachWithBreak(func(i int, form *goquery.Selection) bool {
		if form.Find("input[required], textarea[required]").Length() == 0 {
			broken = true
			return false
		}
		return true
	})
	return broken
}
