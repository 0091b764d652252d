package entity

import (
	"strings"
	"time"
)

// Site mirrors the `sites` PostgreSQL table schema.
type Site struct {
	ID         int64
	Domain     string
	URL        *string // optional explicit URL, preferred over Domain for single-site runs
	Analyzed   bool
	AnalyzedAt *time.Time
}

// HasDomain reports whether the site carries a usable domain.
func (s *Site) HasDomain() bool {
	return strings.TrimSpace(s.Domain) != ""
}

// Target returns the address a single-site run should analyze.
func (s *Site) Target() string {
	if s.URL != nil && strings.TrimSpace(*s.URL) != "" {
		return *s.URL
	}
	return s.Domain
}
