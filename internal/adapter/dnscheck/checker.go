// Package dnscheck inspects a domain's TXT records for mail authentication.
package dnscheck

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/entity"
)

var (
	spfPattern   = regexp.MustCompile(`(?i)v=spf1`)
	dmarcPattern = regexp.MustCompile(`(?i)v=DMARC1`)

	errNoTXT = errors.New("no TXT records")
)

// TXTResolver is the lookup the checker depends on.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([][]string, error)
}

// Checker sets the SPF/DMARC flags from the apex TXT records.
type Checker struct {
	resolver TXTResolver
	logger   *zap.Logger
}

// NewChecker creates a checker on top of resolver.
func NewChecker(resolver TXTResolver, logger *zap.Logger) *Checker {
	return &Checker{resolver: resolver, logger: logger}
}

// Check resolves domain's TXT records. Both missing flags are decided
// independently; if the records cannot be read only AuthError is set, so
// "checked and absent" stays distinguishable from "could not check".
func (c *Checker) Check(ctx context.Context, domain string) entity.AuthFlags {
	if domain == "" {
		c.logger.Warn("txt lookup skipped, empty domain")
		return entity.AuthFlags{AuthError: entity.Flag(true)}
	}
	records, err := c.resolver.LookupTXT(ctx, domain)
	if err == nil && len(records) == 0 {
		err = errNoTXT
	}
	if err != nil {
		c.logger.Warn("txt lookup failed", zap.String("domain", domain), zap.Error(err))
		return entity.AuthFlags{AuthError: entity.Flag(true)}
	}
	return AnalyzeTXT(records)
}

// AnalyzeTXT flattens the records into one buffer and searches it.
func AnalyzeTXT(records [][]string) entity.AuthFlags {
	var parts []string
	for _, r := range records {
		parts = append(parts, r...)
	}
	buf := strings.Join(parts, " ")
	return entity.AuthFlags{
		MissingSPF:   entity.Flag(!spfPattern.MatchString(buf)),
		MissingDMARC: entity.Flag(!dmarcPattern.MatchString(buf)),
	}
}
