// Package tlsprobe reads the certificate a host serves on its TLS port.
package tlsprobe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/entity"
)

const defaultPort = "443"

var errNoCertificate = errors.New("peer presented no certificate")

// Prober performs a TLS handshake and checks the leaf certificate expiry.
type Prober struct {
	Timeout time.Duration
	Port    string
	Now     func() time.Time
	logger  *zap.Logger
}

// NewProber creates a prober for port 443.
func NewProber(timeout time.Duration, logger *zap.Logger) *Prober {
	return &Prober{Timeout: timeout, Port: defaultPort, Now: time.Now, logger: logger}
}

// Probe sets SSLIssue when the handshake fails, no expiry can be read or
// the certificate has expired. There is no partial outcome.
func (p *Prober) Probe(ctx context.Context, host string) entity.TLSFlags {
	notAfter, err := p.Expiry(ctx, host)
	if err != nil {
		p.logger.Warn("tls probe failed", zap.String("host", host), zap.Error(err))
		return entity.TLSFlags{SSLIssue: entity.Flag(true)}
	}
	expired := notAfter.Before(p.Now())
	if expired {
		p.logger.Info("certificate expired", zap.String("host", host), zap.Time("not_after", notAfter))
	}
	return entity.TLSFlags{SSLIssue: entity.Flag(expired)}
}

// Expiry returns the NotAfter date of the certificate served by host.
// The chain is not verified, only the leaf dates are read.
func (p *Prober) Expiry(ctx context.Context, host string) (time.Time, error) {
	if host == "" {
		return time.Time{}, errors.New("empty host")
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.Timeout},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true, //nolint:gosec // expiry is inspected manually
		},
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, p.Port))
	if err != nil {
		return time.Time{}, fmt.Errorf("tls handshake with %s: %w", host, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return time.Time{}, errNoCertificate
	}
	return state.PeerCertificates[0].NotAfter, nil
}
