package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	resolvConf = "/etc/resolv.conf"
	udpSize    = 4096
)

var (
	errEmptyResponse = errors.New("empty dns response")
	errTruncated     = errors.New("dns answer truncated")
)

// Resolver queries TXT records against a fixed list of nameservers.
type Resolver struct {
	client    *dns.Client
	tcpClient *dns.Client
	servers   []string
	retries   int
	backoff   time.Duration
}

// NewResolver prefers explicit servers, then system resolvers, then a public fallback.
func NewResolver(timeout time.Duration, servers []string) *Resolver {
	resolved := normalizeServers(servers)
	if len(resolved) == 0 {
		resolved = loadSystemServers()
	}
	if len(resolved) == 0 {
		resolved = []string{"8.8.8.8:53"}
	}
	return &Resolver{
		client:    &dns.Client{Timeout: timeout},
		tcpClient: &dns.Client{Net: "tcp", Timeout: timeout},
		servers:   resolved,
		retries:   3,
		backoff:   200 * time.Millisecond,
	}
}

// RcodeError reports a non-NOERROR answer, e.g. NXDOMAIN.
type RcodeError struct {
	Name  string
	Rcode int
}

func (e *RcodeError) Error() string {
	return fmt.Sprintf("dns query for %s returned %s", e.Name, dns.RcodeToString[e.Rcode])
}

// LookupTXT returns every TXT record for name, each one's strings kept apart.
// Transient transport errors are retried with exponential backoff; an
// authoritative negative answer is returned immediately. A truncated UDP
// answer is asked again over TCP and never returned as is.
func (r *Resolver) LookupTXT(ctx context.Context, name string) ([][]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(udpSize, false)

	backoff := r.backoff
	var lastErr error
	for attempt := 0; attempt < r.retries; attempt++ {
		server := r.servers[attempt%len(r.servers)]
		resp, err := r.exchange(ctx, msg, server)
		if err == nil && resp == nil {
			err = errEmptyResponse
		}
		if err == nil {
			if resp.Rcode != dns.RcodeSuccess {
				return nil, &RcodeError{Name: name, Rcode: resp.Rcode}
			}
			return extractTXT(resp), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < r.retries-1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("txt lookup for %s: %w", name, lastErr)
}

func (r *Resolver) exchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	resp, _, err := r.client.ExchangeContext(ctx, msg, server)
	if err != nil || resp == nil || !resp.Truncated {
		return resp, err
	}
	resp, _, err = r.tcpClient.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, fmt.Errorf("tcp retry after truncated answer: %w", err)
	}
	if resp != nil && resp.Truncated {
		return nil, errTruncated
	}
	return resp, nil
}

func extractTXT(msg *dns.Msg) [][]string {
	var records [][]string
	for _, answer := range msg.Answer {
		if txt, ok := answer.(*dns.TXT); ok {
			records = append(records, txt.Txt)
		}
	}
	return records
}

// normalizeServers ensures host:port formatting and dedupes entries.
func normalizeServers(servers []string) []string {
	var resolved []string
	seen := map[string]bool{}
	for _, server := range servers {
		value := strings.TrimSpace(server)
		if value == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(value); err != nil {
			value = net.JoinHostPort(value, "53")
		}
		if seen[value] {
			continue
		}
		seen[value] = true
		resolved = append(resolved, value)
	}
	return resolved
}

func loadSystemServers() []string {
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || cfg == nil {
		return nil
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, net.JoinHostPort(s, cfg.Port))
	}
	return normalizeServers(servers)
}
