package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/readygate/readygate/internal/target"
)

// dnsProber considers its target ready when the host name resolves to at
// least one address. Useful for services whose registration in service
// discovery is the readiness signal.
type dnsProber struct {
	tgt      target.Target
	resolver *net.Resolver
	timeout  time.Duration
}

func newDNSProber(t target.Target, opts Options) *dnsProber {
	return &dnsProber{
		tgt:      t,
		resolver: net.DefaultResolver,
		timeout:  opts.Timeout,
	}
}

func (p *dnsProber) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	addrs, err := p.resolver.LookupHost(ctx, p.tgt.Host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", p.tgt.Host, classifyDNS(err))
	}
	if len(addrs) == 0 {
		return fmt.Errorf("resolve %s: no addresses", p.tgt.Host)
	}
	return nil
}

// classifyDNS marks NXDOMAIN as permanent. The name does not exist, and
// polling the same resolver will not change that. Resolver outages and
// timeouts stay retryable.
func classifyDNS(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return Permanent(err)
	}
	return err
}

func (p *dnsProber) Target() target.Target { return p.tgt }
