package probe

import (
	"context"
	"fmt"
	"net"

	"github.com/readygate/readygate/internal/target"
)

// tcpProber considers its target ready when a TCP connection can be opened.
// The connection is closed immediately; nothing is written on it.
type tcpProber struct {
	tgt    target.Target
	dialer *net.Dialer
}

func newTCPProber(t target.Target, opts Options) *tcpProber {
	return &tcpProber{
		tgt:    t,
		dialer: &net.Dialer{Timeout: opts.Timeout},
	}
}

func (p *tcpProber) Probe(ctx context.Context) error {
	conn, err := p.dialer.DialContext(ctx, "tcp", p.tgt.Addr())
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.tgt.Addr(), err)
	}
	_ = conn.Close()
	return nil
}

func (p *tcpProber) Target() target.Target { return p.tgt }
