package readygate

import (
	"github.com/readygate/readygate/internal/config"
	"github.com/readygate/readygate/internal/journal"
	"github.com/readygate/readygate/internal/launch"
	"github.com/readygate/readygate/internal/status"
)

// Default configuration values for New.
// These constants are exported so callers can reference the defaults when
// building custom configurations relative to them (e.g.,
// 2 * DefaultTimeout). Each is re-exported from the internal package that
// owns the concern, so the library and the CLI cannot drift apart.
const (
	// DefaultInterval is the pause between probe attempts for one target,
	// 500 milliseconds. Probing sleeps this long after each failed attempt
	// rather than hammering an endpoint that just refused a connection.
	DefaultInterval = config.DefaultInterval

	// DefaultTimeout bounds the whole wait for one target, 60 seconds.
	// Set to 0 via WithTimeout for an unbounded wait driven only by the
	// context and the attempt limit.
	DefaultTimeout = config.DefaultTimeout

	// DefaultProbeTimeout bounds a single probe attempt, 3 seconds. It
	// keeps one black-holed endpoint (a firewall dropping packets rather
	// than refusing them) from eating the entire wait budget in one dial.
	DefaultProbeTimeout = config.DefaultProbeTimeout

	// DefaultStopGracePeriod is how long a supervised server is given to
	// exit after a forwarded termination signal before it is killed,
	// 10 seconds.
	DefaultStopGracePeriod = launch.DefaultStopGracePeriod

	// DefaultJournalKeep is the number of launch records retained in the
	// journal, 100. Older rows are pruned on each write.
	DefaultJournalKeep = journal.DefaultKeep

	// DefaultStatusInterval is the pause between background re-probes by
	// the status server, 15 seconds. Status probing is observability, not
	// gating, so it runs far less often than the launch gate.
	DefaultStatusInterval = status.DefaultInterval
)
