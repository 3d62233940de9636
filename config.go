package readygate

import "github.com/readygate/readygate/internal/core"

// launcherConfig holds configuration for a Launcher. This unexported type
// wraps core.Config via embedding, keeping internal/core types out of the
// public API signature while avoiding field-by-field duplication.
type launcherConfig struct {
	core.Config
}

// toCoreConfig returns the embedded core.Config.
func (c launcherConfig) toCoreConfig() core.Config {
	return c.Config
}
