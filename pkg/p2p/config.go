package p2p

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/core"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

// Config configures a Supervisor. The bind address is passed to Construct,
// not held here; every field has a default and is overridden via Option.
type Config struct {
	Streams     []types.StreamName
	Logger      definition.Logger
	Registerer  prometheus.Registerer
	PeerBuilder core.PeerBuilder
}

// Option mutates a Config, following the same functional-options shape the
// teacher's BaseConfiguration construction uses (DefaultConfiguration plus
// targeted overrides), generalized here into composable options since this
// module has several independently optional knobs.
type Option func(*Config)

// WithLogger overrides the default zap-backed logger.
func WithLogger(log definition.Logger) Option {
	return func(c *Config) { c.Logger = log }
}

// WithStreams sets the logical stream names every upgraded peer is run
// with. An empty set is valid, useful for testing the supervisor without an
// application protocol on top (spec §4.5).
func WithStreams(streams ...types.StreamName) Option {
	return func(c *Config) { c.Streams = streams }
}

// WithMetrics registers Supervisor metrics under reg. Without this option
// the metrics are not registered with any registry.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) { c.Registerer = reg }
}

// WithPeerBuilder overrides how connections are promoted into PreRun peers,
// used by tests to substitute a mock peer instead of the real yamux one.
func WithPeerBuilder(build core.PeerBuilder) Option {
	return func(c *Config) { c.PeerBuilder = build }
}

func newConfig(opts []Option) *Config {
	c := &Config{
		Logger:      definition.NewDefaultLogger(),
		PeerBuilder: core.DefaultPeerBuilder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
