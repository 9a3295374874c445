// Package config holds the node's runtime configuration: network
// addresses, gossip pacing, and the consensus algorithm's coin-round
// period.
package config

import (
	"fmt"
	"time"
)

// Preset names a built-in parameter set, following the teacher's named
// -preset convention (mainnet/testnet/local), narrowed to the handful
// of knobs this protocol actually exposes.
type Preset string

const (
	// PresetLocal is tuned for a single-process simulation of several
	// in-memory nodes.
	PresetLocal Preset = "local"
	// PresetLAN is tuned for nodes reachable over a low-latency TCP
	// network, e.g. a developer's machine or a CI container.
	PresetLAN Preset = "lan"
)

// Config holds every externally-tunable parameter of a node.
type Config struct {
	LocalBindAddress string   `json:"localBindAddress"`
	PeerAddresses    []string `json:"peerAddresses"`

	SyncInterval    time.Duration `json:"syncInterval"`
	AnswerInterval  time.Duration `json:"answerInterval"`
	CoinRoundPeriod int           `json:"coinRoundPeriod"`

	MaxConcurrentSyncs int `json:"maxConcurrentSyncs"`
}

// Builder provides a fluent interface for constructing a Config,
// validating as it goes rather than deferring every check to Build.
type Builder struct {
	cfg *Config
	err error
}

// NewBuilder starts from Default and returns a Builder for overriding
// individual fields.
func NewBuilder() *Builder {
	d := Default()
	return &Builder{cfg: &d}
}

// FromPreset discards whatever the builder holds and starts from a
// named preset.
func (b *Builder) FromPreset(p Preset) *Builder {
	if b.err != nil {
		return b
	}
	switch p {
	case PresetLocal:
		c := Local()
		b.cfg = &c
	case PresetLAN:
		c := LAN()
		b.cfg = &c
	default:
		b.err = fmt.Errorf("config: unknown preset %q", p)
	}
	return b
}

// WithBindAddress sets the local listen address for the TCP transport.
func (b *Builder) WithBindAddress(addr string) *Builder {
	if b.err != nil {
		return b
	}
	if addr == "" {
		b.err = fmt.Errorf("config: bind address must not be empty")
		return b
	}
	b.cfg.LocalBindAddress = addr
	return b
}

// WithPeers sets the initial peer address list.
func (b *Builder) WithPeers(addrs []string) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.PeerAddresses = addrs
	return b
}

// WithSyncInterval sets the pacing between gossip-initiation attempts.
func (b *Builder) WithSyncInterval(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if d <= 0 {
		b.err = fmt.Errorf("config: sync interval must be positive, got %s", d)
		return b
	}
	b.cfg.SyncInterval = d
	return b
}

// WithAnswerInterval sets how long the answer loop backs off after a
// transient accept failure before retrying.
func (b *Builder) WithAnswerInterval(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if d <= 0 {
		b.err = fmt.Errorf("config: answer interval must be positive, got %s", d)
		return b
	}
	b.cfg.AnswerInterval = d
	return b
}

// WithCoinRoundPeriod sets Config.CoinRoundPeriod (default 6). The
// consensus engine does not read this field: it always uses the
// constant consensus.CoinRoundPeriod.
func (b *Builder) WithCoinRoundPeriod(c int) *Builder {
	if b.err != nil {
		return b
	}
	if c < 1 {
		b.err = fmt.Errorf("config: coin round period must be >= 1, got %d", c)
		return b
	}
	b.cfg.CoinRoundPeriod = c
	return b
}

// Build validates and returns the final Config.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg, nil
}

// Default returns the module's baseline configuration: no bind
// address, no peers, 100ms gossip pacing, coin-round period 6.
func Default() Config {
	return Config{
		SyncInterval:       100 * time.Millisecond,
		AnswerInterval:     100 * time.Millisecond,
		CoinRoundPeriod:    6,
		MaxConcurrentSyncs: 4,
	}
}

// Local returns parameters tuned for an in-process N-node simulation.
func Local() Config {
	c := Default()
	c.SyncInterval = 100 * time.Millisecond
	c.AnswerInterval = 100 * time.Millisecond
	return c
}

// LAN returns parameters tuned for nodes communicating over real TCP
// sockets on a low-latency network.
func LAN() Config {
	c := Default()
	c.SyncInterval = 150 * time.Millisecond
	c.AnswerInterval = 150 * time.Millisecond
	c.MaxConcurrentSyncs = 8
	return c
}
