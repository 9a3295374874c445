// Package gossip paces a node's sync loop (and, for networked
// deployments, its answer loop) against a config.Config, grounded on
// the reference dummy/tcp-client drivers' two-thread-per-node
// topology.
package gossip

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/virtualvoting/hashgraph/config"
	"github.com/virtualvoting/hashgraph/node"
	"github.com/virtualvoting/hashgraph/transport"
	"github.com/virtualvoting/hashgraph/xlog"
)

// Driver runs one node's gossip cycle on a ticker, and — when the node
// is reachable from the network — its inbound answer loop alongside
// it.
type Driver struct {
	node     *node.Node
	cfg      config.Config
	log      *xlog.Logger
	listener *transport.Listener
}

// New creates a Driver for n, paced by cfg. listener is nil for a node
// that never accepts inbound connections (its peers reach it directly
// through transport.InProcessPeer, e.g. cmd/dummy); non-nil for a node
// serving transport.TCPPeer requests (cmd/tcpclient).
func New(n *node.Node, cfg config.Config, listener *transport.Listener, log *xlog.Logger) *Driver {
	if log == nil {
		log = xlog.Nop()
	}
	return &Driver{node: n, cfg: cfg, log: log, listener: listener}
}

// Run blocks until ctx is cancelled, the node is closed, or either
// loop returns an error.
func (d *Driver) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The sync loop returns nil once the node is closed; cancelling
		// here stops the answer loop as well.
		defer cancel()
		return d.runSyncLoop(ctx)
	})

	if d.listener != nil {
		g.Go(func() error {
			return d.listener.Serve(ctx)
		})
	}

	return g.Wait()
}

func (d *Driver) runSyncLoop(ctx context.Context) error {
	interval := d.cfg.SyncInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.node.Done():
			return nil
		case <-ticker.C:
			if err := d.node.Run(rng); err != nil {
				if err == node.ErrEmptyNetwork {
					continue
				}
				d.log.Warn("gossip: cycle failed", zap.Error(err))
			}
		}
	}
}
