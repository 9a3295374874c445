// Command dummy runs N in-process hashgraph nodes wired directly to
// each other through transport.InProcessPeer, grounded on the
// reference dummy/src/main.rs driver's single-process N-node topology.
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/virtualvoting/hashgraph/config"
	"github.com/virtualvoting/hashgraph/gossip"
	"github.com/virtualvoting/hashgraph/node"
	"github.com/virtualvoting/hashgraph/sink"
	"github.com/virtualvoting/hashgraph/transport"
	"github.com/virtualvoting/hashgraph/xlog"
	"github.com/virtualvoting/hashgraph/xmetrics"
)

func main() {
	cmd := &cobra.Command{
		Use:   "dummy N",
		Short: "Run N in-process nodes gossiping over direct in-memory peers",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return fmt.Errorf("dummy: invalid node count %q: Usage: dummy [number of nodes]", args[0])
	}

	log := xlog.New("dummy")
	defer log.Sync()

	nodes := make([]*node.Node, 0, n)
	for i := 0; i < n; i++ {
		_, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return fmt.Errorf("dummy: generate key: %w", err)
		}
		nd, err := node.New(priv, sink.NewKV(), log, xmetrics.New(fmt.Sprintf("dummy-%d", i)))
		if err != nil {
			return fmt.Errorf("dummy: create node %d: %w", i, err)
		}
		nodes = append(nodes, nd)
	}

	for _, a := range nodes {
		for _, b := range nodes {
			if a.ID().Equal(b.ID()) {
				continue
			}
			a.AddPeer(transport.NewInProcessPeer(b.ID(), b))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	cfg := config.Local()
	for _, nd := range nodes {
		nd := nd
		driver := gossip.New(nd, cfg, nil, log)
		g.Go(func() error { return driver.Run(ctx) })
		g.Go(func() error { return reportStats(ctx, nd, log) })
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func reportStats(ctx context.Context, n *node.Node, log *xlog.Logger) error {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			head, err := n.GetHead()
			if err != nil {
				continue
			}
			rounds, pending := n.GetStats()
			log.Info("node stats",
				zap.Stringer("head", head),
				zap.Int("rounds", rounds),
				zap.Int("pending", pending),
			)
		}
	}
}
