// Command tcpclient runs N hashgraph nodes on localhost, each bound to
// its own TCP port starting at basePort, gossiping over
// transport.TCPPeer/transport.Listener. Grounded on the reference
// tcp-client/tcp_server driver's BASE_PORT-indexed node topology.
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/virtualvoting/hashgraph/config"
	"github.com/virtualvoting/hashgraph/gossip"
	"github.com/virtualvoting/hashgraph/node"
	"github.com/virtualvoting/hashgraph/sink"
	"github.com/virtualvoting/hashgraph/transport"
	"github.com/virtualvoting/hashgraph/xlog"
	"github.com/virtualvoting/hashgraph/xmetrics"
)

// basePort is the first TCP port used; node i binds basePort+i,
// matching the reference driver's BASE_PORT = 9000 convention.
const basePort = 9000

func main() {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "tcpclient N",
		Short: "Run N nodes on localhost, gossiping over real TCP connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics for node 0 on this address")
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, metricsAddr string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return fmt.Errorf("tcpclient: invalid node count %q: Usage: tcpclient [number of nodes]", args[0])
	}

	log := xlog.New("tcpclient")
	defer log.Sync()

	cfg := config.LAN()
	addrs := make([]string, n)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("127.0.0.1:%d", basePort+i)
	}

	nodes := make([]*node.Node, n)
	listeners := make([]*transport.Listener, n)
	for i := 0; i < n; i++ {
		_, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return fmt.Errorf("tcpclient: generate key: %w", err)
		}
		metrics := xmetrics.New(fmt.Sprintf("tcpclient-%d", i))
		nd, err := node.New(priv, sink.NewKV(), log, metrics)
		if err != nil {
			return fmt.Errorf("tcpclient: create node %d: %w", i, err)
		}
		nodes[i] = nd
		listeners[i] = transport.NewListener(addrs[i], nd, log, int64(cfg.MaxConcurrentSyncs), cfg.AnswerInterval)
	}

	for i, a := range nodes {
		for j, b := range nodes {
			if i == j {
				continue
			}
			a.AddPeer(transport.NewTCPPeer(b.ID(), addrs[j]))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for i, nd := range nodes {
		nd, listener := nd, listeners[i]
		driver := gossip.New(nd, cfg, listener, log)
		g.Go(func() error { return driver.Run(ctx) })
	}

	if metricsAddr != "" {
		g.Go(func() error { return serveMetrics(ctx, metricsAddr, nodes[0]) })
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, n *node.Node) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(n.Metrics().Gatherer(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
