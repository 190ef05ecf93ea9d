// Command otherneo runs one mesh participant: it resolves configuration,
// starts the node, drives a thin line-oriented REPL over the CLI command
// intents, and performs a graceful shutdown on SIGINT/SIGTERM or "quit".
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/nspcc-dev/otherneo/internal/logging"
	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/nspcc-dev/otherneo/pkg/config"
	"github.com/nspcc-dev/otherneo/pkg/metrics"
	"github.com/nspcc-dev/otherneo/pkg/node"
)

func main() {
	app := cli.NewApp()
	app.Name = "otherneo"
	app.Usage = "a peer-to-peer messaging mesh node"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config-path", Usage: "path to node YAML config"},
		cli.BoolFlag{Name: "debug", Usage: "force debug-level logging"},
	}
	app.Action = runNode

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newGraceContext returns a context canceled on SIGINT/SIGTERM, the same
// signal-driven shutdown trigger the reference node uses.
func newGraceContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()
	return ctx
}

func runNode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log, _, err := logging.New(logging.Params{
		Level:    cfg.Logger.LogLevel,
		Encoding: cfg.Logger.LogEncoding,
		Debug:    c.Bool("debug"),
	})
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer log.Sync() //nolint:errcheck

	bootstrap, err := config.ParseTransports(cfg.Bootstrap)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	peers, err := config.ParseTransports(cfg.Peers)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	n := node.New(node.Config{
		Address: addr.LogicalAddress{
			Realm:   cfg.Address.Realm,
			Cluster: cfg.Address.Cluster,
			NodeID:  cfg.Address.NodeID,
		},
		ListenPort:       cfg.ListenPort,
		NodeIP:           cfg.NodeIP,
		MaxPeers:         cfg.P2P.MaxPeers,
		MaxHeld:          cfg.P2P.MaxHeld,
		Capabilities:     config.ParseCapabilities(cfg.Capabilities),
		Bootstrap:        bootstrap,
		Peers:            peers,
		MaintenanceEvery: cfg.P2P.MaintenanceEvery,
	}, log)

	n.SetMessageHandler(func(sender addr.LogicalAddress, payload string) {
		fmt.Printf("[%s] %s\n", sender.String(), payload)
	})

	if err := n.Start(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Info("node started", zap.String("address", n.ListenAddr().String()))

	var metricsSvc *metrics.Service
	if cfg.Metrics.Enabled {
		metricsSvc = metrics.NewService(cfg.Metrics.Addresses, log.Named("metrics"))
		metricsSvc.Start()
	}

	gctx, cancel := context.WithCancel(newGraceContext())
	go runREPL(n, gctx, cancel)

	<-gctx.Done()
	if metricsSvc != nil {
		metricsSvc.Shutdown(context.Background())
	}
	held := n.Shutdown()
	log.Info("shutdown complete", zap.Int("held_messages", held))
	return nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	if path := c.String("config-path"); path != "" {
		return config.Load(path)
	}
	if path := config.DefaultConfigPath; fileExists(path) {
		return config.Load(path)
	}
	return config.LoadEnv()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
