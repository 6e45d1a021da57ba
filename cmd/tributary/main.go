package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/birdayz/tributary"
	"github.com/birdayz/tributary/kdag"
	"github.com/birdayz/tributary/pkg/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("tributary", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	envFile := fs.String("env", ".env", "path to an optional .env file")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	dot := fs.Bool("dot", false, "print the graph in Graphviz dot format and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := log.New(level, os.Stderr)

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		return err
	}

	root := buildGraph(cfg, logger)
	dag, err := kdag.Build(root)
	if err != nil {
		return err
	}
	if *dot {
		fmt.Print(dag.Dot())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting", "nodes", dag.Len(), "repeat", cfg.Repeat, "interval", cfg.Interval)
	_, err = tributary.RunDAG(ctx, dag,
		tributary.WithLog(logger),
		tributary.WithOutputHandler(func(_ context.Context, root kdag.NodeID, v any) error {
			logger.Info("Output", "node", root, "value", v)
			return nil
		}))
	if errors.Is(err, context.Canceled) {
		logger.Info("Interrupted")
		return nil
	}
	return err
}
