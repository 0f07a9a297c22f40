// Command agentaudit runs a single audit from the command line and
// prints the resulting analysis as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agentaudit/internal/analyzer"
	"agentaudit/internal/config"
	"agentaudit/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "", "Path to audit service configuration (optional)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: agentaudit [-config path] <url>")
		os.Exit(2)
	}
	target := flag.Arg(0)

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	logger, err := analyzer.BuildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := storage.NewMemoryStore()
	an, err := analyzer.FromConfig(cfg, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise analyzer: %v\n", err)
		os.Exit(1)
	}

	job, err := an.Submit(ctx, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid audit: %v\n", err)
		os.Exit(1)
	}
	if err := an.Run(ctx, job); err != nil {
		fmt.Fprintf(os.Stderr, "audit failed: %v\n", err)
		os.Exit(1)
	}

	analysis, err := store.GetAnalysis(ctx, job.AnalysisID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load analysis: %v\n", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(analysis); err != nil {
		fmt.Fprintf(os.Stderr, "encode analysis: %v\n", err)
		os.Exit(1)
	}
}
