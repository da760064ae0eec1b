package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/mermpad/internal/mcptools"
)

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	configDir := fs.String("config", ".", "directory holding mermpad.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, render, ai, err := setup(*configDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return mcptools.ServeStdio(ctx, mcptools.NewDiagramService(render, ai))
}
