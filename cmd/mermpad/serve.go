package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dusk-indust/mermpad/internal/api"
	"github.com/dusk-indust/mermpad/internal/mcptools"
	"github.com/dusk-indust/mermpad/internal/webui"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (overrides config)")
	configDir := fs.String("config", ".", "directory holding mermpad.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, render, ai, err := setup(*configDir)
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}

	server := api.NewServer(api.Config{
		Render:      render,
		AI:          ai,
		Delay:       cfg.DebounceDelay(),
		IdleTimeout: cfg.SessionIdleTimeout(),
		Version:     version,
		UI:          webui.Handler(),
		MCP:         mcptools.HTTPHandler(mcptools.NewDiagramService(render, ai)),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, *addr); err != nil {
		return err
	}
	log.Printf("mermpad: serving on %s (ai check %s)", *addr, onOff(ai != nil))

	<-ctx.Done()
	log.Printf("mermpad: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}

func onOff(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
