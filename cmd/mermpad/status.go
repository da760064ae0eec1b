package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dusk-indust/mermpad/internal/status"
)

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	addr := fs.String("addr", "http://localhost:8632", "server base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report := status.Probe(ctx, *addr)
	fmt.Print(status.Format(report))
	if !report.Reachable {
		return fmt.Errorf("server unreachable")
	}
	return nil
}
