package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dusk-indust/mermpad/internal/export"
)

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", export.DownloadName, "output PNG path")
	scale := fs.Int("scale", 1, "raster scale factor")
	configDir := fs.String("config", ".", "directory holding mermpad.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.Arg(0) == "" {
		return fmt.Errorf("export: diagram file required")
	}

	text, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	_, render, _, err := setup(*configDir)
	if err != nil {
		return err
	}

	res := render.Check(context.Background(), text)
	if res.Err != nil {
		return fmt.Errorf("render: %s", res.Err.Message)
	}

	data, err := export.EncodePNG(res.Markup, export.WithScale(*scale))
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
	return nil
}
