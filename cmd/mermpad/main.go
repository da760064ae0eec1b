// Command mermpad serves a live diagram editor with debounced dual
// validation (renderer + hosted-model syntax check) and PNG export.
package main

import (
	"fmt"
	"os"

	"github.com/dusk-indust/mermpad/internal/aicheck"
	"github.com/dusk-indust/mermpad/internal/config"
	"github.com/dusk-indust/mermpad/internal/diagram"
	"github.com/dusk-indust/mermpad/internal/renderer"
)

// version is set by goreleaser at build time.
var version = "dev"

const usage = `mermpad - live diagram editor with dual validation

Usage:
  mermpad serve   [-addr :8632] [-config DIR]   run the editor server
  mermpad check   [-ai] [-json] [FILE]          validate a diagram file or stdin
  mermpad export  [-o FILE] [-scale N] FILE     render a diagram to PNG
  mermpad status  [-addr URL]                   probe a running server
  mermpad mcp     [-config DIR]                 run as a stdio MCP server
  mermpad -version                              print version and exit
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "check":
		return runCheck(args[1:])
	case "export":
		return runExport(args[1:])
	case "status":
		return runStatus(args[1:])
	case "mcp":
		return runMCP(args[1:])
	case "-version", "--version", "version":
		fmt.Println(version)
		return nil
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q (run 'mermpad help')", args[0])
	}
}

// setup loads the config from dir, installs the process-wide engine,
// and builds the two validators. The AI checker is nil unless the
// config enables it.
func setup(dir string) (*config.Config, *renderer.Adapter, aicheck.Checker, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := diagram.Configure(diagram.Config{
		Theme:         cfg.Render.Theme,
		SecurityLevel: cfg.Render.SecurityLevel,
	}); err != nil {
		return nil, nil, nil, err
	}
	render := renderer.New(diagram.Default())

	var ai aicheck.Checker
	if cfg.AI.Enabled {
		ai = aicheck.NewOpenAIChecker(
			aicheck.WithModel(cfg.AI.Model),
			aicheck.WithBaseURL(cfg.AI.BaseURL),
			aicheck.WithTimeout(cfg.AITimeout()),
		)
	}
	return cfg, render, ai, nil
}
