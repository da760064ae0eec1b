package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dusk-indust/mermpad/internal/export"
	"github.com/dusk-indust/mermpad/internal/pipeline"
)

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	withAI := fs.Bool("ai", false, "also run the AI syntax check (requires ai.enabled config and OPENAI_API_KEY)")
	asJSON := fs.Bool("json", false, "write the verdict as JSON")
	configDir := fs.String("config", ".", "directory holding mermpad.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	_, render, ai, err := setup(*configDir)
	if err != nil {
		return err
	}
	if !*withAI {
		ai = nil
	}

	out := pipeline.CheckOnce(context.Background(), render, ai, text)

	if *asJSON {
		if err := export.WriteJSON(os.Stdout, export.NewReport(out)); err != nil {
			return err
		}
	} else if out.Valid() {
		fmt.Println("valid")
	} else {
		fmt.Printf("invalid (%s): %s\n", out.Source, *out.Message)
	}

	if !out.Valid() {
		return fmt.Errorf("diagram is invalid")
	}
	return nil
}

// readInput loads the diagram text from path, or stdin when path is
// empty or "-".
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
