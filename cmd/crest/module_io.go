package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"crest/internal/ir"
	"crest/internal/irenc"
	"crest/internal/optpipeline"
)

func loadModule(path string) (*ir.Module, error) {
	m, err := irenc.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	return m, nil
}

func writeModule(path string, m *ir.Module) error {
	if err := irenc.WriteFile(path, m); err != nil {
		return fmt.Errorf("write module: %w", err)
	}
	return nil
}

func colorEnabled(colorFlag string, out *os.File) bool {
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(out))
}

func printInlineSummary(out io.Writer, results []optpipeline.FileResult, dryRun bool) {
	totalInlined, totalSeen := 0, 0
	for _, r := range results {
		totalInlined += r.Stats.Inlined
		totalSeen += r.Stats.CallsSeen
		fmt.Fprintf(out, "%s: %d/%d calls inlined (%d funcs, %.1f ms)\n",
			r.Path, r.Stats.Inlined, r.Stats.CallsSeen, r.Funcs,
			float64(r.Elapsed.Microseconds())/1000.0)
	}
	verb := "inlined"
	if dryRun {
		verb = "would inline"
	}
	good := color.New(color.FgGreen)
	fmt.Fprintf(out, "%s across %d files\n",
		good.Sprintf("%s %d/%d calls", verb, totalInlined, totalSeen), len(results))
}
