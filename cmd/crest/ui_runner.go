package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"crest/internal/optpipeline"
	"crest/internal/ui"
)

type runOutcome struct {
	results []optpipeline.FileResult
	err     error
}

func runPipelineWithUI(ctx context.Context, title, dir string, opts optpipeline.Options) ([]optpipeline.FileResult, error) {
	files, err := optpipeline.ListModuleFiles(dir)
	if err != nil {
		return nil, err
	}
	events := make(chan optpipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		results, err := optpipeline.Run(ctx, dir, opts, optpipeline.ChannelSink{Ch: events})
		outcomeCh <- runOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
