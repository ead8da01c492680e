package main

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tachyon/internal/engine"
	"tachyon/internal/scenario"
	"tachyon/internal/ui"
)

type runOutcome struct {
	results []scenario.Result
	err     error
}

// runWithUI runs s in the background while the progress view consumes the
// runtime's events. The runtime is shut down when the scenario finishes,
// which closes the event stream and ends the view.
func runWithUI(ctx context.Context, rt *engine.Runtime, s *scenario.Scenario, out io.Writer) ([]scenario.Result, error) {
	outcomeCh := make(chan runOutcome, 1)
	go func() {
		results, err := s.Run(ctx, rt, out)
		if serr := rt.Shutdown(ctx); err == nil {
			err = serr
		}
		outcomeCh <- runOutcome{results: results, err: err}
	}()

	model := ui.NewProgressModel("tachyon run "+s.Name, rt.Events())
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
