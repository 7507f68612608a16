package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"bracefix/internal/driver"
	"bracefix/internal/ui"
)

type batchOutcome struct {
	report *driver.Report
	err    error
}

// runBatchWithUI runs the batch in the background while a progress view
// consumes its events. Leaving the view early (ctrl+c) cancels the batch.
func runBatchWithUI(ctx context.Context, title string, r *driver.Repairer, items []driver.Item, opts driver.BatchOptions) (*driver.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		opts.Sink = driver.ChannelSink{Ch: events}
		rep, err := driver.RunBatch(ctx, r, items, opts)
		outcomeCh <- batchOutcome{report: rep, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, items, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	cancel()
	// дочитываем события, чтобы воркеры не заблокировались
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}
