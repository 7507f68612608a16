package driver

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bracefix/internal/diag"
	"bracefix/internal/repair"
	"bracefix/internal/source"
	"bracefix/internal/trace"
)

// Item is one expression of a batch.
type Item struct {
	Loc  source.Location
	Expr string
}

// ItemsFromLines turns lines read by source.ReadFile into batch items.
func ItemsFromLines(lines []source.Line) []Item {
	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{Loc: l.Loc, Expr: l.Text}
	}
	return items
}

// Status captures progress state of one item.
type Status string

const (
	// StatusQueued indicates the item is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusRepairing indicates the search is running.
	StatusRepairing Status = "repairing"
	// StatusValid indicates the input was already accepted.
	StatusValid Status = "valid"
	// StatusFixed indicates at least one bracket was inserted.
	StatusFixed Status = "fixed"
	// StatusFailed indicates no repair was found or the validator failed.
	StatusFailed Status = "failed"
)

// Event reports progress for one item.
type Event struct {
	Index   int
	Item    Item
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink consumes progress events. OnEvent is called from worker goroutines.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// NopSink drops events.
type NopSink struct{}

func (NopSink) OnEvent(Event) {}

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// Jobs limits concurrent repairs; 0 means GOMAXPROCS.
	Jobs int
	Sink Sink
}

// ItemResult is the outcome of one item, in input order within Report.
type ItemResult struct {
	Loc        source.Location
	Input      string
	Status     Status
	Output     string
	Depth      int
	Insertions []repair.Insertion
	Cached     bool
	Err        error
	Elapsed    time.Duration
	// Diagnostics explain a failure; empty otherwise.
	Diagnostics []diag.Diagnostic
}

// Report aggregates a batch run.
type Report struct {
	RunID   string
	Started time.Time
	Elapsed time.Duration
	Total   int
	Valid   int
	Fixed   int
	Failed  int
	Cached  int
	Items   []ItemResult
}

// RunBatch repairs items concurrently. Each search stays single-threaded;
// parallelism is only across items. Per-item failures are recorded in the
// report; only cancellation of ctx fails the whole batch.
func RunBatch(ctx context.Context, r *Repairer, items []Item, opts BatchOptions) (*Report, error) {
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Total:   len(items),
		Items:   make([]ItemResult, len(items)),
	}
	if len(items) == 0 {
		return report, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "batch", trace.CurrentSpan(ctx).SpanID).
		WithExtra("run_id", report.RunID)
	ctx = trace.WithSpan(ctx, span)

	for i, it := range items {
		sink.OnEvent(Event{Index: i, Item: it, Status: StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(items)))

	for i, it := range items {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			sink.OnEvent(Event{Index: i, Item: it, Status: StatusRepairing})

			res := repairItem(gctx, r, it)
			if res.Err != nil && gctx.Err() != nil && errors.Is(res.Err, gctx.Err()) {
				return res.Err
			}
			// индекс i уникален, мьютекс не нужен
			report.Items[i] = res
			sink.OnEvent(Event{Index: i, Item: it, Status: res.Status, Err: res.Err, Elapsed: res.Elapsed})
			return nil
		})
	}

	err := g.Wait()
	report.Elapsed = time.Since(report.Started)
	for _, res := range report.Items {
		switch res.Status {
		case StatusValid:
			report.Valid++
		case StatusFixed:
			report.Fixed++
		case StatusFailed:
			report.Failed++
		}
		if res.Cached {
			report.Cached++
		}
	}
	detail := "done"
	if err != nil {
		detail = err.Error()
	}
	span.End(detail)
	return report, err
}

func repairItem(ctx context.Context, r *Repairer, it Item) ItemResult {
	res := ItemResult{Loc: it.Loc, Input: it.Expr}
	outcome, err := r.Repair(ctx, it.Expr)
	if outcome != nil {
		res.Cached = outcome.Cached
		res.Elapsed = outcome.Elapsed
	}
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		bag := diag.NewBag(4)
		DiagnoseFailure(it.Expr, r.Pairs(), err, diag.BagReporter{Bag: bag, Origin: it.Loc})
		res.Diagnostics = append(res.Diagnostics, bag.Items()...)
		return res
	}
	result := outcome.Result
	res.Output = result.Output
	res.Depth = result.Depth
	res.Insertions = result.Insertions
	res.Status = StatusValid
	if result.Changed() {
		res.Status = StatusFixed
	}
	return res
}
