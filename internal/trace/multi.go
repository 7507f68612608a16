package trace

import "errors"

// MultiTracer fans events out to several tracers (stream and ring in
// ModeBoth). Each child applies its own level filter.
type MultiTracer struct {
	tracers []Tracer
}

// NewMultiTracer drops nil children.
func NewMultiTracer(tracers ...Tracer) *MultiTracer {
	kept := make([]Tracer, 0, len(tracers))
	for _, tr := range tracers {
		if tr != nil {
			kept = append(kept, tr)
		}
	}
	return &MultiTracer{tracers: kept}
}

func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

// Level is the most verbose level among the children, so Wants stays
// true while any child still records the scope.
func (t *MultiTracer) Level() Level {
	lvl := LevelOff
	for _, tr := range t.tracers {
		lvl = max(lvl, tr.Level())
	}
	return lvl
}

func (t *MultiTracer) Enabled() bool {
	return t.Level() > LevelOff
}
