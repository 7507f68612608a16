// Package trace provides a tracing subsystem for bracefix.
//
// The trace package records what the repair search does: which depth
// budgets were tried, which candidates reached the oracle, and (at the
// most verbose level) every node visited. It is the tool of choice when
// a repair is slow, since the search is exponential in the number of
// insertions.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	bracefix repair --trace=- --trace-level=detail "a[b)c"
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - NopTracer: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer for post-mortem dumps
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only dumps on failure
//   - LevelPhase: Commands and depth budgets
//   - LevelDetail: Oracle calls
//   - LevelDebug: Everything including search nodes
//
// # Scopes
//
//   - ScopeDriver: Top-level CLI operations
//   - ScopeBudget: One iterative-deepening stage
//   - ScopeOracle: Validator calls
//   - ScopeNode: Individual search nodes
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeBudget, "budget", parentID)
//	defer span.End("")
package trace
