package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bracefix/internal/trace"
)

// traceCleanup flushes and closes the tracer installed by setupTracing.
var traceCleanup func()

func addTraceFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.String("trace", "", "trace output file (- for stderr, .ndjson for NDJSON)")
	fs.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	fs.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	fs.String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	fs.Int("trace-ring-size", 4096, "events kept in the ring buffer")
	fs.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 = off)")
}

// setupTracing inspects trace-related flags and initializes the tracer.
// It returns a cleanup function and an error if initialization fails.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}

	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}

	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}

	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}

	// --trace без уровня включает фазы
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		ctx := trace.WithTracer(cmd.Context(), trace.Nop)
		cmd.SetContext(ctx)
		return func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	// явный файл без режима означает поток
	if traceOutput != "" && !root.PersistentFlags().Changed("trace-mode") {
		mode = trace.ModeStream
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	root.SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	cleanup := func() {
		heartbeat.Stop()
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}

	return cleanup, nil
}

// dumpTraceRing writes the ring buffer, if any, to stderr. Called when a
// command fails.
func dumpTraceRing(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		return
	}
	ring := trace.FindRing(trace.FromContext(ctx))
	if ring == nil || ring.Len() == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "--- trace: last %d events (%s) ---\n", ring.Len(), time.Now().Format(time.RFC3339))
	if err := ring.Dump(os.Stderr, trace.FormatText); err != nil {
		fmt.Fprintf(os.Stderr, "trace: dump error: %v\n", err)
	}
}

// dumpTraceOnPanic dumps the ring buffer before re-panicking.
func dumpTraceOnPanic(cmd *cobra.Command) {
	if r := recover(); r != nil {
		dumpTraceRing(cmd)
		panic(r)
	}
}
