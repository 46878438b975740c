// Package session is the instrumentation layer: it walks a traced module
// tree, attaches entry/exit hooks, intercepts primitive-operation dispatch
// and turns the resulting runtime events into trace log lines and timing
// marks via an explicitly owned recorder.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"modprof/internal/recorder"
	"modprof/internal/tree"
)

// opScope labels timing marks recorded around primitive operations.
const opScope = "aten op"

// Config controls one trace session.
type Config struct {
	// Verbose emits the structured log lines consumed by the offline parser.
	Verbose bool
	// ProfileBackward also hooks the backward pass. Some engines reject
	// backward hooks on views; leave it off when the traced graph does.
	ProfileBackward bool
	// Rank is this process's identifier in a distributed run. Use
	// CurrentRank for the environment-provided value.
	Rank int
	// Ranks restricts instrumentation to the listed ranks. Empty means all.
	Ranks []int
	// LogDir holds the per-rank trace logs, <LogDir>/<rank>.log.
	LogDir string
	// TimerPath is the timing-mark dump destination.
	TimerPath string
}

const (
	defaultLogDir    = "/tmp/logs"
	defaultTimerPath = "/tmp/profiling.msgpack"
)

// CurrentRank reads the rank identifier from the RANK environment variable,
// defaulting to 0 when unset or malformed.
func CurrentRank() int {
	v := os.Getenv("RANK")
	if v == "" {
		return 0
	}
	rank, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return rank
}

// Session is one instrumented execution window. It owns its recorder; no
// state is shared between sessions or ranks.
type Session struct {
	cfg        Config
	rec        *recorder.Recorder
	dispatcher Dispatcher
	active     bool
	closed     bool
}

// Start installs instrumentation for the given module trees and dispatch
// interception point. If cfg.Ranks excludes cfg.Rank the returned session is
// inert: nothing is installed and Close is a no-op.
//
// Setup order: dispatch interception, then the log recorder (verbose only),
// then timing-mark recording.
func Start(d Dispatcher, roots []tree.Node, cfg Config) (*Session, error) {
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir
	}
	if cfg.TimerPath == "" {
		cfg.TimerPath = defaultTimerPath
	}

	s := &Session{cfg: cfg, rec: recorder.New()}

	if len(cfg.Ranks) > 0 && !slices.Contains(cfg.Ranks, cfg.Rank) {
		return s, nil
	}
	s.active = true

	if d != nil {
		d.Install(s.intercept)
		s.dispatcher = d
	}

	if cfg.Verbose {
		s.rec.Enable()
		logPath := filepath.Join(cfg.LogDir, strconv.Itoa(cfg.Rank)+".log")
		if err := s.rec.SetLogPath(logPath); err != nil {
			if s.dispatcher != nil {
				s.dispatcher.Uninstall()
			}
			return nil, fmt.Errorf("failed to start trace session: %w", err)
		}
	}

	s.rec.SetTimerPath(cfg.TimerPath)

	for _, entry := range tree.WalkAll(roots, "") {
		h, ok := entry.Node.(Hookable)
		if !ok {
			continue
		}
		s.registerHooks(h, probe{path: entry.Path, depth: entry.Depth})
	}

	return s, nil
}

// intercept wraps one primitive-operation dispatch. The operation's result
// and error pass through verbatim; a panic inside the operation propagates
// without the trailing end records.
func (s *Session) intercept(op string, invoke Invoke) (any, error) {
	if s.cfg.Verbose {
		s.rec.RecordLog("[START_SYMBOL]: " + op)
	}
	s.rec.RecordTime(recorder.PhaseBegin, op, opScope)

	out, err := invoke()

	s.rec.RecordTime(recorder.PhaseEnd, op, opScope)
	if s.cfg.Verbose {
		s.rec.RecordLog("[END_SYMBOL]: " + op)
	}
	return out, err
}

// Active reports whether this session installed any instrumentation.
func (s *Session) Active() bool {
	return s.active
}

// Recorder exposes the session's recorder so the traced run can feed
// duration samples and iteration marks into the same log.
func (s *Session) Recorder() *recorder.Recorder {
	return s.rec
}

// Close flushes timing marks to the timer path, closes the log sink and
// removes dispatch interception. Safe to call more than once.
func (s *Session) Close() error {
	if !s.active || s.closed {
		return nil
	}
	s.closed = true

	if s.dispatcher != nil {
		s.dispatcher.Uninstall()
	}
	if err := s.rec.Close(); err != nil {
		return fmt.Errorf("failed to close trace session: %w", err)
	}
	return nil
}
