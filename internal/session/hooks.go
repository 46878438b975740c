package session

import (
	"strconv"

	"modprof/internal/recorder"
)

// HookPoint identifies where on a node a hook fires.
type HookPoint uint8

const (
	ForwardEnter HookPoint = iota + 1
	ForwardExit
	BackwardEnter
	BackwardExit
)

// HookFunc is invoked by the engine at the hook point, in call/return order
// on one logical thread of control.
type HookFunc func()

// Hookable is the capability a node must expose to receive entry/exit hooks.
// Nodes without it are enumerated but not instrumented.
type Hookable interface {
	AddHook(point HookPoint, fn HookFunc)
}

// probe carries the per-node data captured by hook closures. Held by value so
// every hook owns an independent copy.
type probe struct {
	path  string
	depth int
}

func (p probe) scope() string {
	return "Module L" + strconv.Itoa(p.depth)
}

func (s *Session) forwardEnter(p probe) HookFunc {
	return func() {
		if s.cfg.Verbose {
			s.rec.RecordLog("[BEGIN FORWARD]: " + p.path)
		}
		s.rec.RecordTime(recorder.PhaseBegin, p.path, p.scope())
	}
}

func (s *Session) forwardExit(p probe) HookFunc {
	return func() {
		if s.cfg.Verbose {
			s.rec.RecordLog("[END FORWARD]: " + p.path)
		}
		s.rec.RecordTime(recorder.PhaseEnd, p.path, p.scope())
	}
}

// Backward hooks log the path with a "_backward" suffix so forward and
// backward intervals of the same node stay distinct in the parsed report.
// The begin tag spelling is historical and matched literally by the parser.

func (s *Session) backwardEnter(p probe) HookFunc {
	return func() {
		if s.cfg.Verbose {
			s.rec.RecordLog("[BEGINE BACKWARD]: " + p.path + "_backward")
		}
		s.rec.RecordTime(recorder.PhaseBegin, p.path, p.scope())
	}
}

func (s *Session) backwardExit(p probe) HookFunc {
	return func() {
		if s.cfg.Verbose {
			s.rec.RecordLog("[END BACKWARD]: " + p.path + "_backward")
		}
		s.rec.RecordTime(recorder.PhaseEnd, p.path, p.scope())
	}
}

func (s *Session) registerHooks(h Hookable, p probe) {
	h.AddHook(ForwardEnter, s.forwardEnter(p))
	h.AddHook(ForwardExit, s.forwardExit(p))
	if s.cfg.ProfileBackward {
		h.AddHook(BackwardEnter, s.backwardEnter(p))
		h.AddHook(BackwardExit, s.backwardExit(p))
	}
}
