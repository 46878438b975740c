// Package parse reconstructs one traced iteration from a completed trace log.
// It is a single-pass, stack-based state machine: module BEGIN/END lines open
// and close frames, operation START/END lines scope duration samples, and one
// pass yields the ordered report rows, per-operation totals and the iteration
// grand total. The first structural violation aborts the parse; there is no
// partial report.
package parse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MatchMode controls how an operation END name is checked against the open
// operation.
type MatchMode uint8

const (
	// MatchExact requires the END name to equal the open operation's name.
	MatchExact MatchMode = iota
	// MatchSubstring accepts an END name that merely contains the open
	// operation's name. Kept for compatibility with existing traces; it can
	// mask real mismatches.
	MatchSubstring
)

// OrphanPolicy controls duration samples observed with no operation open.
type OrphanPolicy uint8

const (
	// OrphanAccumulate feeds orphan samples into the open module frame and
	// the iteration total, matching historical traces where module-level
	// kernels report time outside any dispatched operation.
	OrphanAccumulate OrphanPolicy = iota
	// OrphanError fails the parse on the first orphan sample.
	OrphanError
)

// Options tune parser strictness.
type Options struct {
	Match   MatchMode
	Orphans OrphanPolicy
}

// RowKind tags a report row.
type RowKind uint8

const (
	RowOp            RowKind = iota + 1 // leaf operation interval
	RowModuleSummary                    // module frame flush
)

// Row is one line of the ordered report. Rows mirror nesting/occurrence
// order, not duration order.
type Row struct {
	Kind            RowKind
	Module          string  // leaf rows: enclosing frame path, "" at top level
	Name            string  // leaf rows: operation name
	TotalTime       float64 // leaf rows: summed samples for this interval
	ModuleTotalTime float64 // summary rows: kernel time attributed to the frame
}

// Report aggregates one iteration window.
type Report struct {
	Rows           []Row
	Totals         map[string]float64
	IterationTotal float64
}

// frame is one open module interval. kernelTime accumulates samples observed
// directly under this frame and is reset each time the frame is flushed as a
// summary row.
type frame struct {
	name       string
	kernelTime float64
}

// ParseFile parses the log at path. A nonexistent path yields
// ErrMissingInput.
func ParseFile(path string, opts Options) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("failed to open trace log: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f, opts)
}

// Parse consumes a trace log and aggregates the first iteration window: the
// span between the first iteration-marker line and either the second marker
// or end of input. Input before the first marker is ignored; input after the
// second is not read.
func Parse(r io.Reader, opts Options) (*Report, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	rep := &Report{Totals: make(map[string]float64)}

	var (
		stack   []frame
		opOpen  bool
		opName  string
		opTime  float64
		started bool
		lineno  int
	)

	flushTop := func() {
		top := &stack[len(stack)-1]
		rep.Rows = append(rep.Rows, Row{Kind: RowModuleSummary, ModuleTotalTime: top.kernelTime})
		top.kernelTime = 0
	}

	for sc.Scan() {
		lineno++
		line := strings.TrimRight(sc.Text(), "\r")

		if !started {
			if isIterationMark(line) {
				started = true
			}
			continue
		}

		ev, err := decodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}

		switch ev.Kind {
		case KindIterationMark:
			// Second marker closes the window; the rest of the log belongs
			// to later iterations and is not read.
			return rep, nil

		case KindModuleBegin:
			if len(stack) > 0 && stack[len(stack)-1].kernelTime > 0 {
				flushTop()
			}
			stack = append(stack, frame{name: ev.Name})

		case KindModuleEnd:
			if len(stack) == 0 {
				return nil, fmt.Errorf("line %d: %w: END %q with no open module frame", lineno, ErrNestingViolation, ev.Name)
			}
			flushTop()
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.name != ev.Name {
				return nil, fmt.Errorf("line %d: %w: expected %q, got %q", lineno, ErrNestingViolation, top.name, ev.Name)
			}

		case KindOpBegin:
			if opOpen {
				return nil, fmt.Errorf("line %d: %w: %q begun while %q is open", lineno, ErrOpOverlap, ev.Name, opName)
			}
			opOpen = true
			opName = ev.Name
			opTime = 0

		case KindDuration:
			if !opOpen && opts.Orphans == OrphanError {
				return nil, fmt.Errorf("line %d: %w", lineno, ErrOrphanDuration)
			}
			if opOpen {
				opTime += ev.Value
			}
			if len(stack) > 0 {
				stack[len(stack)-1].kernelTime += ev.Value
			}
			rep.IterationTotal += ev.Value

		case KindOpEnd:
			if !opOpen {
				return nil, fmt.Errorf("line %d: %w: END %q with no open operation", lineno, ErrSymbolMismatch, ev.Name)
			}
			if !opts.Match.matches(opName, ev.Name) {
				return nil, fmt.Errorf("line %d: %w: expected %q, got %q", lineno, ErrSymbolMismatch, opName, ev.Name)
			}
			module := ""
			if len(stack) > 0 {
				module = stack[len(stack)-1].name
			}
			rep.Rows = append(rep.Rows, Row{Kind: RowOp, Module: module, Name: opName, TotalTime: opTime})
			rep.Totals[opName] += opTime
			opOpen = false
			opName = ""
			opTime = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace log: %w", err)
	}

	// End of input with no closing marker: the single-iteration window is
	// implicitly closed.
	return rep, nil
}

func (m MatchMode) matches(open, end string) bool {
	if m == MatchSubstring {
		return strings.Contains(end, open)
	}
	return open == end
}
