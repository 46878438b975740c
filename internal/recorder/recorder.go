// Package recorder owns the trace log sink and the timing-mark store for one
// instrumentation session. It is an explicit object with an init/flush/close
// lifecycle, passed by reference into the instrumentation layer; there is no
// process-wide singleton.
package recorder

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Recorder serializes structured trace lines to an append-only log file and
// collects timing marks for a later dump. All methods are goroutine-safe,
// but a single Recorder must not be shared between concurrently active
// sessions.
type Recorder struct {
	mu        sync.Mutex
	enabled   bool
	timing    bool
	logPath   string
	timerPath string
	logFile   *os.File
	logW      *bufio.Writer
	marks     []Mark
	seq       uint64
	now       func() time.Time
}

// New returns a disabled Recorder. Call Enable and SetLogPath before
// recording log lines; SetTimerPath before recording timing marks.
func New() *Recorder {
	return &Recorder{now: time.Now}
}

// Enable turns on log-line recording.
func (r *Recorder) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
}

// Disable turns off log-line recording. Lines recorded while disabled are
// dropped silently.
func (r *Recorder) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

// Enabled reports whether log lines are currently recorded.
func (r *Recorder) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// SetLogPath opens the log sink at path, creating parent directories as
// needed. The file is opened in append mode so per-rank logs survive
// repeated sessions.
func (r *Recorder) SetLogPath(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.logFile != nil {
		return fmt.Errorf("log path already set to %s", r.logPath)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open trace log: %w", err)
	}
	r.logPath = path
	r.logFile = f
	r.logW = bufio.NewWriter(f)
	return nil
}

// SetTimerPath arms timing-mark recording and sets the dump destination.
func (r *Recorder) SetTimerPath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timerPath = path
	r.timing = true
}

// RecordLog appends one line to the log sink. No-op while disabled or before
// SetLogPath.
func (r *Recorder) RecordLog(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled || r.logW == nil {
		return
	}
	// Best-effort write - trace logging must not disrupt the traced run.
	_, _ = r.logW.WriteString(line)
	_ = r.logW.WriteByte('\n')
}

// RecordTime stores one timing delimiter. No-op until SetTimerPath.
func (r *Recorder) RecordTime(phase Phase, label, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.timing {
		return
	}
	r.seq++
	r.marks = append(r.marks, Mark{
		Seq:   r.seq,
		Phase: phase,
		Label: label,
		Scope: scope,
		At:    r.now(),
	})
}

// RecordDuration emits one duration sample line for the currently open
// operation, in the same units the offline parser aggregates.
func (r *Recorder) RecordDuration(v float64) {
	r.RecordLog(fmt.Sprintf("DURATION: %g", v))
}

// RecordIterationMark emits the session delimiter line that scopes one
// aggregation window in the offline parser.
func (r *Recorder) RecordIterationMark(iter int, lr, loss float64) {
	r.RecordLog(fmt.Sprintf("iteration %d, learning rate %g, loss %g", iter, lr, loss))
}

// Marks returns a snapshot of the recorded timing marks in emission order.
func (r *Recorder) Marks() []Mark {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Mark, len(r.marks))
	copy(out, r.marks)
	return out
}

// Flush writes buffered log lines to disk and, if timing is armed, dumps the
// collected marks to the timer path.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if r.logW != nil {
		if err := r.logW.Flush(); err != nil {
			return fmt.Errorf("failed to flush trace log: %w", err)
		}
	}
	if !r.timing {
		return nil
	}
	data, err := msgpack.Marshal(markDump{Schema: markDumpSchemaVersion, Marks: r.marks})
	if err != nil {
		return fmt.Errorf("failed to encode timing marks: %w", err)
	}
	if dir := filepath.Dir(r.timerPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create timer directory: %w", err)
		}
	}
	if err := os.WriteFile(r.timerPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write timing marks: %w", err)
	}
	return nil
}

// Close flushes and releases the log sink. Safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	flushErr := r.flushLocked()
	r.enabled = false
	if r.logFile != nil {
		if err := r.logFile.Close(); err != nil && flushErr == nil {
			flushErr = fmt.Errorf("failed to close trace log: %w", err)
		}
		r.logFile = nil
		r.logW = nil
	}
	return flushErr
}
