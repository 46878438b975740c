package recorder

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Phase tags a timing mark as the beginning or end of an interval.
type Phase uint8

const (
	PhaseBegin Phase = iota + 1 // B
	PhaseEnd                    // E
)

// String returns the single-letter delimiter used in dumps.
func (p Phase) String() string {
	switch p {
	case PhaseBegin:
		return "B"
	case PhaseEnd:
		return "E"
	default:
		return "?"
	}
}

// Mark is one timing delimiter. Every PhaseBegin for a (Label, Scope) pair is
// followed by a matching PhaseEnd before the session closes.
type Mark struct {
	Seq   uint64
	Phase Phase
	Label string
	Scope string
	At    time.Time
}

// Current schema version - increment when the dump format changes.
const markDumpSchemaVersion uint16 = 1

// markDump is the on-disk payload written to the timer path.
type markDump struct {
	Schema uint16
	Marks  []Mark
}

// ReadMarks decodes a timing-mark dump written by Recorder.Flush.
func ReadMarks(path string) ([]Mark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing marks: %w", err)
	}
	var dump markDump
	if err := msgpack.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("%s: failed to decode timing marks: %w", path, err)
	}
	if dump.Schema != markDumpSchemaVersion {
		return nil, fmt.Errorf("%s: unsupported mark dump schema %d (expected %d)", path, dump.Schema, markDumpSchemaVersion)
	}
	return dump.Marks, nil
}
