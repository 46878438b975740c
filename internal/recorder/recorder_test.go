package recorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecordLogWritesLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "0.log")

	r := New()
	r.Enable()
	if err := r.SetLogPath(logPath); err != nil {
		t.Fatalf("SetLogPath: %v", err)
	}

	r.RecordLog("[BEGIN FORWARD]: net")
	r.RecordDuration(1.5)
	r.RecordLog("[END FORWARD]: net")
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "[BEGIN FORWARD]: net\nDURATION: 1.5\n[END FORWARD]: net\n"
	if string(data) != want {
		t.Fatalf("log content = %q, want %q", data, want)
	}
}

func TestRecordLogDroppedWhileDisabled(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "0.log")

	r := New()
	if err := r.SetLogPath(logPath); err != nil {
		t.Fatalf("SetLogPath: %v", err)
	}
	r.RecordLog("dropped")
	r.Enable()
	r.RecordLog("kept")
	r.Disable()
	r.RecordLog("dropped again")
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "kept\n" {
		t.Fatalf("log content = %q, want %q", data, "kept\n")
	}
}

func TestRecordIterationMarkFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "0.log")

	r := New()
	r.Enable()
	if err := r.SetLogPath(logPath); err != nil {
		t.Fatalf("SetLogPath: %v", err)
	}
	r.RecordIterationMark(10, 0.001, 2.71)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := strings.TrimSpace(string(data))
	for _, sub := range []string{"iteration", "learning", "loss"} {
		if !strings.Contains(line, sub) {
			t.Errorf("iteration mark %q missing substring %q", line, sub)
		}
	}
}

func TestTimingMarksRoundTrip(t *testing.T) {
	dir := t.TempDir()
	timerPath := filepath.Join(dir, "marks.msgpack")

	r := New()
	r.now = func() time.Time { return time.Unix(42, 0).UTC() }
	r.SetTimerPath(timerPath)

	r.RecordTime(PhaseBegin, "Net", "Module L0")
	r.RecordTime(PhaseBegin, "aten.add", "aten op")
	r.RecordTime(PhaseEnd, "aten.add", "aten op")
	r.RecordTime(PhaseEnd, "Net", "Module L0")
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	marks, err := ReadMarks(timerPath)
	if err != nil {
		t.Fatalf("ReadMarks: %v", err)
	}
	if len(marks) != 4 {
		t.Fatalf("len(marks) = %d, want 4", len(marks))
	}
	if marks[0].Phase != PhaseBegin || marks[0].Label != "Net" || marks[0].Scope != "Module L0" {
		t.Errorf("marks[0] = %+v", marks[0])
	}
	if marks[2].Phase != PhaseEnd || marks[2].Scope != "aten op" {
		t.Errorf("marks[2] = %+v", marks[2])
	}
	for i, m := range marks {
		if m.Seq != uint64(i+1) {
			t.Errorf("marks[%d].Seq = %d, want %d", i, m.Seq, i+1)
		}
	}
}

func TestRecordTimeNoopWithoutTimerPath(t *testing.T) {
	r := New()
	r.RecordTime(PhaseBegin, "Net", "Module L0")
	if got := r.Marks(); len(got) != 0 {
		t.Fatalf("Marks = %v, want empty", got)
	}
}

func TestCloseTwice(t *testing.T) {
	dir := t.TempDir()
	r := New()
	r.Enable()
	if err := r.SetLogPath(filepath.Join(dir, "0.log")); err != nil {
		t.Fatalf("SetLogPath: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
