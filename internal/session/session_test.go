package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modprof/internal/tree"
)

// fakeModule is a traced unit that supports both enumeration and hooks.
type fakeModule struct {
	display  string
	children []tree.Child
	hooks    map[HookPoint][]HookFunc
}

func newFakeModule(display string, children ...tree.Child) *fakeModule {
	return &fakeModule{
		display:  display,
		children: children,
		hooks:    make(map[HookPoint][]HookFunc),
	}
}

func (m *fakeModule) DisplayName() string         { return m.display }
func (m *fakeModule) NamedChildren() []tree.Child { return m.children }

func (m *fakeModule) AddHook(point HookPoint, fn HookFunc) {
	m.hooks[point] = append(m.hooks[point], fn)
}

func (m *fakeModule) fire(point HookPoint) {
	for _, fn := range m.hooks[point] {
		fn()
	}
}

// fakeDispatcher records the installed interceptor.
type fakeDispatcher struct {
	ic        Interceptor
	installed bool
}

func (d *fakeDispatcher) Install(ic Interceptor) {
	d.ic = ic
	d.installed = true
}

func (d *fakeDispatcher) Uninstall() {
	d.ic = nil
	d.installed = false
}

// dispatch runs an op through the installed interceptor, or directly when
// nothing is installed.
func (d *fakeDispatcher) dispatch(op string, invoke Invoke) (any, error) {
	if d.ic != nil {
		return d.ic(op, invoke)
	}
	return invoke()
}

func startTestSession(t *testing.T, cfg Config, d Dispatcher, roots ...tree.Node) *Session {
	t.Helper()
	dir := t.TempDir()
	cfg.LogDir = dir
	cfg.TimerPath = filepath.Join(dir, "marks.msgpack")
	s, err := Start(d, roots, cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func readLog(t *testing.T, s *Session) []string {
	t.Helper()
	path := filepath.Join(s.cfg.LogDir, "0.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestForwardHooksEmitPairedLines(t *testing.T) {
	child := newFakeModule("Linear")
	root := newFakeModule("Net", tree.Child{Name: "fc", Node: child})

	s := startTestSession(t, Config{Verbose: true}, nil, root)

	// Simulated forward pass: enter root, enter child, exit child, exit root.
	root.fire(ForwardEnter)
	child.fire(ForwardEnter)
	child.fire(ForwardExit)
	root.fire(ForwardExit)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := []string{
		"[BEGIN FORWARD]: Net",
		"[BEGIN FORWARD]: Net#fc",
		"[END FORWARD]: Net#fc",
		"[END FORWARD]: Net",
	}
	got := readLog(t, s)
	if len(got) != len(want) {
		t.Fatalf("log lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBackwardHooksOnlyWhenEnabled(t *testing.T) {
	root := newFakeModule("Net")
	s := startTestSession(t, Config{Verbose: true}, nil, root)
	if len(root.hooks[BackwardEnter]) != 0 || len(root.hooks[BackwardExit]) != 0 {
		t.Fatalf("backward hooks registered without ProfileBackward")
	}
	_ = s.Close()

	root = newFakeModule("Net")
	s = startTestSession(t, Config{Verbose: true, ProfileBackward: true}, nil, root)
	root.fire(BackwardEnter)
	root.fire(BackwardExit)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := readLog(t, s)
	want := []string{
		"[BEGINE BACKWARD]: Net_backward",
		"[END BACKWARD]: Net_backward",
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("log lines = %v, want %v", got, want)
	}
}

func TestInterceptWrapsOperation(t *testing.T) {
	d := &fakeDispatcher{}
	s := startTestSession(t, Config{Verbose: true}, d)
	if !d.installed {
		t.Fatal("interceptor not installed")
	}

	out, err := d.dispatch("aten.add.Tensor", func() (any, error) {
		s.Recorder().RecordDuration(2.5)
		return 42, nil
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out != 42 {
		t.Fatalf("dispatch result = %v, want 42", out)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.installed {
		t.Fatal("interceptor still installed after Close")
	}

	want := []string{
		"[START_SYMBOL]: aten.add.Tensor",
		"DURATION: 2.5",
		"[END_SYMBOL]: aten.add.Tensor",
	}
	got := readLog(t, s)
	if len(got) != len(want) {
		t.Fatalf("log lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInterceptPropagatesErrors(t *testing.T) {
	d := &fakeDispatcher{}
	s := startTestSession(t, Config{Verbose: true}, d)

	opErr := errors.New("cuda out of memory")
	_, err := d.dispatch("aten.mm", func() (any, error) { return nil, opErr })
	if !errors.Is(err, opErr) {
		t.Fatalf("dispatch error = %v, want %v", err, opErr)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The end records are still written when the op fails.
	got := readLog(t, s)
	if len(got) != 2 || got[1] != "[END_SYMBOL]: aten.mm" {
		t.Fatalf("log lines = %v, want START/END pair", got)
	}
}

func TestExcludedRankIsInert(t *testing.T) {
	d := &fakeDispatcher{}
	root := newFakeModule("Net")

	s := startTestSession(t, Config{Verbose: true, Rank: 3, Ranks: []int{0, 1}}, d, root)
	if s.Active() {
		t.Fatal("session active for excluded rank")
	}
	if d.installed {
		t.Fatal("interceptor installed for excluded rank")
	}
	if len(root.hooks) != 0 {
		t.Fatalf("hooks registered for excluded rank: %v", root.hooks)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.cfg.LogDir, "3.log")); !os.IsNotExist(err) {
		t.Fatalf("excluded rank wrote a log file (stat err = %v)", err)
	}
}

func TestIncludedRankInstruments(t *testing.T) {
	root := newFakeModule("Net")
	s := startTestSession(t, Config{Rank: 1, Ranks: []int{0, 1}}, nil, root)
	if !s.Active() {
		t.Fatal("session inert for included rank")
	}
	if len(root.hooks[ForwardEnter]) != 1 {
		t.Fatalf("forward-enter hooks = %d, want 1", len(root.hooks[ForwardEnter]))
	}
	_ = s.Close()
}

func TestTimingMarksFlushedOnClose(t *testing.T) {
	d := &fakeDispatcher{}
	s := startTestSession(t, Config{}, d)

	_, _ = d.dispatch("aten.relu", func() (any, error) { return nil, nil })
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(s.cfg.TimerPath); err != nil {
		t.Fatalf("timer dump missing: %v", err)
	}
	marks := s.Recorder().Marks()
	if len(marks) != 2 {
		t.Fatalf("marks = %d, want 2", len(marks))
	}
	if marks[0].Scope != "aten op" || marks[1].Scope != "aten op" {
		t.Fatalf("mark scopes = %q/%q, want \"aten op\"", marks[0].Scope, marks[1].Scope)
	}
}
