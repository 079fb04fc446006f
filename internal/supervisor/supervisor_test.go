//go:build !windows

package supervisor

import (
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hypanel/hypanel/internal/events"
)

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Publish(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) snapshot() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

func (s *recordingSink) statuses(instanceID string) []events.ServerStatus {
	var out []events.ServerStatus
	for _, ev := range s.snapshot() {
		if sc, ok := ev.(events.StatusChangedEvent); ok && sc.InstanceID == instanceID {
			out = append(out, sc.Status)
		}
	}
	return out
}

func (s *recordingSink) countStatus(instanceID string, status events.ServerStatus) int {
	n := 0
	for _, got := range s.statuses(instanceID) {
		if got == status {
			n++
		}
	}
	return n
}

func (s *recordingSink) countExited(instanceID string) int {
	n := 0
	for _, ev := range s.snapshot() {
		if pe, ok := ev.(events.ProcessExitedEvent); ok && pe.InstanceID == instanceID {
			n++
		}
	}
	return n
}

func (s *recordingSink) lines(instanceID, stream string) []string {
	var out []string
	for _, ev := range s.snapshot() {
		if ol, ok := ev.(events.OutputLineEvent); ok && ol.InstanceID == instanceID && ol.Stream == stream {
			out = append(out, ol.Line)
		}
	}
	return out
}

func newTestSupervisor(stopTimeout time.Duration) (*Supervisor, *recordingSink) {
	sink := &recordingSink{}
	sv := New(NewRegistry(), sink, Options{
		ExitPollInterval: 20 * time.Millisecond,
		StopPollInterval: 20 * time.Millisecond,
		StopTimeout:      stopTimeout,
	})
	return sv, sink
}

// launchShell spawns a shell script under the supervisor, bypassing the
// launch-artifact validation that Start performs.
func launchShell(t *testing.T, sv *Supervisor, instanceID, script string) int {
	t.Helper()
	pid, err := sv.launch(instanceID, exec.Command("sh", "-c", script))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	t.Cleanup(func() {
		if h, ok := sv.Registry().Lookup(instanceID); ok {
			_ = h.cmd.Process.Kill()
		}
	})
	return pid
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestSelfExitEmitsStoppedOnce(t *testing.T) {
	sv, sink := newTestSupervisor(2 * time.Second)

	pid := launchShell(t, sv, "inst-1", "echo hello; echo oops >&2")
	if pid <= 0 {
		t.Fatalf("pid = %d", pid)
	}

	waitFor(t, 3*time.Second, func() bool {
		return sink.countStatus("inst-1", events.StatusStopped) >= 1
	}, "stopped status")

	// A few extra monitor ticks must not produce a second transition.
	time.Sleep(100 * time.Millisecond)

	if n := sink.countStatus("inst-1", events.StatusStopped); n != 1 {
		t.Errorf("stopped emitted %d times, want 1", n)
	}
	if n := sink.countExited("inst-1"); n != 1 {
		t.Errorf("process-exited emitted %d times, want 1", n)
	}
	if sv.Registry().Contains("inst-1") {
		t.Error("registry still holds exited instance")
	}

	stdout := sink.lines("inst-1", "stdout")
	if len(stdout) != 1 || stdout[0] != "hello" {
		t.Errorf("stdout lines = %v", stdout)
	}
	stderr := sink.lines("inst-1", "stderr")
	if len(stderr) != 1 || stderr[0] != "oops" {
		t.Errorf("stderr lines = %v", stderr)
	}
}

func TestStopGraceful(t *testing.T) {
	sv, sink := newTestSupervisor(2 * time.Second)

	launchShell(t, sv, "inst-1", "trap 'exit 0' TERM; while :; do sleep 0.05; done")

	if err := sv.Stop("inst-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	got := sink.statuses("inst-1")
	want := []events.ServerStatus{
		events.StatusRunning,
		events.StatusStopping,
		events.StatusStopped,
	}
	if len(got) != len(want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statuses[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// The exit monitor must not add a second terminal transition.
	time.Sleep(100 * time.Millisecond)
	if n := sink.countStatus("inst-1", events.StatusStopped); n != 1 {
		t.Errorf("stopped emitted %d times, want 1", n)
	}
	if sv.Registry().Contains("inst-1") {
		t.Error("registry still holds stopped instance")
	}
}

func TestStopForceKillsAfterTimeout(t *testing.T) {
	sv, sink := newTestSupervisor(300 * time.Millisecond)

	launchShell(t, sv, "inst-1", "trap '' TERM; sleep 60")

	start := time.Now()
	if err := sv.Stop("inst-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("stop took %v, force kill did not engage", elapsed)
	}

	if n := sink.countStatus("inst-1", events.StatusStopped); n != 1 {
		t.Errorf("stopped emitted %d times, want 1", n)
	}
	if sv.Registry().Contains("inst-1") {
		t.Error("registry still holds killed instance")
	}
}

func TestStopNotRunning(t *testing.T) {
	sv, sink := newTestSupervisor(2 * time.Second)

	if err := sv.Stop("ghost"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
	if len(sink.statuses("ghost")) != 0 {
		t.Errorf("stop of absent id emitted events: %v", sink.statuses("ghost"))
	}
}

func TestStartAlreadyRunning(t *testing.T) {
	sv, _ := newTestSupervisor(2 * time.Second)

	launchShell(t, sv, "inst-1", "sleep 60")

	_, err := sv.Start(LaunchSpec{InstanceID: "inst-1", InstancePath: t.TempDir()})
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("err = %v, want ErrAlreadyRunning", err)
	}

	if err := sv.Stop("inst-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStartMissingArtifacts(t *testing.T) {
	sv, sink := newTestSupervisor(2 * time.Second)

	_, err := sv.Start(LaunchSpec{InstanceID: "inst-1", InstancePath: t.TempDir()})
	var missing *ArtifactMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *ArtifactMissingError", err)
	}

	got := sink.statuses("inst-1")
	want := []events.ServerStatus{events.StatusStarting, events.StatusStopped}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if sv.Registry().Contains("inst-1") {
		t.Error("failed start left a registry entry")
	}
}

func TestSendCommandOrdering(t *testing.T) {
	sv, sink := newTestSupervisor(2 * time.Second)

	launchShell(t, sv, "inst-1", "cat")

	for _, command := range []string{"one", "two", "three"} {
		if !sv.SendCommand("inst-1", command) {
			t.Fatalf("enqueue of %q failed", command)
		}
	}

	waitFor(t, 3*time.Second, func() bool {
		return len(sink.lines("inst-1", "stdout")) >= 3
	}, "echoed commands")

	got := sink.lines("inst-1", "stdout")
	want := []string{"one", "two", "three"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if err := sv.Stop("inst-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestSendCommandBacklogWhileStdinBlocked(t *testing.T) {
	sv, _ := newTestSupervisor(2 * time.Second)

	// The process never reads stdin, so the pipe buffer fills and the
	// writer loop stalls mid-write. Enqueueing must keep succeeding.
	launchShell(t, sv, "inst-1", "sleep 60")

	big := strings.Repeat("x", 256*1024)
	if !sv.SendCommand("inst-1", big) {
		t.Fatal("enqueue of oversized command failed")
	}
	for i := 0; i < 72; i++ {
		if !sv.SendCommand("inst-1", "say hi") {
			t.Fatalf("enqueue %d failed while stdin was blocked", i)
		}
	}

	if err := sv.Stop("inst-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestReadStreamLongLines(t *testing.T) {
	sv, sink := newTestSupervisor(2 * time.Second)

	const longLen = 2 * 1024 * 1024
	script := "head -c 2097152 /dev/zero | tr '\\0' x; echo; echo trailing"
	launchShell(t, sv, "inst-1", script)

	waitFor(t, 5*time.Second, func() bool {
		return len(sink.lines("inst-1", "stdout")) >= 2
	}, "long line and its successor")

	got := sink.lines("inst-1", "stdout")
	if len(got[0]) != longLen {
		t.Errorf("first line length = %d, want %d", len(got[0]), longLen)
	}
	if got[1] != "trailing" {
		t.Errorf("second line = %q, want %q", got[1], "trailing")
	}
}

func TestSendCommandNotRunning(t *testing.T) {
	sv, _ := newTestSupervisor(2 * time.Second)

	if sv.SendCommand("ghost", "say hi") {
		t.Error("send to absent id reported success")
	}
}

func TestStatusReporting(t *testing.T) {
	sv, _ := newTestSupervisor(2 * time.Second)

	pid := launchShell(t, sv, "inst-1", "sleep 60")

	info := sv.Status("inst-1")
	if info.Status != events.StatusRunning || info.PID != pid {
		t.Errorf("status = %+v", info)
	}
	if info.StartedAt == "" {
		t.Error("started_at empty for running instance")
	}

	all := sv.StatusAll()
	if len(all) != 1 || all[0].InstanceID != "inst-1" {
		t.Errorf("status all = %+v", all)
	}

	if err := sv.Stop("inst-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	info = sv.Status("inst-1")
	if info.Status != events.StatusStopped || info.PID != 0 {
		t.Errorf("status after stop = %+v", info)
	}
	if len(sv.StatusAll()) != 0 {
		t.Error("status all not empty after stop")
	}
}
