package supervisor

import (
	"bufio"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hypanel/hypanel/internal/events"
)

// Options holds the supervision timing tunables.
type Options struct {
	// ExitPollInterval is how often the exit monitor checks a live process.
	ExitPollInterval time.Duration
	// StopPollInterval is how often the stop sequence re-checks for exit.
	StopPollInterval time.Duration
	// StopTimeout bounds the graceful-shutdown wait before force kill.
	StopTimeout time.Duration
}

// DefaultOptions returns the reference timings.
func DefaultOptions() Options {
	return Options{
		ExitPollInterval: 500 * time.Millisecond,
		StopPollInterval: 200 * time.Millisecond,
		StopTimeout:      10 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ExitPollInterval <= 0 {
		o.ExitPollInterval = def.ExitPollInterval
	}
	if o.StopPollInterval <= 0 {
		o.StopPollInterval = def.StopPollInterval
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = def.StopTimeout
	}
	return o
}

// StatusInfo describes one instance's current process state.
type StatusInfo struct {
	InstanceID string              `json:"instance_id"`
	Status     events.ServerStatus `json:"status"`
	PID        int                 `json:"pid,omitempty"`
	StartedAt  string              `json:"started_at,omitempty"`
}

// Supervisor owns the mapping from instance ids to live server processes.
// Each live process is attended by four loops (stdin writer, stdout reader,
// stderr reader, exit monitor) plus a single goroutine that performs the
// process wait; they share state only through the registry and the handle's
// command queue.
type Supervisor struct {
	registry *Registry
	sink     events.Sink
	opts     Options
}

// New creates a supervisor publishing to sink. The registry is injected so
// tests can build isolated registries per case.
func New(registry *Registry, sink events.Sink, opts Options) *Supervisor {
	return &Supervisor{
		registry: registry,
		sink:     sink,
		opts:     opts.withDefaults(),
	}
}

// Registry exposes the supervisor's registry for status consumers.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// Start validates the launch spec, spawns the server process and fans out
// its attendant loops. It returns the new pid, or ErrAlreadyRunning, an
// *ArtifactMissingError or a *SpawnError without mutating the registry.
func (s *Supervisor) Start(spec LaunchSpec) (int, error) {
	log.Printf("[supervisor:%s] starting instance", spec.InstanceID)

	if s.registry.Contains(spec.InstanceID) {
		return 0, ErrAlreadyRunning
	}

	s.publishStatus(spec.InstanceID, events.StatusStarting, nil)

	cmd, err := buildCommand(spec)
	if err != nil {
		s.publishStatus(spec.InstanceID, events.StatusStopped, nil)
		return 0, err
	}

	pid, err := s.launch(spec.InstanceID, cmd)
	if err != nil {
		s.publishStatus(spec.InstanceID, events.StatusStopped, nil)
		return 0, err
	}

	log.Printf("[supervisor:%s] process spawned with pid %d", spec.InstanceID, pid)
	return pid, nil
}

// launch spawns cmd with piped stdio, registers the handle and starts the
// four per-process loops. The pipes are created explicitly so that nothing
// tears down the read ends before the reader loops drain them.
func (s *Supervisor) launch(instanceID string, cmd *exec.Cmd) (int, error) {
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return 0, &SpawnError{Err: err}
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW)
		return 0, &SpawnError{Err: err}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW, stdoutR, stdoutW)
		return 0, &SpawnError{Err: err}
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		closeAll(stdinR, stdinW, stdoutR, stdoutW, stderrR, stderrW)
		return 0, &SpawnError{Err: err}
	}

	// The child holds its own copies now.
	closeAll(stdinR, stdoutW, stderrW)

	h := newHandle(instanceID, cmd, stdinW)
	go h.wait()

	if err := s.registry.Register(instanceID, h); err != nil {
		// Lost a race against a concurrent start for the same id.
		log.Printf("[supervisor:%s] registry conflict after spawn, killing pid %d", instanceID, h.PID())
		_ = cmd.Process.Kill()
		h.closeStdin()
		closeAll(stdinW, stdoutR, stderrR)
		return 0, err
	}

	s.publishStatus(instanceID, events.StatusRunning, h)

	// Fan out after the registry lock is released. Callers must not assume
	// stdout events have begun by the time they observe Running.
	go s.writeStdin(h)
	go s.readStream(h, stdoutR, "stdout")
	go s.readStream(h, stderrR, "stderr")
	go s.monitorExit(h)

	return h.PID(), nil
}

// Stop runs the graceful-then-forceful termination sequence: cooperative
// signal, bounded wait, force kill. It blocks up to the stop timeout and
// returns once the registry entry is reclaimed.
func (s *Supervisor) Stop(instanceID string) error {
	h, ok := s.registry.Lookup(instanceID)
	if !ok {
		return ErrNotRunning
	}

	log.Printf("[supervisor:%s] stopping pid %d", instanceID, h.PID())
	s.publishStatus(instanceID, events.StatusStopping, nil)

	// A failed signal does not abort the sequence; the registry entry must
	// still be reclaimed after the timeout.
	if err := terminate(h.cmd.Process); err != nil {
		log.Printf("[supervisor:%s] graceful signal failed: %v", instanceID, err)
	}

	deadline := time.Now().Add(s.opts.StopTimeout)
	for !h.Exited() && time.Now().Before(deadline) {
		time.Sleep(s.opts.StopPollInterval)
	}

	if !h.Exited() {
		log.Printf("[supervisor:%s] graceful shutdown timeout, forcing kill", instanceID)
		if err := kill(h.cmd.Process); err != nil {
			log.Printf("[supervisor:%s] force kill failed: %v", instanceID, err)
		}
	}

	// Idempotent with the exit monitor: whichever removes first emits the
	// single Stopped transition.
	if s.registry.Remove(instanceID) {
		h.closeStdin()
		s.publishStatus(instanceID, events.StatusStopped, nil)
	}

	return nil
}

// SendCommand enqueues text for the instance's stdin writer, appending a
// trailing newline if missing. The queue is unbounded, so this returns false
// only when the instance is not running; it does not report whether the
// eventual write succeeds.
func (s *Supervisor) SendCommand(instanceID, command string) bool {
	h, ok := s.registry.Lookup(instanceID)
	if !ok {
		log.Printf("[supervisor:%s] command dropped, server not running", instanceID)
		return false
	}
	return h.enqueue(command)
}

// Status reports the current state of one instance. Absent from the
// registry means Stopped.
func (s *Supervisor) Status(instanceID string) StatusInfo {
	h, ok := s.registry.Lookup(instanceID)
	if !ok {
		return StatusInfo{InstanceID: instanceID, Status: events.StatusStopped}
	}

	return StatusInfo{
		InstanceID: instanceID,
		Status:     events.StatusRunning,
		PID:        h.PID(),
		StartedAt:  h.StartedAt.UTC().Format(time.RFC3339),
	}
}

// StatusAll reports the state of every live instance.
func (s *Supervisor) StatusAll() []StatusInfo {
	snapshot := s.registry.Snapshot()
	infos := make([]StatusInfo, 0, len(snapshot))
	for _, entry := range snapshot {
		infos = append(infos, StatusInfo{
			InstanceID: entry.InstanceID,
			Status:     events.StatusRunning,
			PID:        entry.PID,
			StartedAt:  entry.StartedAt.UTC().Format(time.RFC3339),
		})
	}
	return infos
}

// writeStdin drains the handle's command queue into the process's stdin,
// flushing after every command. A write error ends the loop without killing
// the process; exit detection stays with the monitor.
func (s *Supervisor) writeStdin(h *Handle) {
	defer h.stdin.Close()

	w := bufio.NewWriter(h.stdin)
	for {
		command, ok := h.nextCommand()
		if !ok {
			return
		}
		if !strings.HasSuffix(command, "\n") {
			command += "\n"
		}
		if _, err := w.WriteString(command); err != nil {
			log.Printf("[stdin:%s] write error: %v", h.InstanceID, err)
			return
		}
		if err := w.Flush(); err != nil {
			log.Printf("[stdin:%s] flush error: %v", h.InstanceID, err)
			return
		}
	}
}

// readStream reads one output stream line by line until end of stream,
// publishing every line and running stdout lines through the classifier.
// Stream termination never mutates the registry; cleanup belongs to the
// exit monitor.
func (s *Supervisor) readStream(h *Handle, r io.ReadCloser, stream string) {
	defer r.Close()

	// ReadString grows its buffer as needed; console lines have no length cap.
	reader := bufio.NewReaderSize(r, 64*1024)

	// Last captured profile name lives only as long as this loop.
	lastProfile := ""

	for {
		raw, readErr := reader.ReadString('\n')
		if raw == "" && readErr != nil {
			if readErr != io.EOF {
				log.Printf("[%s:%s] read error: %v", stream, h.InstanceID, readErr)
			}
			return
		}
		line := strings.TrimRight(raw, "\r\n")

		s.sink.Publish(events.OutputLineEvent{
			InstanceID: h.InstanceID,
			Stream:     stream,
			Line:       line,
			Timestamp:  time.Now().UTC(),
		})

		if stream != "stdout" {
			continue
		}

		c := Classify(line)
		if c.Profile != "" {
			lastProfile = c.Profile
		}

		switch {
		case c.AuthNeeded:
			s.sink.Publish(events.AuthNeededEvent{
				InstanceID: h.InstanceID,
				Message:    "Server requires authentication. Click 'Start Authentication' to begin.",
			})
		case c.NeedsPersistence:
			s.sink.Publish(events.AuthNeedsPersistenceEvent{InstanceID: h.InstanceID})
		case c.Challenge != nil:
			s.sink.Publish(events.AuthRequiredEvent{
				InstanceID: h.InstanceID,
				URL:        c.Challenge.URL,
				Code:       c.Challenge.Code,
			})
		case c.Success:
			s.sink.Publish(events.AuthSuccessEvent{
				InstanceID:  h.InstanceID,
				ProfileName: lastProfile,
				Mode:        c.AuthMode,
			})
		}
	}
}

// monitorExit polls for unattended process termination. On self-exit it
// performs the transition to Stopped; an explicit stop wins by removing
// the registry entry first.
func (s *Supervisor) monitorExit(h *Handle) {
	ticker := time.NewTicker(s.opts.ExitPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !s.registry.Contains(h.InstanceID) {
			// Removed by an explicit stop; ownership has moved on.
			return
		}

		if !h.Exited() {
			continue
		}

		if s.registry.Remove(h.InstanceID) {
			log.Printf("[monitor:%s] process exited: %v", h.InstanceID, h.waitErr)
			h.closeStdin()
			s.publishStatus(h.InstanceID, events.StatusStopped, nil)
			s.sink.Publish(events.ProcessExitedEvent{InstanceID: h.InstanceID})
		}
		return
	}
}

func (s *Supervisor) publishStatus(instanceID string, status events.ServerStatus, h *Handle) {
	ev := events.StatusChangedEvent{
		InstanceID: instanceID,
		Status:     status,
	}
	if h != nil {
		ev.PID = h.PID()
		ev.StartedAt = h.StartedAt.UTC().Format(time.RFC3339)
	}
	s.sink.Publish(ev)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
