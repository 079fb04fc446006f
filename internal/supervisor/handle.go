package supervisor

import (
	"io"
	"os/exec"
	"sync"
	"time"
)

// Handle is the supervisor's exclusive-ownership record for one live OS
// process. Exactly one Handle references a given process; the process is
// waited on by a single goroutine started at spawn time, and everything
// else observes termination through Exited.
//
// The command queue is an unbounded FIFO: enqueue never blocks and never
// drops while the queue is open, however far producers run ahead of a
// stalled stdin pipe.
type Handle struct {
	InstanceID string
	StartedAt  time.Time

	cmd   *exec.Cmd
	stdin io.WriteCloser

	queueMu     sync.Mutex
	queueReady  *sync.Cond
	pending     []string
	queueClosed bool

	done    chan struct{}
	waitErr error
}

func newHandle(instanceID string, cmd *exec.Cmd, stdin io.WriteCloser) *Handle {
	h := &Handle{
		InstanceID: instanceID,
		StartedAt:  time.Now(),
		cmd:        cmd,
		stdin:      stdin,
		done:       make(chan struct{}),
	}
	h.queueReady = sync.NewCond(&h.queueMu)
	return h
}

// PID returns the OS process id.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// wait blocks until the process exits and records the result. Called exactly
// once, from the goroutine that owns the process wait.
func (h *Handle) wait() {
	h.waitErr = h.cmd.Wait()
	close(h.done)
}

// Exited reports, without blocking, whether the process has terminated.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// enqueue appends a command for the stdin writer. It never blocks; false
// means the queue has been closed, which only happens once the instance is
// being torn down.
func (h *Handle) enqueue(command string) bool {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()

	if h.queueClosed {
		return false
	}
	h.pending = append(h.pending, command)
	h.queueReady.Signal()
	return true
}

// nextCommand blocks until a command is available or the queue is closed.
// False means closed and drained.
func (h *Handle) nextCommand() (string, bool) {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()

	for len(h.pending) == 0 && !h.queueClosed {
		h.queueReady.Wait()
	}
	if len(h.pending) == 0 {
		return "", false
	}

	command := h.pending[0]
	h.pending = h.pending[1:]
	return command, true
}

// closeStdin closes the command queue, releasing the stdin writer loop once
// it has drained. Safe to call more than once; the exit monitor and the stop
// sequence may both reach it.
func (h *Handle) closeStdin() {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()

	if !h.queueClosed {
		h.queueClosed = true
		h.queueReady.Broadcast()
	}
}
