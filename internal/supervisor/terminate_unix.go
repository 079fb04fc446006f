//go:build !windows

package supervisor

import (
	"os"
	"syscall"
)

// terminate asks the process to shut down cooperatively.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// kill ends the process immediately.
func kill(p *os.Process) error {
	return p.Kill()
}
