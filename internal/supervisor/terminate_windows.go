//go:build windows

package supervisor

import (
	"os"
	"os/exec"
	"strconv"
)

// terminate asks the process to shut down cooperatively. Windows has no
// SIGTERM equivalent for console children, so taskkill delivers the
// close request.
func terminate(p *os.Process) error {
	return exec.Command("taskkill", "/PID", strconv.Itoa(p.Pid)).Run()
}

// kill ends the process immediately.
func kill(p *os.Process) error {
	return exec.Command("taskkill", "/F", "/PID", strconv.Itoa(p.Pid)).Run()
}
