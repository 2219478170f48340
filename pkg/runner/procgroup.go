package runner

import (
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// processGroupCleanup manages process group lifecycle for graceful shutdown.
// go test spawns the playwright driver which spawns chromium; killing only
// the direct child would leave headless browsers behind, so cancellation
// kills the entire group.
type processGroupCleanup struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
	err  error
}

// setupProcessGroup configures command to run in its own process group.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// newProcessGroupCleanup creates a cleanup handler for the given command.
// the command must already be started before calling this.
func newProcessGroupCleanup(cmd *exec.Cmd, cancelCh <-chan struct{}) *processGroupCleanup {
	pg := &processGroupCleanup{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go pg.watchForCancel(cancelCh)
	return pg
}

// watchForCancel kills the process group when the cancel channel fires.
func (pg *processGroupCleanup) watchForCancel(cancelCh <-chan struct{}) {
	select {
	case <-cancelCh:
		pg.killProcessGroup()
	case <-pg.done:
		// process completed normally, goroutine exits
	}
}

// killProcessGroup sends SIGTERM followed by SIGKILL to the entire group.
func (pg *processGroupCleanup) killProcessGroup() {
	if pg.cmd.Process == nil {
		return
	}

	pgid := -pg.cmd.Process.Pid

	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		// process might already be dead (ESRCH), that's fine
		if err != syscall.ESRCH {
			fmt.Printf("[runner] SIGTERM failed for pgid %d: %v\n", pgid, err)
		}
		return
	}

	// brief delay for graceful shutdown, the driver needs it to close browsers
	time.Sleep(100 * time.Millisecond)

	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil {
		if err != syscall.ESRCH {
			fmt.Printf("[runner] SIGKILL failed for pgid %d: %v\n", pgid, err)
		}
	}
}

// Wait waits for the command to complete and cleans up resources.
// repeated calls are safe and return the same result.
func (pg *processGroupCleanup) Wait() error {
	pg.once.Do(func() {
		pg.err = pg.cmd.Wait()
		close(pg.done)
		if pg.err != nil {
			pg.err = fmt.Errorf("command wait: %w", pg.err)
		}
	})
	return pg.err
}
