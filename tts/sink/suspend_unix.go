//go:build unix

package sink

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CanSuspend reports that cooperative process suspension is available.
func (p *Process) CanSuspend() bool { return true }

// Suspend freezes the sink process, preserving the exact playback position
// inside the current sentence.
func (p *Process) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("sink process already closed")
	}
	if p.suspended {
		return nil
	}
	if err := p.cmd.Process.Signal(unix.SIGSTOP); err != nil {
		return fmt.Errorf("suspend sink: %w", err)
	}
	p.suspended = true
	return nil
}

// Resume continues a suspended sink process.
func (p *Process) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("sink process already closed")
	}
	if !p.suspended {
		return nil
	}
	if err := p.cmd.Process.Signal(unix.SIGCONT); err != nil {
		return fmt.Errorf("resume sink: %w", err)
	}
	p.suspended = false
	return nil
}

func (p *Process) terminate() error {
	return p.cmd.Process.Signal(unix.SIGTERM)
}
