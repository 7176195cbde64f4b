//go:build !unix

package sink

// CanSuspend reports that process suspension is unsupported; pausing falls
// back to terminating the sink and replaying the sentence on resume.
func (p *Process) CanSuspend() bool { return false }

// Suspend is unsupported on this platform.
func (p *Process) Suspend() error { return nil }

// Resume is unsupported on this platform.
func (p *Process) Resume() error { return nil }

func (p *Process) terminate() error {
	return p.cmd.Process.Kill()
}
