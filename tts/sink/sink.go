// Package sink manages the external audio playback process. A sink is any
// program that renders raw signed 16-bit little-endian mono PCM arriving on
// its standard input.
package sink

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	shellwords "github.com/mattn/go-shellwords"
)

// Candidates returns the ordered list of known sink command lines for the
// given sample rate. The first available one wins.
func Candidates(rate int) [][]string {
	r := strconv.Itoa(rate)
	return [][]string{
		{"pacat", "--rate", r, "--channels", "1", "--format", "s16le"},
		{"pw-cat", "-p", "--rate", r, "--format", "s16_le", "--channels", "1"},
		{"aplay", "-q", "-f", "S16_LE", "-r", r, "-c", "1", "-t", "raw", "-"},
	}
}

// Probe returns the first candidate whose binary is present in PATH.
func Probe(candidates [][]string) ([]string, error) {
	for _, argv := range candidates {
		if len(argv) == 0 {
			continue
		}
		if _, err := exec.LookPath(argv[0]); err == nil {
			log.Debug("audio sink selected", "command", argv[0])
			return argv, nil
		}
	}
	return nil, fmt.Errorf("no audio sink available (tried %d candidates)", len(candidates))
}

// ParseCommand turns a user-configured sink command line into argv form.
func ParseCommand(command string) ([]string, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse sink command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("sink command is empty")
	}
	return argv, nil
}

// Process is one live sink subprocess. It is owned exclusively by the
// playback sequencer; at most one is alive per session at any instant.
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	mu        sync.Mutex
	closed    bool
	suspended bool
}

// Start launches a sink process with a stdin pipe.
func Start(argv []string) (*Process, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("sink stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start sink %q: %w", argv[0], err)
	}
	log.Debug("audio sink started", "command", argv[0], "pid", cmd.Process.Pid)
	return &Process{cmd: cmd, stdin: stdin}, nil
}

// Write streams one chunk of PCM to the sink's stdin.
func (p *Process) Write(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("sink process already closed")
	}
	if _, err := p.stdin.Write(b); err != nil {
		return fmt.Errorf("sink write: %w", err)
	}
	return nil
}

// Close shuts the sink down: stdin is closed, the process is given a short
// grace period to drain, then terminated. Safe to call multiple times.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	_ = p.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(time.Second):
		_ = p.terminate()
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			_ = p.cmd.Process.Kill()
			<-done
		}
	}
	log.Debug("audio sink closed", "pid", p.cmd.Process.Pid)
	return nil
}
