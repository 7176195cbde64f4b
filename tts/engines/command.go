package engines

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	shellwords "github.com/mattn/go-shellwords"
)

// CommandSpec configures the generic command engine. The command receives
// the sentence text on stdin and must write raw signed 16-bit little-endian
// mono PCM to stdout at the configured sample rate.
type CommandSpec struct {
	Command    string `json:"command" yaml:"command" env:"READALOUD_SYNTH_COMMAND"`
	SampleRate int    `json:"sample_rate" yaml:"sample_rate" env:"READALOUD_SYNTH_SAMPLE_RATE"`
}

// Command adapts any text-in/PCM-out program as a synthesis engine. This is
// how model runners without a dedicated integration (kokoro, espeak wrappers,
// custom scripts) are plugged in.
type Command struct {
	argv       []string
	sampleRate int
}

// NewCommand parses the configured command line into an engine.
func NewCommand(spec CommandSpec) (*Command, error) {
	argv, err := shellwords.Parse(spec.Command)
	if err != nil {
		return nil, fmt.Errorf("parse synth command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("synth command is empty")
	}
	if spec.SampleRate <= 0 {
		return nil, fmt.Errorf("synth command sample rate must be positive, got %d", spec.SampleRate)
	}
	return &Command{argv: argv, sampleRate: spec.SampleRate}, nil
}

// Name implements Engine.
func (e *Command) Name() string { return "command" }

// Validate implements Engine.
func (e *Command) Validate() error {
	if _, err := exec.LookPath(e.argv[0]); err != nil {
		return fmt.Errorf("synth command %q not found in PATH: %w", e.argv[0], err)
	}
	return nil
}

// Synthesize implements Engine.
func (e *Command) Synthesize(text string) ([]byte, int, error) {
	cmd := exec.Command(e.argv[0], e.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, 0, fmt.Errorf("synth command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, 0, fmt.Errorf("synth command produced no audio")
	}
	// PCM must align to whole 16-bit samples.
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	log.Debug("command engine synthesized", "bytes", len(out), "argv0", e.argv[0])
	return out, e.sampleRate, nil
}
