package engines

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// PiperSpec configures the Piper engine.
type PiperSpec struct {
	Binary     string `json:"binary" yaml:"binary" env:"READALOUD_PIPER_BINARY"`
	Model      string `json:"model" yaml:"model" env:"READALOUD_PIPER_MODEL"`
	SampleRate int    `json:"sample_rate" yaml:"sample_rate" env:"READALOUD_PIPER_SAMPLE_RATE"`
}

// Piper runs a fresh piper process per sentence, feeding text on stdin and
// reading raw PCM from stdout.
type Piper struct {
	spec  PiperSpec
	speed float64
}

// NewPiper creates a Piper engine. Speed 1.0 is normal; piper expresses it
// as an inverse length scale.
func NewPiper(spec PiperSpec, speed float64) *Piper {
	if speed <= 0 {
		speed = 1.0
	}
	return &Piper{spec: spec, speed: speed}
}

// Name implements Engine.
func (e *Piper) Name() string { return "piper" }

// Validate implements Engine.
func (e *Piper) Validate() error {
	if _, err := exec.LookPath(e.spec.Binary); err != nil {
		return fmt.Errorf("piper binary %q not found in PATH: %w", e.spec.Binary, err)
	}
	if e.spec.Model == "" {
		return fmt.Errorf("piper model not configured")
	}
	return nil
}

// Synthesize implements Engine.
func (e *Piper) Synthesize(text string) ([]byte, int, error) {
	args := []string{
		"--model", e.spec.Model,
		"--output-raw",
		"--length-scale", strconv.FormatFloat(1.0/e.speed, 'f', 3, 64),
	}

	cmd := exec.Command(e.spec.Binary, args...)
	// Stdin is set before the process starts so piper never races a late writer.
	cmd.Stdin = strings.NewReader(text + "\n")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, 0, fmt.Errorf("piper failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, 0, fmt.Errorf("piper produced no audio")
	}

	log.Debug("piper synthesized", "bytes", len(out), "text_len", len(text))
	return out, e.spec.SampleRate, nil
}
