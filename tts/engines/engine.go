// Package engines provides speech synthesis engines for readaloud.
package engines

import (
	"errors"
	"fmt"
)

// Engine converts one sentence of text into PCM audio.
// Implementations may be slow and may fail per call; callers are expected
// to skip failed sentences rather than abort.
type Engine interface {
	// Name returns the human-readable engine name.
	Name() string

	// Synthesize converts text to signed 16-bit little-endian mono PCM.
	// It returns the samples and their sample rate in Hz.
	Synthesize(text string) ([]byte, int, error)

	// Validate checks that the engine's external dependencies are present.
	Validate() error
}

// Spec selects and configures an engine. It is serializable so the
// synthesis worker process can reconstruct the engine from its job payload.
type Spec struct {
	Kind       string  `json:"kind"`
	Voice      string  `json:"voice"`
	Speed      float64 `json:"speed"`
	SampleRate int     `json:"sample_rate"`

	Piper   PiperSpec   `json:"piper"`
	Command CommandSpec `json:"command"`
	Mock    MockSpec    `json:"mock"`
}

// ErrUnknownEngine indicates the requested engine kind is not registered.
var ErrUnknownEngine = errors.New("unknown engine")

// New builds an engine from a spec.
func New(spec Spec) (Engine, error) {
	switch spec.Kind {
	case "piper":
		p := spec.Piper
		if spec.Voice != "" {
			p.Model = spec.Voice
		}
		return NewPiper(p, spec.Speed), nil
	case "command":
		return NewCommand(spec.Command)
	case "mock":
		return NewMock(spec.Mock), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, spec.Kind)
	}
}
