package tts

import (
	"fmt"

	"github.com/fastrizwaan/readaloud/tts/engines"
)

// Config contains all playback configuration options.
type Config struct {
	// Engine selects the synthesis engine: piper, command, or mock.
	Engine string `yaml:"engine" env:"READALOUD_ENGINE"`

	// Voice is the engine voice identifier, where the engine supports one.
	Voice string `yaml:"voice" env:"READALOUD_VOICE"`

	// Speed is the speech rate multiplier (1.0 = normal).
	Speed float64 `yaml:"speed" env:"READALOUD_SPEED"`

	// SampleRate of the playback pipeline in Hz. The sink is built for this
	// rate and engine output must arrive at it; a per-engine sample_rate of
	// 0 inherits it, a non-zero one must match.
	SampleRate int `yaml:"sample_rate" env:"READALOUD_SAMPLE_RATE"`

	// ChunkFrames is the number of frames per sink write. At 24000 Hz the
	// default of 2400 gives a 100ms command-response interval.
	ChunkFrames int `yaml:"chunk_frames" env:"READALOUD_CHUNK_FRAMES"`

	// Preroll is how many sentences must be synthesized before playback
	// starts, to avoid initial stutter.
	Preroll int `yaml:"preroll" env:"READALOUD_PREROLL"`

	// QueueSize bounds the synthesis result channel, providing backpressure
	// so synthesis cannot race arbitrarily far ahead of playback.
	QueueSize int `yaml:"queue_size" env:"READALOUD_QUEUE_SIZE"`

	// Sink, when set, overrides sink auto-detection with an explicit
	// command line that accepts raw s16le mono PCM on stdin.
	Sink string `yaml:"sink" env:"READALOUD_SINK"`

	// Replacements maps abbreviations to their spoken form before
	// synthesis, which also keeps them from splitting sentences.
	Replacements map[string]string `yaml:"replacements"`

	// Engine-specific settings.
	Piper   engines.PiperSpec   `yaml:"piper"`
	Command engines.CommandSpec `yaml:"command"`
	Mock    engines.MockSpec    `yaml:"mock"`
}

// DefaultReplacements is the built-in spoken-form table.
func DefaultReplacements() map[string]string {
	return map[string]string{
		"e.g.": "for example",
		"i.e.": "that is",
		"vs.":  "versus",
		"etc.": "et cetera",
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:       "piper",
		Speed:        1.0,
		SampleRate:   24000,
		ChunkFrames:  2400,
		Preroll:      3,
		QueueSize:    16,
		Replacements: DefaultReplacements(),
		// Engine sample rates are left at 0 so they inherit SampleRate and
		// the sink and engine can never disagree.
		Piper: engines.PiperSpec{
			Binary: "piper",
		},
		Mock: engines.MockSpec{
			SecondsPerWord: 0.3,
		},
	}
}

// engineRate is the active engine's configured output rate, 0 when it
// inherits the pipeline rate.
func (c Config) engineRate() int {
	switch c.Engine {
	case "piper":
		return c.Piper.SampleRate
	case "command":
		return c.Command.SampleRate
	case "mock":
		return c.Mock.SampleRate
	}
	return 0
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.Engine {
	case "piper", "command", "mock":
	default:
		return fmt.Errorf("unknown engine %q (want piper, command, or mock)", c.Engine)
	}
	if c.Speed < 0.5 || c.Speed > 2.0 {
		return fmt.Errorf("speed %.2f out of range [0.5, 2.0]", c.Speed)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	// The sink command line is built for SampleRate while chunk pacing and
	// the highlight clock run on the engine's reported rate. A mismatch
	// plays fast or slow and drifts the highlights, so reject it up front.
	if r := c.engineRate(); r != 0 && r != c.SampleRate {
		return fmt.Errorf("%s engine sample rate %d does not match pipeline sample_rate %d", c.Engine, r, c.SampleRate)
	}
	if c.ChunkFrames <= 0 {
		return fmt.Errorf("chunk_frames must be positive, got %d", c.ChunkFrames)
	}
	if c.Preroll < 1 {
		return fmt.Errorf("preroll must be at least 1, got %d", c.Preroll)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", c.QueueSize)
	}
	return nil
}

// EngineSpec builds the serializable engine spec handed to the synthesis
// worker process. Engine rates left at 0 are resolved to the pipeline rate
// here, so the worker always reports a rate the sink was built for.
func (c Config) EngineSpec() engines.Spec {
	spec := engines.Spec{
		Kind:       c.Engine,
		Voice:      c.Voice,
		Speed:      c.Speed,
		SampleRate: c.SampleRate,
		Piper:      c.Piper,
		Command:    c.Command,
		Mock:       c.Mock,
	}
	if spec.Piper.SampleRate == 0 {
		spec.Piper.SampleRate = c.SampleRate
	}
	if spec.Command.SampleRate == 0 {
		spec.Command.SampleRate = c.SampleRate
	}
	if spec.Mock.SampleRate == 0 {
		spec.Mock.SampleRate = c.SampleRate
	}
	return spec
}
