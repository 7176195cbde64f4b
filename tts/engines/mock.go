package engines

import (
	"fmt"
	"strings"
	"time"
)

// MockSpec configures the mock engine.
type MockSpec struct {
	// Delay simulates synthesis latency per sentence.
	Delay time.Duration `json:"delay" yaml:"delay" env:"READALOUD_MOCK_DELAY"`
	// SecondsPerWord sizes the generated silence.
	SecondsPerWord float64 `json:"seconds_per_word" yaml:"seconds_per_word" env:"READALOUD_MOCK_SECONDS_PER_WORD"`
	// SampleRate of the generated PCM.
	SampleRate int `json:"sample_rate" yaml:"sample_rate" env:"READALOUD_MOCK_SAMPLE_RATE"`
	// FailSubstring, when non-empty, makes synthesis fail for any sentence
	// containing it. Used to exercise skip-on-failure paths.
	FailSubstring string `json:"fail_substring" yaml:"fail_substring"`
}

// Mock generates silent PCM sized by word count. It needs no external
// dependencies, which makes it the default engine for tests and dry runs.
type Mock struct {
	spec  MockSpec
	calls int
}

// NewMock creates a mock engine.
func NewMock(spec MockSpec) *Mock {
	if spec.SecondsPerWord <= 0 {
		spec.SecondsPerWord = 0.3
	}
	if spec.SampleRate <= 0 {
		spec.SampleRate = 24000
	}
	return &Mock{spec: spec}
}

// Name implements Engine.
func (e *Mock) Name() string { return "mock" }

// Validate implements Engine.
func (e *Mock) Validate() error { return nil }

// Synthesize implements Engine.
func (e *Mock) Synthesize(text string) ([]byte, int, error) {
	e.calls++

	if e.spec.FailSubstring != "" && strings.Contains(text, e.spec.FailSubstring) {
		return nil, 0, fmt.Errorf("mock synthesis failure for %q", text)
	}
	if e.spec.Delay > 0 {
		time.Sleep(e.spec.Delay)
	}

	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	seconds := float64(words) * e.spec.SecondsPerWord
	samples := int(seconds * float64(e.spec.SampleRate))
	if samples < 1 {
		samples = 1
	}
	return make([]byte, samples*2), e.spec.SampleRate, nil
}

// Calls reports how many times Synthesize was invoked.
func (e *Mock) Calls() int { return e.calls }
