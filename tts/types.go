// Package tts drives streaming, seekable, ordered speech playback: an
// asynchronous synthesis worker fills a bounded result channel, a playback
// sequencer streams sentences in strict order to an external audio sink, and
// per-word highlight timing is reconstructed from each sentence's measured
// audio duration.
package tts

// SentenceUnit is one segmented, independently synthesizable chunk of the
// document. Units are created once per playback session and are immutable.
type SentenceUnit struct {
	// Index is 1-based and assigned at segmentation time. Unit indices form
	// a contiguous 1..N range with no gaps.
	Index int `json:"index"`

	// Text is the spoken form, with the segmenter's replacement table
	// applied (abbreviations expanded for clearer reading).
	Text string `json:"text"`

	// SourceStart and SourceEnd are byte offsets of the sentence within the
	// original document text, for mapping highlights back into arbitrary
	// source formatting.
	SourceStart int `json:"source_start"`
	SourceEnd   int `json:"source_end"`

	// Words is the spoken text split into highlightable tokens.
	Words []string `json:"words"`
}

// SynthResult carries the synthesized audio for one sentence. Results are
// produced in non-decreasing index order; ownership transfers to the
// playback session's buffer on receipt. The backing temp file lives until
// the session ends, since a backward seek may revisit it.
type SynthResult struct {
	Index      int    `json:"index"`
	PCM        []byte `json:"pcm"` // signed 16-bit little-endian mono
	SampleRate int    `json:"sample_rate"`
	Path       string `json:"path"` // temp file owned by the session
}

// Duration returns the measured audio length in seconds, derived from the
// real buffer size rather than an estimate.
func (r SynthResult) Duration() float64 {
	if r.SampleRate <= 0 {
		return 0
	}
	return float64(len(r.PCM)/frameBytes) / float64(r.SampleRate)
}

// frameBytes is the size of one mono 16-bit frame.
const frameBytes = 2

// Segmenter splits raw document text into an ordered sequence of sentence
// units. Identical input must always yield an identical unit list.
type Segmenter interface {
	Segment(text string) []SentenceUnit
}

// AudioSink is one external playback process accepting raw s16le mono PCM on
// its standard input. The sequencer owns at most one live sink at a time and
// replaces it on every seek.
type AudioSink interface {
	// Write streams one chunk of PCM to the sink.
	Write(p []byte) error

	// Suspend pauses the sink process without losing its buffered position.
	Suspend() error

	// Resume continues a suspended sink.
	Resume() error

	// CanSuspend reports whether Suspend/Resume are supported on this
	// platform. When false, pause falls back to terminate-and-replay.
	CanSuspend() bool

	// Close terminates the sink. It is safe to call multiple times.
	Close() error
}

// SinkFactory creates a fresh sink process. The sequencer calls it at start,
// after every seek, and when resuming from the pause fallback.
type SinkFactory func() (AudioSink, error)
