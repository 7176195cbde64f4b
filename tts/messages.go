package tts

// Messages delivered to the UI. The sequencer never calls UI code directly:
// a Notifier posts these onto the caller's own execution context (the
// bubbletea program loop, in the terminal UI).

// Msg is any playback event message.
type Msg interface{}

// Notifier receives playback events. Implementations must be safe to call
// from the sequencer goroutine and must hand the message over to the
// consumer's execution context rather than processing it inline.
type Notifier interface {
	Notify(msg Msg)
}

// SentenceStartMsg fires when a sentence begins playing.
type SentenceStartMsg struct {
	Index int // 1-based sentence index
	Total int
}

// WordHighlightMsg fires when the highlight clock crosses a word's start.
type WordHighlightMsg struct {
	Sentence int // 1-based sentence index
	Word     int // 0-based word index within the sentence
}

// StateChangedMsg fires on sequencer state transitions.
type StateChangedMsg struct {
	State StateType
}

// StatusMsg carries non-fatal, human-readable status text (engine skips,
// pause fallback notices, sink selection).
type StatusMsg struct {
	Text string
}

// FinishedMsg fires once when the document has played to its end.
type FinishedMsg struct{}

// ErrorMsg carries a fatal playback error; the session is torn down before
// it is delivered.
type ErrorMsg struct {
	Err error
}

// nopNotifier is used when no notifier is attached.
type nopNotifier struct{}

func (nopNotifier) Notify(Msg) {}
