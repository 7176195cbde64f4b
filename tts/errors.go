package tts

import "errors"

// Errors surfaced by the playback engine.
var (
	// ErrNoSentences indicates the segmenter found nothing to speak.
	ErrNoSentences = errors.New("no sentences found in text")

	// ErrNoSink indicates no audio sink candidate is available on this
	// system. This is fatal for the session.
	ErrNoSink = errors.New("no usable audio sink found")

	// ErrSinkClosed indicates a write to a sink that has been closed or
	// whose process died mid-playback.
	ErrSinkClosed = errors.New("audio sink is closed")

	// ErrNotPlaying indicates a playback command was issued with no active
	// session.
	ErrNotPlaying = errors.New("no active playback session")

	// ErrSeekOutOfRange indicates a seek target outside 1..N.
	ErrSeekOutOfRange = errors.New("seek target out of range")

	// ErrWorkerClosed indicates the synthesis worker ended before producing
	// the requested result.
	ErrWorkerClosed = errors.New("synthesis worker closed")
)
