package tts

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Session is the aggregate root for one playback run: the immutable sentence
// list, the sparse synthesis result buffer, and the temp directory holding
// per-sentence audio. Exactly one session is live at a time; starting a new
// one tears the previous one down completely first.
type Session struct {
	Sentences []SentenceUnit
	TempDir   string

	// buffer is written by the sequencer's receive path and read by its play
	// path only; no other goroutine touches it.
	buffer map[int]SynthResult

	worker   *Worker
	teardown sync.Once
}

func newSession(units []SentenceUnit) (*Session, error) {
	dir, err := os.MkdirTemp("", "readaloud-*")
	if err != nil {
		return nil, fmt.Errorf("create session temp dir: %w", err)
	}
	return &Session{
		Sentences: units,
		TempDir:   dir,
		buffer:    make(map[int]SynthResult),
	}, nil
}

func (s *Session) store(res SynthResult) {
	s.buffer[res.Index] = res
}

func (s *Session) result(index int) (SynthResult, bool) {
	res, ok := s.buffer[index]
	return res, ok
}

func (s *Session) buffered() int {
	return len(s.buffer)
}

// nextBufferedAfter returns the smallest buffered index greater than the
// given one, for skipping over sentences whose synthesis failed.
func (s *Session) nextBufferedAfter(index int) (int, bool) {
	for i := index + 1; i <= len(s.Sentences); i++ {
		if _, ok := s.buffer[i]; ok {
			return i, true
		}
	}
	return 0, false
}

// Teardown cancels the worker and removes the session's temp files. It is
// idempotent and safe to call from any goroutine once the sequencer has
// exited. Temp files are owned by the session and deleted only here, never
// mid-session, since a backward seek may revisit them.
func (s *Session) Teardown() {
	s.teardown.Do(func() {
		if s.worker != nil {
			s.worker.Cancel()
		}
		if s.TempDir != "" {
			if err := os.RemoveAll(s.TempDir); err != nil {
				log.Warn("session temp cleanup failed", "dir", s.TempDir, "error", err)
			}
		}
	})
}
