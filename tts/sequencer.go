package tts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/fastrizwaan/readaloud/tts/timing"
)

// receivePoll bounds how long the sequencer blocks on the results channel
// before re-checking for stop and seek requests.
const receivePoll = 200 * time.Millisecond

// pauseOutcome reports how a pause episode ended.
type pauseOutcome int

const (
	pauseResumed pauseOutcome = iota
	pauseReplay               // sink was torn down, replay the sentence
	pauseSeek
	pauseStop
)

// playOutcome reports how a single sentence's playback ended.
type playOutcome int

const (
	playDone playOutcome = iota
	playSeek
	playStop
)

// Sequencer plays buffered synthesis results in strict index order. It owns
// the sink for its lifetime and is the only goroutine that touches it;
// pause, seek, and stop arrive as flags set by the controller and are
// observed between chunk writes, so control latency is bounded by one chunk
// interval.
type Sequencer struct {
	cfg     Config
	session *Session
	results <-chan SynthResult
	newSink SinkFactory
	notify  Notifier

	mu         sync.Mutex
	machine    *StateMachine
	current    int
	seekTarget int // 0 means no seek pending
	paused     bool
	stopped    bool

	sink AudioSink // sequencer goroutine only
	eof  bool      // results channel closed
	done chan struct{}
}

func newSequencer(cfg Config, session *Session, results <-chan SynthResult, newSink SinkFactory, notify Notifier) *Sequencer {
	return &Sequencer{
		cfg:     cfg,
		session: session,
		results: results,
		newSink: newSink,
		notify:  notify,
		machine: NewStateMachine(),
		current: 1,
		done:    make(chan struct{}),
	}
}

// Done is closed when the sequencer goroutine has exited and released the sink.
func (s *Sequencer) Done() <-chan struct{} { return s.done }

func (s *Sequencer) State() StateType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

func (s *Sequencer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current().Active()
}

// CurrentIndex is the sentence being (or about to be) played.
func (s *Sequencer) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Stop requests termination. Idempotent; playback halts within one chunk
// interval.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.paused = false
	s.mu.Unlock()
}

// TogglePause flips the pause flag and reports whether playback is now
// paused. The playback loop applies the change at the next chunk boundary.
func (s *Sequencer) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	return s.paused
}

// Seek requests a jump to the given 1-based sentence index. Pending seeks
// are overwritten, not queued: only the latest target wins.
func (s *Sequencer) Seek(index int) error {
	if index < 1 || index > len(s.session.Sentences) {
		return fmt.Errorf("%w: %d of %d", ErrSeekOutOfRange, index, len(s.session.Sentences))
	}
	s.mu.Lock()
	s.seekTarget = index
	s.paused = false
	s.mu.Unlock()
	return nil
}

func (s *Sequencer) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Sequencer) seekPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekTarget != 0
}

func (s *Sequencer) takeSeek() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.seekTarget
	s.seekTarget = 0
	return target, target != 0
}

func (s *Sequencer) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Sequencer) setState(st StateType) {
	s.mu.Lock()
	ok := s.machine.Transition(st)
	s.mu.Unlock()
	if ok {
		s.notify.Notify(StateChangedMsg{State: st})
	}
}

func (s *Sequencer) setCurrent(index int) {
	s.mu.Lock()
	s.current = index
	s.mu.Unlock()
}

func (s *Sequencer) fatal(err error) {
	log.Error("playback aborted", "error", err)
	s.notify.Notify(ErrorMsg{Err: err})
	s.Stop()
}

// Run drives the session to completion. It must be called exactly once, on
// its own goroutine.
func (s *Sequencer) Run() {
	defer close(s.done)
	defer func() {
		if s.sink != nil {
			s.sink.Close()
			s.sink = nil
		}
		s.setState(StateStopped)
	}()

	s.setState(StatePrerolling)
	if !s.preroll() {
		return
	}

	if err := s.restartSink(); err != nil {
		s.fatal(err)
		return
	}
	s.setState(StatePlaying)

	total := len(s.session.Sentences)
	current := 1
	for {
		if s.stopRequested() {
			return
		}
		if target, ok := s.takeSeek(); ok {
			s.setState(StateSeeking)
			// A fresh sink gives a clean pipe with no stale buffered audio.
			if err := s.restartSink(); err != nil {
				s.fatal(err)
				return
			}
			current = target
			s.setState(StatePlaying)
		}
		if current > total {
			s.notify.Notify(FinishedMsg{})
			return
		}
		s.setCurrent(current)

		res, ok := s.awaitResult(current)
		if !ok {
			if s.stopRequested() || s.seekPending() {
				continue
			}
			// EOF with this index missing: its synthesis failed. Skip to the
			// next sentence that did make it, or finish.
			if next, found := s.session.nextBufferedAfter(current); found {
				s.notify.Notify(StatusMsg{Text: fmt.Sprintf("sentence %d unavailable, skipping", current)})
				current = next
				continue
			}
			s.notify.Notify(FinishedMsg{})
			return
		}

		switch s.playSentence(res, total) {
		case playDone:
			current++
		case playSeek:
			continue
		case playStop:
			return
		}
	}
}

// preroll buffers the first few results before the sink starts, so playback
// does not stutter on a slow engine. Returns false if stopped while waiting.
func (s *Sequencer) preroll() bool {
	need := s.cfg.Preroll
	if n := len(s.session.Sentences); need > n {
		need = n
	}
	for s.session.buffered() < need && !s.eof {
		if s.stopRequested() {
			return false
		}
		s.receiveOne()
	}
	return !s.stopRequested()
}

// receiveOne pulls at most one result from the worker, waiting no longer
// than receivePoll.
func (s *Sequencer) receiveOne() {
	select {
	case res, ok := <-s.results:
		if !ok {
			s.eof = true
			return
		}
		s.session.store(res)
	case <-time.After(receivePoll):
	}
}

// awaitResult blocks until the result for index is buffered. It returns
// false when the result can never arrive (worker finished without it) or a
// stop or seek request interrupts the wait.
func (s *Sequencer) awaitResult(index int) (SynthResult, bool) {
	for {
		if res, ok := s.session.result(index); ok {
			return res, true
		}
		if s.eof || s.stopRequested() || s.seekPending() {
			return SynthResult{}, false
		}
		s.receiveOne()
	}
}

func (s *Sequencer) restartSink() error {
	if s.sink != nil {
		s.sink.Close()
		s.sink = nil
	}
	snk, err := s.newSink()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSink, err)
	}
	s.sink = snk
	return nil
}

// playSentence writes one sentence's PCM to the sink in paced chunks,
// advancing the word-highlight schedule against bytes actually written.
func (s *Sequencer) playSentence(res SynthResult, total int) playOutcome {
	if res.SampleRate <= 0 || len(res.PCM) == 0 {
		log.Warn("unplayable synthesis result", "index", res.Index, "rate", res.SampleRate, "bytes", len(res.PCM))
		return playDone
	}

	unit := s.session.Sentences[res.Index-1]
	s.notify.Notify(SentenceStartMsg{Index: res.Index, Total: total})
	log.Debug("sentence start", "index", res.Index, "duration", res.Duration())

	sched := timing.Estimate(unit.Words, res.Duration())
	step := s.cfg.ChunkFrames * frameBytes
	interval := time.Duration(float64(s.cfg.ChunkFrames) / float64(res.SampleRate) * float64(time.Second))
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	bytesPerSecond := float64(res.SampleRate * frameBytes)

	off := 0
	for off < len(res.PCM) {
		if s.stopRequested() {
			return playStop
		}
		if s.seekPending() {
			return playSeek
		}
		if s.isPaused() {
			switch s.waitWhilePaused() {
			case pauseStop:
				return playStop
			case pauseSeek:
				return playSeek
			case pauseReplay:
				off = 0
				sched.Reset()
				limiter = rate.NewLimiter(rate.Every(interval), 1)
				continue
			case pauseResumed:
			}
		}

		if err := limiter.Wait(context.Background()); err != nil {
			return playStop
		}
		end := off + step
		if end > len(res.PCM) {
			end = len(res.PCM)
		}
		if err := s.sink.Write(res.PCM[off:end]); err != nil {
			s.fatal(fmt.Errorf("audio sink write: %w", err))
			return playStop
		}
		off = end

		elapsed := float64(off) / bytesPerSecond
		for _, word := range sched.Advance(elapsed) {
			s.notify.Notify(WordHighlightMsg{Sentence: res.Index, Word: word})
		}
	}
	return playDone
}

// waitWhilePaused parks playback until the pause flag clears. When the sink
// process supports suspension the audio freezes in place; otherwise the sink
// is torn down and the sentence replays from its start on resume.
func (s *Sequencer) waitWhilePaused() pauseOutcome {
	s.setState(StatePaused)

	suspended := false
	if s.sink.CanSuspend() {
		if err := s.sink.Suspend(); err != nil {
			log.Warn("sink suspend failed", "error", err)
		} else {
			suspended = true
		}
	}
	if !suspended {
		s.sink.Close()
		s.notify.Notify(StatusMsg{Text: "pause: sink cannot suspend, sentence will replay on resume"})
	}

	for s.isPaused() {
		if s.stopRequested() {
			if suspended {
				s.sink.Resume()
			}
			return pauseStop
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s.seekPending() {
		if suspended {
			s.sink.Resume()
		}
		return pauseSeek
	}

	if suspended {
		if err := s.sink.Resume(); err != nil {
			s.fatal(fmt.Errorf("sink resume: %w", err))
			return pauseStop
		}
		s.setState(StatePlaying)
		return pauseResumed
	}
	if err := s.restartSink(); err != nil {
		s.fatal(err)
		return pauseStop
	}
	s.setState(StatePlaying)
	return pauseReplay
}
