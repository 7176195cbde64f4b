package tts

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/fastrizwaan/readaloud/tts/engines"
)

// Controller is the single user-facing entry point for playback. All
// commands are safe to call from any goroutine; slow work (waiting on
// synthesis, writing audio) happens on the sequencer goroutine, so commands
// return quickly.
type Controller struct {
	cfg       Config
	segmenter Segmenter
	notify    Notifier
	newSink   SinkFactory
	startWork workerStarter

	mu      sync.Mutex
	session *Session
	seq     *Sequencer
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier routes playback events to n instead of discarding them.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notify = n }
}

// WithSinkFactory overrides how audio sinks are created.
func WithSinkFactory(f SinkFactory) Option {
	return func(c *Controller) { c.newSink = f }
}

// NewController builds a controller for the given configuration and
// segmenter. By default synthesis runs in an isolated child process and
// events are discarded until a notifier is attached.
func NewController(cfg Config, seg Segmenter, sink SinkFactory, opts ...Option) *Controller {
	c := &Controller{
		cfg:       cfg,
		segmenter: seg,
		notify:    nopNotifier{},
		newSink:   sink,
		startWork: startWorkerProcess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Play segments text and starts a new playback session from the first
// sentence. Any prior session is fully torn down first: sink closed, worker
// cancelled, temp files removed. Two sessions never overlap.
func (c *Controller) Play(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()

	units := c.segmenter.Segment(text)
	if len(units) == 0 {
		return ErrNoSentences
	}

	// Catch a misconfigured engine here, where the error reaches the user.
	// Inside the worker every sentence would fail the same way and the
	// session would end as a silent "finished".
	eng, err := engines.New(c.cfg.EngineSpec())
	if err != nil {
		return err
	}
	if err := eng.Validate(); err != nil {
		return fmt.Errorf("%s engine unavailable: %w", eng.Name(), err)
	}
	log.Info("starting playback", "sentences", len(units), "engine", c.cfg.Engine)

	sess, err := newSession(units)
	if err != nil {
		return err
	}
	job := workerJob{
		Sentences:  units,
		StartIndex: 1,
		TempDir:    sess.TempDir,
		Engine:     c.cfg.EngineSpec(),
	}
	worker, err := c.startWork(c.cfg, job)
	if err != nil {
		sess.Teardown()
		return err
	}
	sess.worker = worker

	seq := newSequencer(c.cfg, sess, worker.Results(), c.newSink, c.notify)
	c.session, c.seq = sess, seq
	go seq.Run()
	go func() {
		<-seq.Done()
		sess.Teardown()
	}()
	return nil
}

// PauseToggle pauses playback, or resumes it if already paused. The change
// takes effect at the next chunk boundary.
func (c *Controller) PauseToggle() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == nil || !c.seq.Active() {
		return ErrNotPlaying
	}
	c.seq.TogglePause()
	return nil
}

// SeekRelative jumps delta sentences forward or backward, clamped to the
// document. Seeking backward from the first sentence restarts it.
func (c *Controller) SeekRelative(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == nil || !c.seq.Active() {
		return ErrNotPlaying
	}
	target := c.seq.CurrentIndex() + delta
	if target < 1 {
		target = 1
	}
	if n := len(c.session.Sentences); target > n {
		target = n
	}
	return c.seq.Seek(target)
}

// Seek jumps to an absolute 1-based sentence index.
func (c *Controller) Seek(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == nil || !c.seq.Active() {
		return ErrNotPlaying
	}
	return c.seq.Seek(index)
}

// Stop ends the current session, if any. Idempotent; it blocks until the
// sink is released and temp files are gone.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	return nil
}

// State returns the current playback state, or Idle with no session.
func (c *Controller) State() StateType {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == nil {
		return StateIdle
	}
	return c.seq.State()
}

// CurrentIndex returns the sentence being played, or 0 with no session.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == nil {
		return 0
	}
	return c.seq.CurrentIndex()
}

func (c *Controller) teardownLocked() {
	if c.seq != nil {
		c.seq.Stop()
		<-c.seq.Done()
	}
	if c.session != nil {
		c.session.Teardown()
	}
	c.seq, c.session = nil, nil
}
