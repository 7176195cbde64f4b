package tts

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSink records writes in place of a real audio subprocess.
type fakeSink struct {
	mu         sync.Mutex
	bytes      int
	closed     bool
	suspended  bool
	suspends   int
	resumes    int
	canSuspend bool
	failWrites bool
}

func (s *fakeSink) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("pipe burst")
	}
	if s.closed {
		return ErrSinkClosed
	}
	s.bytes += len(p)
	return nil
}

func (s *fakeSink) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = true
	s.suspends++
	return nil
}

func (s *fakeSink) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = false
	s.resumes++
	return nil
}

func (s *fakeSink) CanSuspend() bool { return s.canSuspend }

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// sinkRecorder hands out fake sinks and remembers every one it created.
type sinkRecorder struct {
	mu         sync.Mutex
	sinks      []*fakeSink
	canSuspend bool
	failWrites bool
}

func (r *sinkRecorder) factory() (AudioSink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &fakeSink{canSuspend: r.canSuspend, failWrites: r.failWrites}
	r.sinks = append(r.sinks, s)
	return s, nil
}

func (r *sinkRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sinks)
}

// recorder collects every playback event for later assertions.
type recorder struct {
	mu   sync.Mutex
	msgs []Msg
}

func (r *recorder) Notify(msg Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) all() []Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Msg(nil), r.msgs...)
}

func (r *recorder) sentenceStarts() []int {
	var starts []int
	for _, m := range r.all() {
		if s, ok := m.(SentenceStartMsg); ok {
			starts = append(starts, s.Index)
		}
	}
	return starts
}

func (r *recorder) finished() bool {
	for _, m := range r.all() {
		if _, ok := m.(FinishedMsg); ok {
			return true
		}
	}
	return false
}

func (r *recorder) firstError() error {
	for _, m := range r.all() {
		if e, ok := m.(ErrorMsg); ok {
			return e.Err
		}
	}
	return nil
}

// synthetic builds a result with audio of the given duration at the test
// sample rate.
func synthetic(index int, seconds float64) SynthResult {
	samples := int(seconds * 8000)
	return SynthResult{Index: index, PCM: make([]byte, samples*frameBytes), SampleRate: 8000}
}

func newTestSequencer(t *testing.T, texts []string, rec *sinkRecorder, notify Notifier) (*Sequencer, chan SynthResult, *Session) {
	t.Helper()
	var units []SentenceUnit
	for i, txt := range texts {
		units = append(units, SentenceUnit{Index: i + 1, Text: txt, Words: []string{txt}})
	}
	sess := &Session{Sentences: units, buffer: make(map[int]SynthResult)}
	results := make(chan SynthResult, len(texts)+1)
	seq := newSequencer(testConfig(), sess, results, rec.factory, notify)
	return seq, results, sess
}

func waitDone(t *testing.T, seq *Sequencer, within time.Duration) {
	t.Helper()
	select {
	case <-seq.Done():
	case <-time.After(within):
		t.Fatal("sequencer did not finish in time")
	}
}

func TestSequencerPlaysInOrder(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: true}
	events := &recorder{}
	seq, results, _ := newTestSequencer(t, []string{"one", "two", "three"}, sinks, events)

	for i := 1; i <= 3; i++ {
		results <- synthetic(i, 0.1)
	}
	close(results)

	go seq.Run()
	waitDone(t, seq, 5*time.Second)

	starts := events.sentenceStarts()
	if len(starts) != 3 {
		t.Fatalf("sentence starts = %v, want 3 entries", starts)
	}
	for i, idx := range starts {
		if idx != i+1 {
			t.Errorf("start %d = sentence %d, want %d", i, idx, i+1)
		}
	}
	if !events.finished() {
		t.Error("no FinishedMsg")
	}
	if seq.State() != StateStopped {
		t.Errorf("final state = %s, want stopped", seq.State())
	}
	// Every byte of every sentence went through exactly one sink.
	if got, want := sinks.sinks[0].written(), 3*int(0.1*8000)*frameBytes; got != want {
		t.Errorf("sink received %d bytes, want %d", got, want)
	}
	if sinks.count() != 1 {
		t.Errorf("created %d sinks, want 1", sinks.count())
	}
}

func TestSequencerEmitsWordHighlights(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: true}
	events := &recorder{}

	units := []SentenceUnit{{
		Index: 1,
		Text:  "three little words",
		Words: []string{"three", "little", "words"},
	}}
	sess := &Session{Sentences: units, buffer: make(map[int]SynthResult)}
	results := make(chan SynthResult, 1)
	seq := newSequencer(testConfig(), sess, results, sinks.factory, events)

	results <- synthetic(1, 0.3)
	close(results)

	go seq.Run()
	waitDone(t, seq, 5*time.Second)

	var words []int
	for _, m := range events.all() {
		if w, ok := m.(WordHighlightMsg); ok {
			if w.Sentence != 1 {
				t.Errorf("highlight for sentence %d, want 1", w.Sentence)
			}
			words = append(words, w.Word)
		}
	}
	if len(words) != 3 {
		t.Fatalf("highlighted words = %v, want all 3", words)
	}
	for i, w := range words {
		if w != i {
			t.Errorf("highlight %d = word %d, want %d (in order)", i, w, i)
		}
	}
}

func TestSequencerSkipsMissingSentence(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: true}
	events := &recorder{}
	seq, results, _ := newTestSequencer(t, []string{"one", "two", "three"}, sinks, events)

	// Sentence 2's synthesis failed: the worker never produced it.
	results <- synthetic(1, 0.1)
	results <- synthetic(3, 0.1)
	close(results)

	go seq.Run()
	waitDone(t, seq, 5*time.Second)

	starts := events.sentenceStarts()
	if len(starts) != 2 || starts[0] != 1 || starts[1] != 3 {
		t.Fatalf("sentence starts = %v, want [1 3]", starts)
	}
	if !events.finished() {
		t.Error("no FinishedMsg")
	}
}

func TestSequencerSeekRestartsSink(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: true}
	events := &recorder{}
	seq, results, _ := newTestSequencer(t, []string{"one", "two", "three"}, sinks, events)

	results <- synthetic(1, 2.0) // long enough to seek out of
	results <- synthetic(2, 0.1)
	results <- synthetic(3, 0.1)
	close(results)

	go seq.Run()

	// Let sentence 1 get going, then jump to sentence 3.
	waitForStart(t, events, 1)
	if err := seq.Seek(3); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	waitDone(t, seq, 5*time.Second)

	starts := events.sentenceStarts()
	if len(starts) < 2 || starts[len(starts)-1] != 3 {
		t.Fatalf("sentence starts = %v, want to land on 3", starts)
	}
	for _, idx := range starts {
		if idx == 2 {
			t.Errorf("sentence 2 played despite seek past it: %v", starts)
		}
	}
	if sinks.count() != 2 {
		t.Errorf("created %d sinks, want 2 (one per seek)", sinks.count())
	}
	if !events.finished() {
		t.Error("no FinishedMsg")
	}
}

func TestSequencerSeekBackwardReplaysFromBuffer(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: true}
	events := &recorder{}
	seq, results, sess := newTestSequencer(t, []string{"one", "two"}, sinks, events)

	results <- synthetic(1, 0.1)
	results <- synthetic(2, 2.0)
	close(results)

	go seq.Run()
	waitForStart(t, events, 2)

	// Sentence 1 already played; its result must still be buffered so a
	// backward seek does not need the (finished) worker.
	if err := seq.Seek(1); err != nil {
		t.Fatalf("backward Seek failed: %v", err)
	}
	replayed := func() bool {
		starts := events.sentenceStarts()
		for i := 1; i < len(starts); i++ {
			if starts[i] == 1 && starts[i-1] == 2 {
				return true
			}
		}
		return false
	}
	deadline := time.After(3 * time.Second)
	for !replayed() {
		select {
		case <-deadline:
			t.Fatalf("sentence starts = %v, want 1 replayed after 2", events.sentenceStarts())
		case <-time.After(5 * time.Millisecond):
		}
	}
	seq.Stop()
	waitDone(t, seq, 2*time.Second)

	if _, ok := sess.result(1); !ok {
		t.Error("played result evicted from buffer")
	}
}

func TestSequencerSeekOutOfRange(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: true}
	seq, results, _ := newTestSequencer(t, []string{"one"}, sinks, &recorder{})
	defer close(results)

	if err := seq.Seek(0); !errors.Is(err, ErrSeekOutOfRange) {
		t.Errorf("Seek(0) = %v, want ErrSeekOutOfRange", err)
	}
	if err := seq.Seek(2); !errors.Is(err, ErrSeekOutOfRange) {
		t.Errorf("Seek(2) = %v, want ErrSeekOutOfRange", err)
	}
	seq.Stop()
}

func TestSequencerStopMidSentence(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: true}
	events := &recorder{}
	seq, results, _ := newTestSequencer(t, []string{"one"}, sinks, events)

	results <- synthetic(1, 5.0)
	close(results)

	go seq.Run()
	waitForStart(t, events, 1)

	stopped := time.Now()
	seq.Stop()
	waitDone(t, seq, time.Second)

	if elapsed := time.Since(stopped); elapsed > 500*time.Millisecond {
		t.Errorf("stop took %v, should react within a chunk interval", elapsed)
	}
	if events.finished() {
		t.Error("FinishedMsg after stop, want none")
	}
	if !sinks.sinks[0].closed {
		t.Error("sink not closed on stop")
	}
}

func TestSequencerPauseSuspendsSink(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: true}
	events := &recorder{}
	seq, results, _ := newTestSequencer(t, []string{"one"}, sinks, events)

	results <- synthetic(1, 1.0)
	close(results)

	go seq.Run()
	waitForStart(t, events, 1)

	if !seq.TogglePause() {
		t.Fatal("TogglePause did not report paused")
	}
	waitForState(t, seq, StatePaused)

	snk := sinks.sinks[0]
	snk.mu.Lock()
	suspended, before := snk.suspended, snk.bytes
	snk.mu.Unlock()
	if !suspended {
		t.Error("sink not suspended while paused")
	}

	// No audio moves while paused.
	time.Sleep(150 * time.Millisecond)
	if snk.written() != before {
		t.Errorf("bytes advanced during pause: %d -> %d", before, snk.written())
	}

	if seq.TogglePause() {
		t.Fatal("second TogglePause still paused")
	}
	waitDone(t, seq, 5*time.Second)

	if snk.resumes == 0 {
		t.Error("sink never resumed")
	}
	if !events.finished() {
		t.Error("no FinishedMsg after resume")
	}
	if sinks.count() != 1 {
		t.Errorf("suspendable pause created %d sinks, want 1", sinks.count())
	}
}

func TestSequencerPauseFallbackReplaysSentence(t *testing.T) {
	sinks := &sinkRecorder{canSuspend: false}
	events := &recorder{}
	seq, results, _ := newTestSequencer(t, []string{"one"}, sinks, events)

	results <- synthetic(1, 0.5)
	close(results)

	go seq.Run()
	waitForStart(t, events, 1)
	time.Sleep(100 * time.Millisecond) // let some chunks through

	seq.TogglePause()
	waitForState(t, seq, StatePaused)
	if !sinks.sinks[0].closed {
		t.Error("fallback pause should close the sink")
	}

	seq.TogglePause()
	waitDone(t, seq, 5*time.Second)

	if sinks.count() != 2 {
		t.Fatalf("created %d sinks, want 2 (replay needs a fresh one)", sinks.count())
	}
	// The replacement sink replays the sentence from its start.
	want := int(0.5*8000) * frameBytes
	if got := sinks.sinks[1].written(); got != want {
		t.Errorf("replay sink got %d bytes, want full sentence %d", got, want)
	}
	if !events.finished() {
		t.Error("no FinishedMsg")
	}
}

func TestSequencerSinkWriteFailureIsFatal(t *testing.T) {
	sinks := &sinkRecorder{failWrites: true}
	events := &recorder{}
	seq, results, _ := newTestSequencer(t, []string{"one"}, sinks, events)

	results <- synthetic(1, 0.5)
	close(results)

	go seq.Run()
	waitDone(t, seq, 5*time.Second)

	if events.firstError() == nil {
		t.Error("no ErrorMsg for failing sink")
	}
	if events.finished() {
		t.Error("FinishedMsg despite fatal sink error")
	}
	if seq.State() != StateStopped {
		t.Errorf("state = %s, want stopped", seq.State())
	}
}

func TestSequencerPrerollWaitsForResults(t *testing.T) {
	cfg := testConfig()
	cfg.Preroll = 2
	sinks := &sinkRecorder{canSuspend: true}
	events := &recorder{}

	units := []SentenceUnit{
		{Index: 1, Text: "one", Words: []string{"one"}},
		{Index: 2, Text: "two", Words: []string{"two"}},
	}
	sess := &Session{Sentences: units, buffer: make(map[int]SynthResult)}
	results := make(chan SynthResult, 2)
	seq := newSequencer(cfg, sess, results, sinks.factory, events)

	go seq.Run()

	// With only one of two preroll results in, no sink may exist yet.
	results <- synthetic(1, 0.1)
	time.Sleep(100 * time.Millisecond)
	if seq.State() != StatePrerolling {
		t.Errorf("state = %s, want prerolling until preroll is met", seq.State())
	}
	if sinks.count() != 0 {
		t.Error("sink created before preroll completed")
	}

	results <- synthetic(2, 0.1)
	close(results)
	waitDone(t, seq, 5*time.Second)

	if !events.finished() {
		t.Error("no FinishedMsg")
	}
}

func waitForStart(t *testing.T, events *recorder, index int) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		for _, m := range events.all() {
			if s, ok := m.(SentenceStartMsg); ok && s.Index == index {
				return
			}
		}
		select {
		case <-deadline:
			t.Fatalf("sentence %d never started", index)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func waitForState(t *testing.T, seq *Sequencer, want StateType) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for seq.State() != want {
		select {
		case <-deadline:
			t.Fatalf("state = %s, never reached %s", seq.State(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
