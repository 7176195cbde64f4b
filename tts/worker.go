package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fastrizwaan/readaloud/tts/engines"
)

// WorkerCommandName is the hidden subcommand the binary re-execs itself with
// to run synthesis in an isolated child process. Engine crashes and stalls
// then never take the playback process down with them.
const WorkerCommandName = "__synth-worker"

// workerJob is the unit of work handed to a synthesis worker: the full
// sentence list plus everything the child process needs to run standalone.
type workerJob struct {
	Sentences  []SentenceUnit `json:"sentences"`
	StartIndex int            `json:"start_index"`
	TempDir    string         `json:"temp_dir"`
	Engine     engines.Spec   `json:"engine"`
}

// Worker streams SynthResults in strictly increasing index order on a
// bounded channel. The channel capacity is the only backpressure mechanism:
// the producer blocks once the consumer falls that many sentences behind.
// The channel is closed when the worker has processed its last sentence.
type Worker struct {
	results chan SynthResult
	cancel  context.CancelFunc
	once    sync.Once
}

func (w *Worker) Results() <-chan SynthResult { return w.results }

// Cancel stops the worker best-effort without waiting for in-flight
// synthesis. The results channel still closes once the producer notices.
func (w *Worker) Cancel() {
	w.once.Do(func() {
		w.cancel()
		// Drain so a producer blocked on a full channel can observe the
		// cancellation and exit.
		go func() {
			for range w.results {
			}
		}()
	})
}

// workerStarter launches synthesis for a session. The production starter
// spawns a child process; tests swap in the in-process variant.
type workerStarter func(cfg Config, job workerJob) (*Worker, error)

// startWorkerProcess re-execs the current binary with the hidden worker
// subcommand, feeds it the job as JSON on stdin, and decodes the JSON result
// stream from its stdout into the bounded results channel.
func startWorkerProcess(cfg Config, job workerJob) (*Worker, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate worker binary: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, exe, WorkerCommandName)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start worker: %w", err)
	}
	log.Debug("synthesis worker started", "pid", cmd.Process.Pid, "sentences", len(job.Sentences))

	go func() {
		if err := json.NewEncoder(stdin).Encode(job); err != nil {
			log.Error("send worker job", "error", err)
		}
		stdin.Close()
	}()

	w := &Worker{results: make(chan SynthResult, cfg.QueueSize), cancel: cancel}
	go func() {
		defer close(w.results)
		defer cmd.Wait()
		dec := json.NewDecoder(stdout)
		for {
			var res SynthResult
			if err := dec.Decode(&res); err != nil {
				if err != io.EOF && ctx.Err() == nil {
					log.Error("worker result stream", "error", err)
				}
				return
			}
			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}()
	return w, nil
}

// startWorkerInProcess runs the same synthesis loop inside this process.
// Used by tests, where spawning a child binary is impractical.
func startWorkerInProcess(cfg Config, job workerJob) (*Worker, error) {
	eng, err := engines.New(job.Engine)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{results: make(chan SynthResult, cfg.QueueSize), cancel: cancel}
	go func() {
		defer close(w.results)
		runSynthLoop(ctx, eng, job, func(res SynthResult) error {
			select {
			case w.results <- res:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return w, nil
}

// runSynthLoop synthesizes each sentence in order and emits the result. A
// failed sentence is logged and skipped; the remaining sentences still play.
func runSynthLoop(ctx context.Context, eng engines.Engine, job workerJob, emit func(SynthResult) error) error {
	for _, unit := range job.Sentences {
		if unit.Index < job.StartIndex {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pcm, rate, err := eng.Synthesize(unit.Text)
		if err != nil {
			log.Warn("sentence synthesis failed, skipping", "index", unit.Index, "error", err)
			continue
		}
		path := filepath.Join(job.TempDir, fmt.Sprintf("sent_%03d_%s.pcm", unit.Index, uuid.NewString()[:8]))
		if err := os.WriteFile(path, pcm, 0o600); err != nil {
			log.Warn("write sentence audio", "index", unit.Index, "error", err)
			path = ""
		}
		if err := emit(SynthResult{Index: unit.Index, PCM: pcm, SampleRate: rate, Path: path}); err != nil {
			return err
		}
	}
	return nil
}

// ServeWorker is the child-process entry point: it decodes one job from in,
// synthesizes every sentence, and writes one JSON result per line to out.
// Writes block when the parent's queue is full, which is the backpressure
// the parent relies on.
func ServeWorker(in io.Reader, out io.Writer) error {
	var job workerJob
	if err := json.NewDecoder(in).Decode(&job); err != nil {
		return fmt.Errorf("decode worker job: %w", err)
	}
	eng, err := engines.New(job.Engine)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	return runSynthLoop(context.Background(), eng, job, func(res SynthResult) error {
		return enc.Encode(res)
	})
}
