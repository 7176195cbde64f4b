// Package main provides the entry point for the readaloud CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fastrizwaan/readaloud/tts"
	"github.com/fastrizwaan/readaloud/tts/segment"
	"github.com/fastrizwaan/readaloud/tts/sink"
	"github.com/fastrizwaan/readaloud/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	voiceName  string
	speed      float64
	sinkCmd    string
	plain      bool
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "readaloud [SOURCE]",
		Short: "Read text aloud, sentence by sentence, with word highlighting",
		Long: "\nReadaloud streams a document through a text-to-speech engine and plays it" +
			"\nsentence by sentence, highlighting each word as it is spoken. Pass a file," +
			"\nuse - for stdin, or pipe text in.",
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRun: func(*cobra.Command, []string) { applyDebugFlag() },
		RunE:             execute,
	}
)

// sourceFromArg opens the text source: "-" means stdin, anything else is a
// file path.
func sourceFromArg(arg string) (io.ReadCloser, error) {
	if arg == "-" {
		return os.Stdin, nil
	}
	r, err := os.Open(arg)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	return r, nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	var reader io.ReadCloser
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes && len(args) == 0 {
		reader = os.Stdin
	} else if len(args) == 1 {
		r, err := sourceFromArg(args[0])
		if err != nil {
			return err
		}
		reader = r
	} else {
		return errors.New("missing text source: pass a file or pipe text in")
	}
	defer reader.Close() //nolint:errcheck

	b, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("unable to read source: %w", err)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	text := string(b)
	if plain {
		return runPlain(cfg, text)
	}
	return runTUI(cfg, text)
}

// resolveConfig layers flags over the config file and environment.
func resolveConfig(cmd *cobra.Command) (tts.Config, error) {
	cfg, err := tts.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("engine") {
		cfg.Engine = engineName
	}
	if cmd.Flags().Changed("voice") {
		cfg.Voice = voiceName
	}
	if cmd.Flags().Changed("speed") {
		cfg.Speed = speed
	}
	if cmd.Flags().Changed("sink") {
		cfg.Sink = sinkCmd
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// sinkFactory resolves the sink command line once and returns a factory the
// sequencer uses to spawn a fresh sink process at start and on every seek.
func sinkFactory(cfg tts.Config) (tts.SinkFactory, error) {
	var argv []string
	var err error
	if cfg.Sink != "" {
		argv, err = sink.ParseCommand(cfg.Sink)
	} else {
		argv, err = sink.Probe(sink.Candidates(cfg.SampleRate))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrNoSink, err)
	}
	log.Debug("audio sink selected", "argv", argv)
	return func() (tts.AudioSink, error) {
		return sink.Start(argv)
	}, nil
}

func runTUI(cfg tts.Config, text string) error {
	splitter := segment.NewSplitter(cfg.Replacements)
	units := splitter.Segment(text)
	if len(units) == 0 {
		return tts.ErrNoSentences
	}

	newSink, err := sinkFactory(cfg)
	if err != nil {
		return err
	}

	notifier := ui.NewNotifier()
	ctrl := tts.NewController(cfg, splitter, newSink, tts.WithNotifier(notifier))
	defer ctrl.Stop() //nolint:errcheck

	p := ui.NewProgram(ctrl, notifier, text, units)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// runPlain plays the document to completion without a TUI, printing one line
// per sentence. Useful over SSH and in scripts.
func runPlain(cfg tts.Config, text string) error {
	newSink, err := sinkFactory(cfg)
	if err != nil {
		return err
	}

	events := make(chan tts.Msg, 64)
	ctrl := tts.NewController(cfg, segment.NewSplitter(cfg.Replacements), newSink,
		tts.WithNotifier(chanNotifier(events)))
	defer ctrl.Stop() //nolint:errcheck

	if err := ctrl.Play(text); err != nil {
		return err
	}
	for msg := range events {
		switch msg := msg.(type) {
		case tts.SentenceStartMsg:
			fmt.Printf("[%d/%d]\n", msg.Index, msg.Total)
		case tts.StatusMsg:
			fmt.Println(msg.Text)
		case tts.FinishedMsg:
			return nil
		case tts.ErrorMsg:
			return msg.Err
		}
	}
	return nil
}

// chanNotifier posts playback events onto a channel. Progress events are
// dropped rather than blocking the sequencer when the consumer falls behind;
// FinishedMsg and ErrorMsg always land because runPlain's loop only exits on
// one of them.
type chanNotifier chan tts.Msg

func (c chanNotifier) Notify(msg tts.Msg) {
	switch msg.(type) {
	case tts.FinishedMsg, tts.ErrorMsg:
		c <- msg
	default:
		select {
		case c <- msg:
		default:
		}
	}
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

// setupLog routes structured logs away from the TUI: to READALOUD_LOGFILE
// when set, and into the void otherwise. It runs before flags are parsed;
// applyDebugFlag revisits the decision once they are.
func setupLog() (func() error, error) {
	if lf := os.Getenv("READALOUD_LOGFILE"); lf != "" {
		f, err := os.OpenFile(lf, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("unable to open log file: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}

// applyDebugFlag runs after flag parsing: --debug or READALOUD_DEBUG routes
// debug logs to stderr, unless a log file is already capturing them.
func applyDebugFlag() {
	if os.Getenv("READALOUD_LOGFILE") != "" {
		return
	}
	if debug || viper.GetBool("debug") || os.Getenv("READALOUD_DEBUG") != "" {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.DebugLevel)
	}
}

func init() {
	// The worker subcommand must not touch config files or flags meant for
	// the parent; it gets everything it needs over stdin.
	if len(os.Args) > 1 && os.Args[1] == tts.WorkerCommandName {
		rootCmd.AddCommand(workerCmd)
		return
	}

	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "", "synthesis engine (piper, command, or mock)")
	rootCmd.Flags().StringVar(&voiceName, "voice", "", "engine voice identifier")
	rootCmd.Flags().Float64VarP(&speed, "speed", "s", 1.0, "speech rate multiplier (0.5 to 2.0)")
	rootCmd.Flags().StringVar(&sinkCmd, "sink", "", "audio sink command accepting s16le PCM on stdin")
	rootCmd.Flags().BoolVarP(&plain, "plain", "p", false, "play without the TUI, printing progress lines")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log debug output to stderr")

	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))

	rootCmd.AddCommand(configCmd, workerCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "readaloud")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "readaloud")}, dirs...)
	}
	if c := os.Getenv("READALOUD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("readaloud")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("readaloud")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}
	configFile = filepath.Join(dirs[0], "readaloud.yml")
}
