package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# synthesis engine: piper, command, or mock
engine: "piper"
# engine voice identifier (engine-specific)
voice: ""
# speech rate multiplier (0.5 to 2.0)
speed: 1.0
# playback pipeline sample rate in Hz; engine output must arrive at this rate
sample_rate: 24000
# frames per sink write; 2400 at 24000 Hz gives 100ms command latency
chunk_frames: 2400
# sentences buffered before playback starts
preroll: 3
# bound on how far synthesis may run ahead of playback
queue_size: 16
# explicit sink command (auto-detects pacat/pw-cat/aplay when empty)
sink: ""

# spoken-form replacements, applied before synthesis
replacements:
  "e.g.": "for example"
  "i.e.": "that is"
  "vs.": "versus"
  "etc.": "et cetera"

# piper engine. Set sample_rate (and the pipeline sample_rate above) to the
# voice model's native rate, e.g. 22050 for the medium voices; 0 inherits the
# pipeline rate.
piper:
  binary: "piper"
  model: ""
  sample_rate: 0

# arbitrary command engine: reads text on stdin, writes raw PCM to stdout
command:
  command: ""
  sample_rate: 0

# mock engine (for testing without an engine installed)
mock:
  delay: "0s"
  seconds_per_word: 0.3
  sample_rate: 0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the readaloud config file",
	Long:    "\nEdit the readaloud config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.",
	Example: "readaloud config\nreadaloud config --config path/to/config.yml",
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Readaloud", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
