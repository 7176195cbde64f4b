package tts

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// LoadConfig resolves the effective configuration: defaults, then the viper
// config file, then READALOUD_* environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	applyViper(&cfg)

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyViper(cfg *Config) {
	if viper.IsSet("engine") {
		cfg.Engine = viper.GetString("engine")
	}
	if viper.IsSet("voice") {
		cfg.Voice = viper.GetString("voice")
	}
	if viper.IsSet("speed") {
		cfg.Speed = viper.GetFloat64("speed")
	}
	if viper.IsSet("sample_rate") {
		cfg.SampleRate = viper.GetInt("sample_rate")
	}
	if viper.IsSet("chunk_frames") {
		cfg.ChunkFrames = viper.GetInt("chunk_frames")
	}
	if viper.IsSet("preroll") {
		cfg.Preroll = viper.GetInt("preroll")
	}
	if viper.IsSet("queue_size") {
		cfg.QueueSize = viper.GetInt("queue_size")
	}
	if viper.IsSet("sink") {
		cfg.Sink = viper.GetString("sink")
	}
	if viper.IsSet("replacements") {
		repl := viper.GetStringMapString("replacements")
		if len(repl) > 0 {
			cfg.Replacements = repl
		}
	}

	if viper.IsSet("piper.binary") {
		cfg.Piper.Binary = viper.GetString("piper.binary")
	}
	if viper.IsSet("piper.model") {
		cfg.Piper.Model = viper.GetString("piper.model")
	}
	if viper.IsSet("piper.sample_rate") {
		cfg.Piper.SampleRate = viper.GetInt("piper.sample_rate")
	}

	if viper.IsSet("command.command") {
		cfg.Command.Command = viper.GetString("command.command")
	}
	if viper.IsSet("command.sample_rate") {
		cfg.Command.SampleRate = viper.GetInt("command.sample_rate")
	}

	if viper.IsSet("mock.delay") {
		cfg.Mock.Delay = viper.GetDuration("mock.delay")
	}
	if viper.IsSet("mock.seconds_per_word") {
		cfg.Mock.SecondsPerWord = viper.GetFloat64("mock.seconds_per_word")
	}
	if viper.IsSet("mock.sample_rate") {
		cfg.Mock.SampleRate = viper.GetInt("mock.sample_rate")
	}
}
