package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fastrizwaan/readaloud/tts"
)

// workerCmd is the hidden entry point the binary re-execs itself with to run
// sentence synthesis in an isolated process. The job arrives as JSON on
// stdin and results stream back as JSON on stdout, so stdout must stay clean
// of anything else.
var workerCmd = &cobra.Command{
	Use:    tts.WorkerCommandName,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		log.SetOutput(os.Stderr)
		return tts.ServeWorker(os.Stdin, os.Stdout)
	},
}
