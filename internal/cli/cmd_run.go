package cli

import (
	"context"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"shrinkfuzz/internal/fuzz"
)

// RunCmd builds the run command, the main fuzzing loop.
func RunCmd(cfg fuzz.Config) *Command {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	timeout := flags.Float64("timeout", cfg.TimeoutSeconds,
		"Time out target runs after this many `seconds` (<= 0 disables)")
	debug := flags.Bool("debug", cfg.Debug,
		"Emit (extremely verbose) debug output while shrinking")

	return &Command{
		Flags: flags,
		Usage: "run <command> <input> <output> [flags]",
		Short: "Fuzz a command by shrinking its input file",
		Long: `Runs <command> through the shell repeatedly. Before each run the
candidate input is written to <input>; afterwards the exit status and a
digest of <output> become the run's behavior labels. The corpus
directory accumulates the smallest known input for every label, along
with crashes, timeouts, unstable inputs and a gallery of distinct
outputs.

The initial contents of <input> seed the corpus.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 3 {
				return fuzz.ErrCommandRequired
			}

			input := args[1]
			if !filepath.IsAbs(input) {
				input = filepath.Join(cfg.EffectiveCwd, input)
			}

			output := args[2]
			if !filepath.IsAbs(output) {
				output = filepath.Join(cfg.EffectiveCwd, output)
			}

			session := &fuzz.Session{
				Command:   args[0],
				Input:     input,
				Output:    output,
				CorpusDir: cfg.CorpusDirAbs,
				Timeout:   time.Duration(*timeout * float64(time.Second)),
				Out:       o,
				ErrOut:    o.ErrWriter(),
				Debug:     *debug,
			}

			return session.Run()
		},
	}
}
