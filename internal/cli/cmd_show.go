package cli

import (
	"context"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"shrinkfuzz/internal/corpus"
	"shrinkfuzz/internal/fuzz"
	"shrinkfuzz/pkg/fs"
)

// ShowCmd builds the show command, printing one exemplar's bytes.
func ShowCmd(cfg fuzz.Config) *Command {
	flags := flag.NewFlagSet("show", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "show <label>",
		Short: "Write a label's smallest witness to stdout",
		Long: `Writes the raw bytes of the smallest known witness for <label> to
stdout, suitable for piping into the target by hand.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return errLabelRequired
			}

			fsys := fs.NewReal()

			manifest, err := corpus.ReadManifest(fsys, cfg.CorpusDirAbs)
			if err != nil {
				return err
			}

			data, err := corpus.ExemplarBytes(fsys, cfg.CorpusDirAbs, filepath.Base(manifest.Input), args[0])
			if err != nil {
				return err
			}

			_, err = o.Write(data)

			return err
		},
	}
}
