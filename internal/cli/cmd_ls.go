package cli

import (
	"context"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"shrinkfuzz/internal/corpus"
	"shrinkfuzz/internal/fuzz"
	"shrinkfuzz/pkg/fs"
)

// LsCmd builds the ls command, listing discovered labels with their
// exemplar sizes.
func LsCmd(cfg fuzz.Config) *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "ls",
		Short: "List discovered labels and their smallest witnesses",
		Long: `Lists every behavior label recorded in the corpus directory with the
size and digest of its smallest known witness.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return errUnexpectedArgs
			}

			fsys := fs.NewReal()

			manifest, err := corpus.ReadManifest(fsys, cfg.CorpusDirAbs)
			if err != nil {
				return err
			}

			infos, err := corpus.ListExemplars(fsys, cfg.CorpusDirAbs, filepath.Base(manifest.Input))
			if err != nil {
				return err
			}

			if len(infos) == 0 {
				o.Warn("corpus has no exemplars yet: run 'shrinkfuzz run' first")
				return nil
			}

			for _, info := range infos {
				o.Printf("%8d  %s  %s\n", info.Size, info.Digest, info.Label)
			}

			return nil
		},
	}
}
