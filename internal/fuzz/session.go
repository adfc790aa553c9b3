// Package fuzz wires the shrink engine, the target driver and the
// corpus store into a runnable fuzzing session.
package fuzz

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"shrinkfuzz/internal/corpus"
	"shrinkfuzz/internal/shrinker"
	"shrinkfuzz/internal/target"
	"shrinkfuzz/pkg/fs"
)

// Session describes one fuzzing run over a target command.
type Session struct {
	// Command is the shell command that reads Input and may write Output.
	Command string

	// Input is the path the target reads its input from.
	Input string

	// Output is the path the target writes its output to, if any.
	Output string

	// CorpusDir is the corpus root directory.
	CorpusDir string

	// Timeout bounds each target run; zero or negative disables it.
	Timeout time.Duration

	// Out receives the target's output on its first run.
	Out io.Writer

	// ErrOut receives warnings and, with Debug, the shrink event stream.
	ErrOut io.Writer

	// Debug enables the verbose shrink event stream on ErrOut.
	Debug bool

	// FS is the filesystem used for corpus persistence. Nil means the
	// real filesystem.
	FS fs.FS
}

// Run executes the session: it snapshots the initial input, classifies
// it along with the empty-string baseline and any seeds left over from
// a previous run, then shrinks until the corpus is exhausted.
func (s *Session) Run() error {
	if s.Command == "" || s.Input == "" || s.Output == "" {
		return ErrCommandRequired
	}

	fsys := s.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	initial, err := fsys.ReadFile(s.Input)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInputFileRead, s.Input)
	}

	store, err := corpus.Open(fsys, s.CorpusDir, filepath.Base(s.Input))
	if err != nil {
		return err
	}
	store.Warn = s.ErrOut

	if err := store.WriteInitial(initial); err != nil {
		return err
	}

	if err := store.WriteManifest(corpus.NewManifest(s.Command, s.Input, s.Output)); err != nil {
		return err
	}

	runner := &target.Runner{
		Command:    s.Command,
		InputPath:  s.Input,
		OutputPath: s.Output,
		Timeout:    s.Timeout,
		Stdout:     s.Out,
		Sink:       store,
		Warn:       s.ErrOut,
	}

	var debug io.Writer
	if s.Debug {
		debug = s.ErrOut
	}

	sh := shrinker.New(runner.Classify, [][]byte{initial}, shrinker.Options{
		Observer: store,
		Debug:    debug,
	})

	if !sh.Seen([]byte{}) {
		sh.Classify([]byte{})
	}

	// Seeds left on disk by a previous session re-enter the corpus if
	// they are still unseen and still interesting.
	err = store.EachSeed(func(path string, data []byte) error {
		if !sh.Seen(data) {
			store.RemoveSeedFile(path)
			sh.Classify(data)
		}
		return nil
	})
	if err != nil {
		return err
	}

	sh.Run()

	return nil
}
