package fuzz

import "errors"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrCorpusDirEmpty     = errors.New("corpus_dir cannot be empty")
	ErrInputFileRead      = errors.New("cannot read input file")
	ErrCommandRequired    = errors.New("command, input and output are required")
)
