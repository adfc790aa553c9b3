// Package fs provides a small filesystem abstraction so that code which
// persists corpus state can be tested against an interposable seam.
//
// The main types are:
//   - [FS]: interface for the filesystem operations the corpus needs
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using the [os] package
//   - [AtomicWriter]: durable write-temp/sync/rename file replacement
package fs

import (
	"io"
	"os"
)

// File represents an OS-backed open file descriptor.
//
// This interface is satisfied by [os.File]. Implementations must behave
// like [os.File]: read-only handles return an error from Write, and the
// descriptor stays valid until Close.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Chmod changes the mode of the file. See [os.File.Chmod].
	Chmod(mode os.FileMode) error
}

// FS defines the filesystem operations used by the corpus store.
//
// All methods mirror their [os] package equivalents. Paths use OS
// semantics (like the os package and path/filepath), not the
// slash-separated paths of the standard library io/fs package.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions.
	// See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// ReadDir reads a directory and returns its entries sorted by name.
	// See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Rename moves/renames a file. Atomic on the same filesystem.
	// See [os.Rename].
	Rename(oldpath, newpath string) error

	// Link creates newpath as a hard link to oldpath. See [os.Link].
	Link(oldpath, newpath string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
