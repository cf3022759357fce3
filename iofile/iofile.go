// Package iofile implements the IOFile protocol from section 6 of the
// scheduler spec: a handle on a single input or output file used by a Job.
// Grounded on the teacher's project/file.go Resource/File implementation,
// generalized from "Resource produced by a provider" to the narrower IOFile
// contract the scheduler actually needs (prepare/touch/remove/created/used
// plus the temp/protected flags).
package iofile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// IOFile is a handle to a file read or written by a Job. It is the
// "external, interface only" collaborator named in spec section 2.1.
type IOFile interface {
	// Path is the file's location, used as its identity
	Path() string

	// Prepare ensures the file's parent directory exists
	Prepare() error

	// Touch updates the file's modification time, creating it if absent.
	// ruleName/lineno/snakefile are included in any resulting error so it
	// can be attributed to the rule that declared the output.
	Touch(ruleName string, lineno int, snakefile string) error

	// Remove deletes the file if it exists; removing an absent file is not
	// an error.
	Remove() error

	// Created runs post-success bookkeeping after a rule that produces
	// this file has finished; it fails with MissingOutputError-shaped
	// semantics if the file does not actually exist.
	Created(ruleName string, lineno int, snakefile string) error

	// Used marks the file as having been read by a finished job. It exists
	// purely for observability/hooks; the default implementation is a
	// no-op.
	Used() error

	// Exists reports whether the file is currently present
	Exists() (bool, error)

	// IsTemp reports whether the file is a scratch/temp artifact
	IsTemp() bool

	// IsProtected reports whether the file predates the run and must never
	// be deleted by cleanup
	IsProtected() bool
}

// File is the default, local-filesystem IOFile implementation.
type File struct {
	path      string
	temp      bool
	protected bool
}

// Create returns an IOFile for the given path. This mirrors Snakemake's
// IOFile.create(path, temp, protected) factory used throughout dynamic
// expansion to rebuild concrete file handles from a pattern match.
func Create(path string, temp, protected bool) IOFile {
	return &File{path: path, temp: temp, protected: protected}
}

// New returns a plain, non-temp, non-protected File for path.
func New(path string) IOFile {
	return &File{path: path}
}

// Path returns the absolute or relative path of the file
func (f *File) Path() string { return f.path }

// IsTemp reports the temp flag
func (f *File) IsTemp() bool { return f.temp }

// IsProtected reports the protected flag
func (f *File) IsProtected() bool { return f.protected }

// Exists reports whether the file is present on disk
func (f *File) Exists() (bool, error) {
	if _, err := os.Stat(f.path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Prepare creates the file's parent directory
func (f *File) Prepare() error {
	dir := filepath.Dir(f.path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// Touch sets the file's mtime to now, creating an empty file if needed
func (f *File) Touch(ruleName string, lineno int, snakefile string) error {
	exists, err := f.Exists()
	if err != nil {
		return err
	}
	if !exists {
		fh, err := os.Create(f.path)
		if err != nil {
			return fmt.Errorf("rule %s (%s:%d): failed to touch %s: %w",
				ruleName, snakefile, lineno, f.path, err)
		}
		return fh.Close()
	}
	now := time.Now()
	return os.Chtimes(f.path, now, now)
}

// Remove deletes the file; a missing file is not an error
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Created verifies the file actually exists after its producing rule ran
func (f *File) Created(ruleName string, lineno int, snakefile string) error {
	exists, err := f.Exists()
	if err != nil {
		return err
	}
	if !exists {
		return &MissingOutputError{Rule: ruleName, File: f.path, Line: lineno, Snakefile: snakefile}
	}
	return nil
}

// Used is a no-op hook point for observers
func (f *File) Used() error { return nil }

// MissingOutputError indicates a rule finished without producing a
// declared, non-dynamic output file (spec section 7: MissingOutputException).
type MissingOutputError struct {
	Rule      string
	File      string
	Line      int
	Snakefile string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("rule %s (%s:%d): missing output file: %s",
		e.Rule, e.Snakefile, e.Line, e.File)
}
