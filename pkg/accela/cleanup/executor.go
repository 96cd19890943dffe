package cleanup

import (
	"os"

	"github.com/charmbracelet/log"
)

// executor performs (or merely records) each filesystem mutation. Injecting
// the executor keeps the validate/confirm/wipe flow identical between real
// and dry runs instead of branching on a flag at every call site.
type executor interface {
	// RemoveFile unlinks a single file.
	RemoveFile(path string) error
	// RemoveTree recursively removes a directory.
	RemoveTree(path string) error
}

// realExecutor mutates the filesystem.
type realExecutor struct {
	log *log.Logger
}

func (e *realExecutor) RemoveFile(path string) error {
	e.log.Warn("deleting file", "path", path)
	return os.Remove(path)
}

func (e *realExecutor) RemoveTree(path string) error {
	e.log.Warn("deleting directory", "path", path)
	return os.RemoveAll(path)
}

// dryRunExecutor logs intended mutations without performing them.
type dryRunExecutor struct {
	log *log.Logger
}

func (e *dryRunExecutor) RemoveFile(path string) error {
	e.log.Info("[dry run] would delete file", "path", path)
	return nil
}

func (e *dryRunExecutor) RemoveTree(path string) error {
	e.log.Info("[dry run] would delete directory", "path", path)
	return nil
}
