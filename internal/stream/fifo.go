package stream

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// MakeFIFO creates a named pipe at path with mode 0666.  A stale FIFO left at
// path by an earlier run is replaced; any other existing file is an error.
func MakeFIFO(path string) error {
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&fs.ModeNamedPipe == 0 {
			return fmt.Errorf("mkfifo %s: %w", path, fs.ErrExist)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove stale fifo: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := unix.Mkfifo(path, 0o666); err != nil {
		return fmt.Errorf("mkfifo %s: %w", path, err)
	}
	return nil
}
