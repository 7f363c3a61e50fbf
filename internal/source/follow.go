package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/qoncrete/qoncrete-go/pkg/log"
)

// DefaultPollInterval re-checks the file when no fsnotify event arrives,
// which happens on some network filesystems.
const DefaultPollInterval = time.Second

// Follower tails a JSON-lines file as it grows.
//
// Only newline-terminated lines are delivered; a trailing partial line
// waits for its newline. Truncation restarts from the beginning of the
// file and rotation (the path now names a different file) switches to the
// new file once the old one is drained.
type Follower struct {
	path   string
	offset int64
	poll   time.Duration
	logger log.Logger

	file    *os.File
	partial []byte
	buf     []byte
}

// NewFollower creates a follower starting at offset bytes into path.
func NewFollower(path string, offset int64, logger log.Logger) *Follower {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Follower{
		path:   filepath.Clean(path),
		offset: offset,
		poll:   DefaultPollInterval,
		logger: logger,
		buf:    make([]byte, readBufferSize),
	}
}

// Offset returns the position just after the last delivered line.
func (f *Follower) Offset() int64 {
	return f.offset
}

// Run delivers lines to fn until ctx is canceled or fn fails.
// It returns nil when ctx ends.
func (f *Follower) Run(ctx context.Context, fn LineFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}
	defer f.closeFile()

	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	for {
		if err := f.drain(fn); err != nil {
			return err
		}
		reopened, err := f.checkFile()
		if err != nil {
			return err
		}
		if reopened {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("file watcher error", log.Err(err))
		case <-ticker.C:
		}
	}
}

// drain reads everything currently in the file.
func (f *Follower) drain(fn LineFunc) error {
	if f.file == nil {
		if err := f.open(); err != nil {
			return err
		}
		if f.file == nil {
			return nil
		}
	}

	for {
		n, err := f.file.Read(f.buf)
		if n > 0 {
			if ferr := f.consume(f.buf[:n], fn); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", f.path, err)
		}
	}
}

func (f *Follower) consume(chunk []byte, fn LineFunc) error {
	f.partial = append(f.partial, chunk...)
	for {
		i := bytes.IndexByte(f.partial, '\n')
		if i < 0 {
			return nil
		}
		raw := f.partial[:i+1]
		f.offset += int64(len(raw))
		if line := bytes.TrimSpace(raw); len(line) > 0 {
			if err := fn(line, f.offset); err != nil {
				return err
			}
		}
		f.partial = f.partial[i+1:]
	}
}

// open opens the file at the current offset. A missing file is not an
// error; the follower waits for it to appear.
func (f *Follower) open() error {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	if info.Size() < f.offset {
		f.logger.Warn("file shorter than saved offset, reading from start",
			log.String("path", f.path),
			log.Int64("offset", f.offset),
			log.Int64("size", info.Size()),
		)
		f.offset = 0
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		file.Close()
		return err
	}

	f.file = file
	f.partial = f.partial[:0]
	f.logger.Debug("following file", log.String("path", f.path), log.Int64("offset", f.offset))
	return nil
}

// checkFile detects truncation and rotation of the followed path. It
// reports whether the file was closed so the new one can be read at once.
func (f *Follower) checkFile() (bool, error) {
	if f.file == nil {
		return false, nil
	}

	current, err := f.file.Stat()
	if err != nil {
		return false, err
	}
	onDisk, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch {
	case !os.SameFile(current, onDisk):
		f.logger.Info("file rotated, switching to new file", log.String("path", f.path))
		f.closeFile()
		f.offset = 0
		return true, nil
	case onDisk.Size() < f.offset+int64(len(f.partial)):
		f.logger.Warn("file truncated, reading from start", log.String("path", f.path))
		f.closeFile()
		f.offset = 0
		return true, nil
	}
	return false, nil
}

func (f *Follower) closeFile() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
	}
	f.partial = f.partial[:0]
}
