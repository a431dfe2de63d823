// Package fsys enumerates plugin inputs and opens generated outputs on top of
// an afero filesystem.
package fsys

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// ErrConsumed is yielded when an input sequence is iterated a second time.
var ErrConsumed = errors.New("input sequence already consumed")

var errStop = errors.New("stop")

// Filesystem resolves glob patterns against an afero.Fs.
type Filesystem struct {
	fs afero.Fs
}

// New wraps fs. A nil fs means the operating system filesystem.
func New(fs afero.Fs) *Filesystem {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Filesystem{fs: fs}
}

// Fs returns the underlying filesystem.
func (f *Filesystem) Fs() afero.Fs { return f.fs }

// Abs joins a relative pattern or path onto baseDir.
func Abs(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// Enumerate lazily yields the files under baseDir matching pattern in lexical
// order. The sequence walks the filesystem once; iterating it again yields
// ErrConsumed.
func (f *Filesystem) Enumerate(baseDir, pattern string) iter.Seq2[string, error] {
	pattern = filepath.ToSlash(Abs(baseDir, pattern))
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if used.Swap(true) {
			yield("", ErrConsumed)
			return
		}
		if !doublestar.ValidatePattern(pattern) {
			yield("", fmt.Errorf("invalid input pattern %q", pattern))
			return
		}
		if !IsWildcardPath(pattern) {
			if ok, err := afero.Exists(f.fs, pattern); err != nil {
				yield("", err)
			} else if ok {
				yield(pattern, nil)
			}
			return
		}

		root := StaticPrefix(pattern)
		err := afero.Walk(f.fs, root, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				if p == root && errors.Is(err, os.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if info.IsDir() {
				return nil
			}
			p = filepath.ToSlash(p)
			ok, err := doublestar.Match(pattern, p)
			if err != nil {
				return err
			}
			if ok && !yield(p, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) && !errors.Is(err, filepath.SkipDir) {
			yield("", fmt.Errorf("enumerate %s: %w", pattern, err))
		}
	}
}

// ReadFile reads the whole file at p.
func (f *Filesystem) ReadFile(p string) ([]byte, error) {
	return afero.ReadFile(f.fs, p)
}

// OpenOutput truncates or creates the file at p, creating parent directories.
func (f *Filesystem) OpenOutput(p string) (io.WriteCloser, error) {
	if err := f.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory for %s: %w", p, err)
	}
	w, err := f.fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", p, err)
	}
	return w, nil
}

// OpenOutputs opens every path, closing the already opened ones on failure.
func (f *Filesystem) OpenOutputs(paths ...string) (map[string]io.WriteCloser, error) {
	out := make(map[string]io.WriteCloser, len(paths))
	for _, p := range paths {
		if _, ok := out[p]; ok {
			continue
		}
		w, err := f.OpenOutput(p)
		if err != nil {
			for _, opened := range out {
				opened.Close()
			}
			return nil, err
		}
		out[p] = w
	}
	return out, nil
}
