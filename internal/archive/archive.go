// Package archive keeps ingested journal lines as zstd-compressed JSONL and
// reads them (or plain journal files) back for replay.
package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Ext is the archive file extension.
const Ext = ".jsonl.zst"

// Writer appends lines to one compressed archive file. The file is created
// on the first Append.
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter returns a writer for dir/name.jsonl.zst.
func NewWriter(dir, name string) *Writer {
	return &Writer{path: filepath.Join(dir, name+Ext)}
}

// Path returns the archive file path.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one line. A trailing newline is added. Each call is
// flushed through to a complete zstd block so a reader sees every line
// appended so far, even before Close.
func (w *Writer) Append(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(line); err != nil {
		return fmt.Errorf("archive write: %w", err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("archive write: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("archive flush: %w", err)
	}
	if err := w.enc.Flush(); err != nil {
		return fmt.Errorf("archive flush: %w", err)
	}
	return nil
}

func (w *Writer) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("archive dir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("archive open: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("archive encoder: %w", err)
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

// Close finishes the zstd stream and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if w.w != nil {
		errs = append(errs, w.w.Flush())
	}
	if w.enc != nil {
		errs = append(errs, w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		errs = append(errs, w.f.Close())
		w.f = nil
	}
	w.w = nil
	return errors.Join(errs...)
}

// Compressed reports whether path names a compressed archive.
func Compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// Open opens a journal or archive for reading, decompressing archives.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !Compressed(path) {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("archive decoder: %w", err)
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

// maxLine bounds one journal line; Loadout records can be large.
const maxLine = 8 << 20

// Lines calls fn for every line of r, without the trailing newline. The
// slice is only valid during the call. Iteration stops at the first error
// from fn, which is returned.
func Lines(r io.Reader, fn func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read lines: %w", err)
	}
	return nil
}

// ReadFile is Open followed by Lines.
func ReadFile(path string, fn func(line []byte) error) error {
	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := Lines(rc, fn); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
