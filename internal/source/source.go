// Package source reads upload sources as a sequence of part-sized chunks,
// either through ordinary reads or memory-mapped windows.
package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/pool"
)

// Kind is the read capability of a source, fixed when the source is opened.
type Kind int

const (
	// KindSequential sources are read with ordinary reads
	KindSequential Kind = iota

	// KindMappable sources are regular files read through memory-mapped windows
	KindMappable
)

// String returns the name of the kind.
func (k Kind) String() string {
	if k == KindMappable {
		return "mappable"
	}
	return "sequential"
}

// Chunk is one part worth of source bytes. Data is valid until Release.
type Chunk struct {
	Data    []byte
	release func() error
}

// Release frees any resources backing Data.
func (c *Chunk) Release() error {
	if c.release == nil {
		return nil
	}
	err := c.release()
	c.release = nil
	return err
}

// ChunkReader yields consecutive chunks of a source. Next returns io.EOF once
// the source is exhausted; every chunk before that is non-empty.
type ChunkReader interface {
	Next() (*Chunk, error)
	Close() error
}

type fder interface {
	Fd() uintptr
}

type statter interface {
	Stat() (fs.FileInfo, error)
}

type namer interface {
	Name() string
}

// Source is a local upload source.
type Source struct {
	name   string
	size   int64
	kind   Kind
	r      io.Reader
	fd     uintptr
	closer io.Closer
}

// Open opens path on fsys. Memory mapping is considered only when allowMap is set.
func Open(fsys afero.Fs, path string, allowMap bool) (*Source, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("source %s is a directory", path)
	}

	s := &Source{name: filepath.Base(path), r: f, closer: f}
	s.inspect(f, info, allowMap)
	return s, nil
}

// FromReader wraps a stream. Files and other readers exposing Stat report
// their size; everything else has unknown size. The name falls back to the
// reader's own Name when empty.
func FromReader(r io.Reader, name string, allowMap bool) *Source {
	if name == "" {
		if n, ok := r.(namer); ok && n.Name() != "" {
			name = filepath.Base(n.Name())
		}
	}

	s := &Source{name: name, r: r}
	if st, ok := r.(statter); ok {
		if info, err := st.Stat(); err == nil {
			s.inspect(r, info, allowMap)
		}
	}
	return s
}

// inspect sets size and kind from file metadata.
func (s *Source) inspect(r any, info fs.FileInfo, allowMap bool) {
	if !info.Mode().IsRegular() {
		return
	}

	var pos int64
	if sk, ok := r.(io.Seeker); ok {
		p, err := sk.Seek(0, io.SeekCurrent)
		if err != nil {
			return
		}
		pos = p
	}
	s.size = max(info.Size()-pos, 0)

	f, ok := r.(fder)
	if !ok || !allowMap || !mmapSupported || pos != 0 || s.size == 0 {
		return
	}
	s.fd = f.Fd()
	s.kind = KindMappable
}

// Name returns the source name, or "" when unknown.
func (s *Source) Name() string { return s.name }

// Size returns the number of bytes to upload, or 0 when unknown.
func (s *Source) Size() int64 { return s.size }

// Kind returns the read capability of the source.
func (s *Source) Kind() Kind { return s.kind }

// Chunks returns a reader yielding chunks of at most partSize bytes.
func (s *Source) Chunks(partSize int64) ChunkReader {
	if s.kind == KindMappable {
		return &mappedReader{fd: s.fd, size: s.size, partSize: partSize}
	}
	bp := pool.ForSize(int(partSize))
	return &sequentialReader{r: s.r, pool: bp, buf: bp.Get(int(partSize))}
}

// Close closes the underlying file if the source opened it.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Granularity returns the alignment required for memory-mapped offsets.
func Granularity() int64 {
	return granularity()
}

// sequentialReader fills one part-sized buffer per chunk. The buffer is
// reused, so a chunk is only valid until the next call to Next.
type sequentialReader struct {
	r    io.Reader
	pool *pool.BufferPool
	buf  []byte
	done bool
}

func (s *sequentialReader) Next() (*Chunk, error) {
	if s.done || s.buf == nil {
		return nil, io.EOF
	}

	n, err := io.ReadFull(s.r, s.buf)
	switch {
	case err == nil:
		return &Chunk{Data: s.buf[:n]}, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		return &Chunk{Data: s.buf[:n]}, nil
	case errors.Is(err, io.EOF):
		s.done = true
		return nil, io.EOF
	default:
		return nil, err
	}
}

func (s *sequentialReader) Close() error {
	if s.buf != nil {
		s.pool.Put(s.buf)
		s.buf = nil
	}
	return nil
}

// mappedReader maps [offset, offset+min(partSize, remaining)) per chunk.
type mappedReader struct {
	fd       uintptr
	size     int64
	partSize int64
	offset   int64
}

func (m *mappedReader) Next() (*Chunk, error) {
	if m.offset >= m.size {
		return nil, io.EOF
	}

	length := min(m.partSize, m.size-m.offset)
	data, err := mapRegion(m.fd, m.offset, int(length))
	if err != nil {
		return nil, fmt.Errorf("map %d bytes at offset %d: %w", length, m.offset, err)
	}
	m.offset += length

	return &Chunk{Data: data, release: func() error { return unmapRegion(data) }}, nil
}

func (m *mappedReader) Close() error {
	return nil
}
