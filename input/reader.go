/*
NAME
  reader.go

DESCRIPTION
  reader.go provides Reader, an io.Reader that wraps a seekable byte
  stream with optional looping, grounded on device/file/file.go's
  AVFile (the same open/read/seek-on-EOF pattern, generalized from a
  concrete *os.File to any io.ReadSeeker). Sources that cannot seek,
  such as network streams, cannot be wrapped.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package input supplies the byte-stream sources the demux pipeline
// reads transport stream packets from: looping file playback, fan-in
// of multiple sources, and idle-stream detection.
package input

import (
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

// ErrClosed is returned by Reader.Read once Close has been called.
var ErrClosed = errors.New("input: reader is closed")

// Reader wraps an io.ReadSeeker, optionally seeking back to the start
// and continuing on EOF instead of propagating it.
type Reader struct {
	mu     sync.Mutex
	src    io.ReadSeeker
	loop   bool
	closed bool
	log    logging.Logger
}

// NewReader returns a Reader over src. If loop is true, Read seeks
// back to the start of src instead of returning io.EOF.
func NewReader(src io.ReadSeeker, loop bool, log logging.Logger) *Reader {
	return &Reader{src: src, loop: loop, log: log}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}

	n, err := r.src.Read(p)
	if err != nil && err != io.EOF {
		return n, err
	}

	if (n < len(p) || err == io.EOF) && r.loop {
		if r.log != nil {
			r.log.Info("looping input stream")
		}
		if _, serr := r.src.Seek(0, io.SeekStart); serr != nil {
			return n, errors.Wrap(serr, "could not seek to start of input for loop")
		}
		more, rerr := r.src.Read(p[n:])
		n += more
		if rerr != nil && rerr != io.EOF {
			return n, rerr
		}
		return n, nil
	}

	return n, err
}

// Close marks the Reader closed. If the underlying source implements
// io.Closer, it is closed too.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MultiReader concatenates several io.Readers, reading each to
// exhaustion before moving to the next, the way multiple Teletext/CC
// carrying recordings can be played back as one logical stream.
type MultiReader struct {
	mu      sync.Mutex
	sources []io.Reader
	idx     int
}

// NewMultiReader returns a MultiReader over sources, read in order.
func NewMultiReader(sources ...io.Reader) *MultiReader {
	return &MultiReader{sources: sources}
}

// Read implements io.Reader.
func (m *MultiReader) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.idx < len(m.sources) {
		n, err := m.sources[m.idx].Read(p)
		if err == io.EOF {
			m.idx++
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
	return 0, io.EOF
}
