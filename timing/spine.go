/*
NAME
  spine.go

DESCRIPTION
  spine.go tracks the 90kHz PTS clock across a transport stream and
  derives a monotonic frame timestamp (FTS) in milliseconds for each
  observed PTS, accounting for the 33-bit PTS field's roughly 26.5-hour
  wraparound (ETS 300 706 / ISO 13818-1). When a stream carries no PTS
  at all (GOP-mode fallback, grounded on mpegts.go's GetPTS/GetPTSRange
  pair), Spine instead advances FTS by a fixed frame duration per call.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package timing derives a monotonic presentation timeline from the
// PTS values observed in a transport stream.
package timing

import "sync"



// ptsClockHz is the MPEG-2 system clock rate PTS/DTS values are
// expressed in.
const ptsClockHz = 90000

// ptsMax is one past the largest representable 33-bit PTS value.
const ptsMax = 1 << 33

// defaultFrameDurationMS is the fallback frame duration (25fps) used
// in GOP mode, when no PTS is available to derive timing from.
const defaultFrameDurationMS = 40

// Spine converts 90kHz PTS samples into a monotonically increasing
// frame timestamp in milliseconds, resolving PTS wraparound by
// tracking how many times the 33-bit counter has rolled over. Safe for
// concurrent use.
type Spine struct {
	mu sync.Mutex

	haveFirst bool
	firstPTS  uint64
	lastPTS   uint64
	wraps     uint64

	gopFTS uint64 // running FTS used when no PTS is supplied.
}

// NewSpine returns an empty Spine.
func NewSpine() *Spine { return &Spine{} }

// Observe records a PTS sample and returns its frame timestamp in
// milliseconds, relative to the first PTS this Spine observed.
func (s *Spine) Observe(pts uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	pts &= ptsMax - 1

	if !s.haveFirst {
		s.firstPTS = pts
		s.lastPTS = pts
		s.haveFirst = true
		return 0
	}

	// A large backward jump indicates the 33-bit counter wrapped.
	if pts+ptsMax/2 < s.lastPTS {
		s.wraps++
	}
	s.lastPTS = pts

	absolute := s.wraps*ptsMax + pts
	base := s.firstPTS
	var elapsed uint64
	if absolute >= base {
		elapsed = absolute - base
	}
	return elapsed * 1000 / ptsClockHz
}

// Last returns the frame timestamp of the most recently observed PTS
// sample, without consuming a new one. It returns ok=false if Observe
// has never been called.
func (s *Spine) Last() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.haveFirst {
		return 0, false
	}

	absolute := s.wraps*ptsMax + s.lastPTS
	base := s.firstPTS
	var elapsed uint64
	if absolute >= base {
		elapsed = absolute - base
	}
	return elapsed * 1000 / ptsClockHz, true
}

// Advance returns the next frame timestamp in GOP mode, where no PTS
// is available and frames are assumed to arrive at a fixed rate.
func (s *Spine) Advance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	fts := s.gopFTS
	s.gopFTS += defaultFrameDurationMS
	return fts
}
