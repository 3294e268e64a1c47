/*
NAME
  encoder.go

DESCRIPTION
  encoder.go implements a minimal SubRip (.srt) cue writer, serving as
  the reference Encoder implementation for ccx.Orchestrator's output
  stage and as the simplest possible end-to-end test of the whole
  pipeline: demux -> decode -> commit -> encode.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package srt writes subtitle.Cue values out as SubRip (.srt) text.
package srt

import (
	"fmt"
	"io"

	"github.com/ausocean/ccx/subtitle"
)

// Encoder writes successive Cues to an underlying io.Writer as
// numbered SubRip blocks.
type Encoder struct {
	w       io.Writer
	seq     int
	tickerHz uint64
}

// NewEncoder returns an Encoder writing to w. clockHz is the rate the
// Cue PTS/start/end fields are expressed in (90000 for MPEG-2 PTS).
func NewEncoder(w io.Writer, clockHz uint64) *Encoder {
	if clockHz == 0 {
		clockHz = 90000
	}
	return &Encoder{w: w, tickerHz: clockHz}
}

// Encode writes one Cue as a SubRip block.
func (e *Encoder) Encode(c subtitle.Cue) error {
	e.seq++
	_, err := fmt.Fprintf(e.w, "%d\n%s --> %s\n%s\n\n",
		e.seq, e.timestamp(c.Start), e.timestamp(c.End), c.Text)
	return err
}

// timestamp formats a clock-tick count as an SubRip
// HH:MM:SS,mmm timestamp.
func (e *Encoder) timestamp(ticks uint64) string {
	ms := ticks * 1000 / e.tickerHz
	h := ms / 3600000
	ms %= 3600000
	m := ms / 60000
	ms %= 60000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
