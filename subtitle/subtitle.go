/*
NAME
  subtitle.go

DESCRIPTION
  subtitle.go defines the Subtitle value both the teletext and cea
  packages produce, and Buffer, a two-cell commit buffer that turns a
  stream of point-in-time subtitle updates into timed cues: each new
  update closes out the previous cue's end time, unless it is merely a
  typo correction of the pending one, in which case it extends it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package subtitle holds the caption pipeline's common output type and
// the two-cell buffer that assigns cues a start and end time.
package subtitle

import (
	"sync"

	"github.com/ausocean/ccx/teletext"
)

// Subtitle is one piece of caption text observed at a point in time.
// Source carries which decoder produced it, and Channel a source-
// specific stream selector (Teletext magazine*100+page, or a CEA
// 608/708 channel number).
type Subtitle struct {
	PTS     uint64
	Text    string
	Source  string
	Channel int
}

// Cue is a Subtitle with a closed [Start, End) time range, ready for
// an Encoder to write out.
type Cue struct {
	Subtitle
	Start uint64
	End   uint64
}

// Buffer holds the most recently committed Subtitle as pending, so
// that the next Subtitle can close it out as a complete Cue. Safe for
// concurrent use.
type Buffer struct {
	mu         sync.Mutex
	prev       *Subtitle
	mergeTypos bool
}

// NewBuffer returns an empty Buffer. When mergeTypos is set, a Commit
// whose text is a minor correction of the pending Subtitle's (see
// teletext.IsTypoOf) extends the pending Subtitle in place instead of
// closing it out as a separate cue.
func NewBuffer(mergeTypos bool) *Buffer { return &Buffer{mergeTypos: mergeTypos} }

// Commit records next and, if a previous Subtitle on the same Channel
// is pending, either returns it as a completed Cue ending at next's
// PTS, or, when next is only a typo correction of it, extends the
// pending Subtitle's text and reports no cue yet.
func (b *Buffer) Commit(next Subtitle) (Cue, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mergeTypos && b.prev != nil && b.prev.Channel == next.Channel &&
		teletext.IsTypoOf(b.prev.Text, next.Text) {
		b.prev.Text = next.Text
		return Cue{}, false
	}

	var cue Cue
	ok := false
	if b.prev != nil && b.prev.Channel == next.Channel {
		cue = Cue{Subtitle: *b.prev, Start: b.prev.PTS, End: next.PTS}
		ok = true
	}
	p := next
	b.prev = &p
	return cue, ok
}

// Flush closes out any pending Subtitle with an explicit end PTS,
// because there is no following update to derive one from.
func (b *Buffer) Flush(end uint64) (Cue, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.prev == nil {
		return Cue{}, false
	}
	cue := Cue{Subtitle: *b.prev, Start: b.prev.PTS, End: end}
	b.prev = nil
	return cue, true
}
