/*
NAME
  continuity.go

DESCRIPTION
  continuity.go provides a ContinuityTracker for detecting discontinuities
  on the demultiplex side: unlike DiscontinuityRepairer (which stamps the
  discontinuity indicator into outgoing packets), ContinuityTracker only
  observes an incoming stream's continuity counters and reports gaps so a
  demuxer can decide whether to flush partially-assembled PES/PSI state.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import "github.com/pkg/errors"

// ErrDiscontinuity is returned by ContinuityTracker.Observe when a
// packet's continuity counter does not follow from the last one seen
// for its PID, and the packet does not carry the discontinuity
// indicator to explain the gap.
var ErrDiscontinuity = errors.New("mts: continuity counter discontinuity")

// ContinuityTracker tracks, per PID, the continuity counter expected
// of the next packet carrying a payload, and reports a discontinuity
// when that expectation is violated.
type ContinuityTracker struct {
	expect map[uint16]byte
}

// NewContinuityTracker returns an empty ContinuityTracker.
func NewContinuityTracker() *ContinuityTracker {
	return &ContinuityTracker{expect: make(map[uint16]byte)}
}

// Observe checks p's continuity counter against this tracker's
// expectation for p.PID, updates the expectation, and returns
// ErrDiscontinuity if the counter gapped unexpectedly. Packets with no
// payload (AFC == adaptation-field-only) do not carry the counter
// forward per the standard and are not checked.
func (c *ContinuityTracker) Observe(p *Packet) error {
	const afAdaptationOnly = 0x2
	if p.AFC == afAdaptationOnly {
		return nil
	}

	exp, ok := c.expect[p.PID]
	c.expect[p.PID] = (p.CC + 1) & 0xf

	if !ok {
		return nil
	}
	if p.CC == exp {
		return nil
	}
	if p.DI {
		// Stream announced the discontinuity itself; resynchronize quietly.
		return nil
	}
	return errors.Wrapf(ErrDiscontinuity, "pid %d: got cc %d, expected %d", p.PID, p.CC, exp)
}

// Reset discards tracked state for pid so the next packet observed for
// it is accepted unconditionally.
func (c *ContinuityTracker) Reset(pid uint16) {
	delete(c.expect, pid)
}
