/*
NAME
  hamming.go

DESCRIPTION
  hamming.go implements the two error-correcting codes ETS 300 706 uses
  to protect Teletext data: Hamming 8/4 (one protected nibble per byte,
  used for magazine/row addressing and most control codes) and Hamming
  24/18 (three protected bytes, used for X/26 and X/28/M/29
  packets). Unham2418 is a direct port of telxcc.c's unham_24_18.
  Unham84 reconstructs the equivalent SECDED decode from the code's
  parity-check structure (ETS 300 706 chapter 8.2) rather than a literal
  lookup table, since no UNHAM_8_4 table ships in this codebase's
  reference material.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package teletext

import "math/bits"

// Unham84 decodes one Hamming 8/4 protected byte, laid out as bits
// (LSB first) P1 P2 D1 P3 D2 D3 D4 P4. It returns the 4 data bits and
// false if a double-bit error made the byte unrecoverable.
func Unham84(a byte) (byte, bool) {
	p1 := a & 1
	p2 := (a >> 1) & 1
	d1 := (a >> 2) & 1
	p3 := (a >> 3) & 1
	d2 := (a >> 4) & 1
	d3 := (a >> 5) & 1
	d4 := (a >> 6) & 1

	c1 := p1 ^ d1 ^ d2 ^ d4
	c2 := p2 ^ d1 ^ d3 ^ d4
	c3 := p3 ^ d2 ^ d3 ^ d4
	syndrome := c1 | c2<<1 | c3<<2

	evenParity := bits.OnesCount8(a)&1 == 0

	if syndrome == 0 {
		// Either no error, or a single-bit error in P4 itself, which
		// does not affect the recovered data bits either way.
		return d1 | d2<<1 | d3<<2 | d4<<3, true
	}
	if evenParity {
		return 0, false
	}

	a ^= 1 << (syndrome - 1)
	d1 = (a >> 2) & 1
	d2 = (a >> 4) & 1
	d3 = (a >> 5) & 1
	d4 = (a >> 6) & 1
	return d1 | d2<<1 | d3<<2 | d4<<3, true
}

// Unham2418 decodes a 24-bit Hamming 24/18 protected triplet into its
// 18 data bits, returning ok=false if the triplet carries an
// uncorrectable error. Ported bit-for-bit from telxcc.c's
// unham_24_18.
func Unham2418(a uint32) (uint32, bool) {
	var test byte
	for i := uint(0); i < 23; i++ {
		test ^= byte(((a >> i) & 0x01) * uint32(i+33))
	}
	test ^= byte(((a >> 23) & 0x01) * 32)

	if test&0x1f != 0x1f {
		if test&0x20 == 0x20 {
			return 0, false
		}
		a ^= uint32(1) << (30 - uint32(test))
	}

	return (a&0x000004)>>2 | (a&0x000070)>>3 | (a&0x007f00)>>4 | (a&0x7f0000)>>5, true
}
