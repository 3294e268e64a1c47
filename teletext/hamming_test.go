package teletext

import "testing"

func TestUnham84RoundTrip(t *testing.T) {
	for v := byte(0); v < 16; v++ {
		encoded := ham84Encode(v)
		got, ok := Unham84(encoded)
		if !ok {
			t.Fatalf("value %#x: unexpected uncorrectable", v)
		}
		if got != v {
			t.Fatalf("value %#x: got %#x", v, got)
		}
	}
}

func TestUnham84CorrectsSingleBitError(t *testing.T) {
	encoded := ham84Encode(0x5)
	for bit := uint(0); bit < 8; bit++ {
		corrupted := encoded ^ (1 << bit)
		got, ok := Unham84(corrupted)
		if !ok {
			t.Fatalf("bit %d: expected correction, got uncorrectable", bit)
		}
		if got != 0x5 {
			t.Fatalf("bit %d: got %#x, want 0x5", bit, got)
		}
	}
}

// ham84Encode is the inverse of Unham84, used only to generate test
// fixtures.
func ham84Encode(v byte) byte {
	d1 := v & 1
	d2 := (v >> 1) & 1
	d3 := (v >> 2) & 1
	d4 := (v >> 3) & 1
	p1 := d1 ^ d2 ^ d4
	p2 := d1 ^ d3 ^ d4
	p3 := d2 ^ d3 ^ d4
	b := p1 | p2<<1 | d1<<2 | p3<<3 | d2<<4 | d3<<5 | d4<<6
	var parity byte
	for i := uint(0); i < 7; i++ {
		parity ^= (b >> i) & 1
	}
	return b | parity<<7
}

// ham2418DataPos lists, in ascending order, the 0-indexed bit
// positions Unham2418's final extraction formula reads its 18 data
// bits from.
var ham2418DataPos = []uint{2, 4, 5, 6, 8, 9, 10, 11, 12, 13, 14, 16, 17, 18, 19, 20, 21, 22}

// ham2418ParityPos lists the 0-indexed positions of the 5 Hamming
// parity bits, at 1-indexed positions 1,2,4,8,16.
var ham2418ParityPos = []uint{0, 1, 3, 7, 15}

// ham2418Encode is the inverse of Unham2418, used only to generate
// test fixtures. Unham2418's syndrome is the XOR of the 1-indexed
// position of every set bit among bits 0-22; a codeword decodes
// cleanly when that syndrome's low 5 bits equal 0x1f (derived
// directly from Unham2418's `test&0x1f != 0x1f` check), which holds
// when each Hamming parity bit is the INVERSE of the XOR of the data
// bits in its group — inverted, rather than classical even, parity.
// Bit 23 (the overall SECDED parity bit) never affects that check, so
// it's left 0.
func ham2418Encode(data uint32) uint32 {
	var a uint32
	for i, pos := range ham2418DataPos {
		if (data>>uint(i))&1 != 0 {
			a |= 1 << pos
		}
	}
	for k, ppos := range ham2418ParityPos {
		var x uint32
		for _, dpos := range ham2418DataPos {
			if (uint32(dpos+1)>>uint(k))&1 != 0 {
				x ^= (a >> dpos) & 1
			}
		}
		if x^1 != 0 {
			a |= 1 << ppos
		}
	}
	return a
}

func TestUnham2418RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x3ffff, 0x1a5a5, 0x02040, 0x20101} {
		encoded := ham2418Encode(v)
		got, ok := Unham2418(encoded)
		if !ok {
			t.Fatalf("value %#x: unexpected uncorrectable", v)
		}
		if got != v {
			t.Fatalf("value %#x: got %#x", v, got)
		}
	}
}
