/*
NAME
  parse.go

DESCRIPTION
  Parse decodes one 188-byte TS packet into a Packet, including the
  adaptation field and PCR. Sync provides sync-byte resynchronization
  over a byte stream that has lost packet alignment.

AUTHOR
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import "github.com/pkg/errors"

// SyncByte is the fixed first byte of every TS packet.
const SyncByte = 0x47

// ErrBadSync is returned by Parse when the packet does not begin with
// the sync byte.
var ErrBadSync = errors.New("mts: invalid sync byte")

// ErrDesync is returned by Sync when no valid sync point could be
// found in the supplied window.
var ErrDesync = errors.New("mts: could not resynchronize to packet boundary")

// Parse decodes a single 188-byte TS packet d into a Packet.
func Parse(d []byte) (*Packet, error) {
	if len(d) < PacketSize {
		return nil, ErrInvalidLen
	}
	if d[0] != SyncByte {
		return nil, ErrBadSync
	}

	p := &Packet{
		TEI:      d[1]&0x80 != 0,
		PUSI:     d[1]&0x40 != 0,
		Priority: d[1]&0x20 != 0,
		PID:      uint16(d[1]&0x1f)<<8 | uint16(d[2]),
		TSC:      (d[3] >> 6) & 0x3,
		AFC:      (d[3] >> 4) & 0x3,
		CC:       d[3] & 0xf,
	}

	off := HeadSize
	if p.AFC&0x2 != 0 {
		afLen := int(d[AdaptationIdx])
		if AdaptationIdx+1+afLen > len(d) {
			return nil, errors.New("mts: adaptation field runs past packet end")
		}
		if afLen > 0 {
			flags := d[AdaptationFieldsIdx]
			p.DI = flags&0x80 != 0
			p.RAI = flags&0x40 != 0
			p.ESPI = flags&0x20 != 0
			p.PCRF = flags&0x10 != 0
			p.OPCRF = flags&0x08 != 0
			p.SPF = flags&0x04 != 0
			p.TPDF = flags&0x02 != 0
			p.AFEF = flags&0x01 != 0

			fieldOff := AdaptationFieldsIdx + 1
			if p.PCRF {
				p.PCR = decodePCR(d[fieldOff : fieldOff+6])
				fieldOff += 6
			}
			if p.OPCRF {
				p.OPCR = decodePCR(d[fieldOff : fieldOff+6])
				fieldOff += 6
			}
			if p.SPF {
				p.SC = d[fieldOff]
				fieldOff++
			}
			if p.TPDF {
				p.TPDL = d[fieldOff]
				fieldOff++
				p.TPD = append([]byte(nil), d[fieldOff:fieldOff+int(p.TPDL)]...)
				fieldOff += int(p.TPDL)
			}
		}
		off = AdaptationIdx + 1 + afLen
	}

	if p.AFC&0x1 != 0 && off < PacketSize {
		p.Payload = append([]byte(nil), d[off:PacketSize]...)
	}

	return p, nil
}

// decodePCR decodes the 48-bit PCR field (33-bit base * 300 + 9-bit
// extension) found in an adaptation field.
func decodePCR(d []byte) uint64 {
	base := uint64(d[0])<<25 | uint64(d[1])<<17 | uint64(d[2])<<9 | uint64(d[3])<<1 | uint64(d[4]>>7)
	ext := uint64(d[4]&0x01)<<8 | uint64(d[5])
	return base*300 + ext
}

// Sync scans d for the next position that looks like the start of a
// run of valid TS packets: a sync byte followed by further sync bytes
// at PacketSize intervals, checked up to lookahead packets (or however
// many remain). It returns the index of the first such sync byte, or
// ErrDesync if none is found.
func Sync(d []byte, lookahead int) (int, error) {
	if lookahead < 1 {
		lookahead = 1
	}
	for i := 0; i+PacketSize <= len(d); i++ {
		if d[i] != SyncByte {
			continue
		}
		ok := true
		for k := 1; k < lookahead; k++ {
			j := i + k*PacketSize
			if j >= len(d) {
				break // Not enough data left to confirm further, accept what we have.
			}
			if d[j] != SyncByte {
				ok = false
				break
			}
		}
		if ok {
			return i, nil
		}
	}
	return -1, ErrDesync
}
