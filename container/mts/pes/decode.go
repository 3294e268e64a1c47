/*
NAME
  decode.go

DESCRIPTION
  Decode-direction counterpart to pes.go's (*Packet).Bytes: Parse
  decodes a complete PES packet from bytes, and Reassembler accumulates
  TS payload bytes across a PUSI-delimited run of TS packets into one
  PES packet.

AUTHOR
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pes

import "github.com/pkg/errors"

// ErrShortPacket is returned by Parse when d is too short to contain a
// complete PES header.
var ErrShortPacket = errors.New("pes: packet too short")

// ErrBadStartCode is returned by Parse when d does not begin with the
// PES packet start code prefix.
var ErrBadStartCode = errors.New("pes: invalid start code prefix")

// Parse decodes a PES packet from d, which must begin at the 0x000001
// start code. It is the inverse of (*Packet).Bytes.
func Parse(d []byte) (*Packet, error) {
	if len(d) < 9 {
		return nil, ErrShortPacket
	}
	if d[0] != 0x00 || d[1] != 0x00 || d[2] != 0x01 {
		return nil, ErrBadStartCode
	}

	p := &Packet{
		StreamID:     d[3],
		Length:       uint16(d[4])<<8 | uint16(d[5]),
		SC:           (d[6] >> 4) & 0x3,
		Priority:     d[6]&0x08 != 0,
		DAI:          d[6]&0x04 != 0,
		Copyright:    d[6]&0x02 != 0,
		Original:     d[6]&0x01 != 0,
		PDI:          (d[7] >> 6) & 0x3,
		ESCRF:        d[7]&0x20 != 0,
		ESRF:         d[7]&0x10 != 0,
		DSMTMF:       d[7]&0x08 != 0,
		ACIF:         d[7]&0x04 != 0,
		CRCF:         d[7]&0x02 != 0,
		EF:           d[7]&0x01 != 0,
		HeaderLength: d[8],
	}

	off := 9
	end := off + int(p.HeaderLength)
	if end > len(d) {
		return nil, ErrShortPacket
	}

	switch p.PDI {
	case 0x2: // PTS only.
		if off+5 > len(d) {
			return nil, ErrShortPacket
		}
		p.PTS = extractTimestamp(d[off : off+5])
		off += 5
	case 0x3: // PTS and DTS.
		if off+10 > len(d) {
			return nil, ErrShortPacket
		}
		p.PTS = extractTimestamp(d[off : off+5])
		p.DTS = extractTimestamp(d[off+5 : off+10])
		off += 10
	}

	if end > off {
		p.Stuff = append([]byte(nil), d[off:end]...)
	}
	p.Data = append([]byte(nil), d[end:]...)

	return p, nil
}

// extractTimestamp decodes a 5-byte marker-bit-encoded 33-bit PTS/DTS
// field, matching the layout (*Packet).Bytes inserts via gots.InsertPTS.
func extractTimestamp(d []byte) uint64 {
	return uint64(d[0]&0x0e)<<29 | uint64(d[1])<<22 | uint64(d[2]&0xfe)<<14 | uint64(d[3])<<7 | uint64(d[4]&0xfe)>>1
}

// Reassembler accumulates TS payload bytes for one elementary stream
// between PUSI-marked packets into complete PES packets.
type Reassembler struct {
	buf  []byte
	have bool // true once a PUSI has started a packet.
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler { return &Reassembler{} }

// Feed submits the payload of one TS packet carrying this elementary
// stream. pusi must reflect that packet's Payload Unit Start Indicator.
// When pusi starts a new PES packet, any previously buffered packet is
// parsed and returned; otherwise payload is appended and (nil, nil) is
// returned.
func (r *Reassembler) Feed(pusi bool, payload []byte) (*Packet, error) {
	if pusi {
		var out *Packet
		var err error
		if r.have && len(r.buf) > 0 {
			out, err = Parse(r.buf)
		}
		r.buf = append(r.buf[:0], payload...)
		r.have = true
		return out, err
	}

	if !r.have {
		return nil, nil
	}
	r.buf = append(r.buf, payload...)
	return nil, nil
}

// Flush parses and returns any packet bytes accumulated so far,
// clearing the Reassembler's buffer. Used when the stream ends or is
// being torn down, so the final PES packet is not silently dropped.
func (r *Reassembler) Flush() (*Packet, error) {
	if !r.have || len(r.buf) == 0 {
		return nil, nil
	}
	out, err := Parse(r.buf)
	r.buf = r.buf[:0]
	r.have = false
	return out, err
}
