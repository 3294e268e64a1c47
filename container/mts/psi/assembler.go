/*
NAME
  assembler.go

DESCRIPTION
  Assembler reassembles PAT/PMT/EIT sections that may span more than
  one TS packet, and only surfaces a section to the caller when its
  version (or, absent a syntax section, its CRC) changes from the last
  one accepted for that PID.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import "github.com/pkg/errors"

// section tracks the in-progress reassembly of one PID's section data.
type section struct {
	buf      []byte
	want     int  // total bytes expected once length is known, 0 until known.
	lastVer  int  // last accepted version, -1 if none yet.
	lastCRC  uint32
	haveCRC  bool
}

// Assembler reassembles PSI sections per-PID from a stream of TS
// packet payloads, handling the pointer-field framing of the first
// packet of a section and change detection across repeats.
type Assembler struct {
	sections map[uint16]*section
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{sections: make(map[uint16]*section)}
}

// Feed submits one TS packet's payload for pid, with pusi indicating
// the Payload Unit Start Indicator of the packet it came from. It
// returns a parsed PSI only when a complete section was assembled and
// it differs (by version, or by CRC when no syntax section is
// present) from the last one accepted for pid; otherwise (nil, nil).
func (a *Assembler) Feed(pid uint16, pusi bool, payload []byte) (*PSI, error) {
	s, ok := a.sections[pid]
	if !ok {
		s = &section{lastVer: -1}
		a.sections[pid] = s
	}

	if pusi {
		if len(payload) == 0 {
			return nil, errors.New("psi: empty payload on PUSI packet")
		}
		ptr := int(payload[0])
		// A new section starts here: any section still in progress and the
		// bytes before the pointer target are discarded, not completed.
		s.buf = s.buf[:0]
		s.want = 0
		if 1+ptr >= len(payload) {
			return nil, nil
		}
		s.buf = append(s.buf, payload[1+ptr:]...)
	} else {
		if s.want == 0 && len(s.buf) == 0 {
			// No section in progress; ignore continuation payload with
			// nothing to continue (e.g. packets before the first PUSI).
			return nil, nil
		}
		s.buf = append(s.buf, payload...)
	}

	if s.want == 0 {
		if len(s.buf) < 3 {
			return nil, nil
		}
		sectionLen := (uint16(s.buf[1]&0x03) << 8) | uint16(s.buf[2])
		s.want = 3 + int(sectionLen) // header + section
	}

	if len(s.buf) < s.want {
		return nil, nil
	}

	raw := s.buf[:s.want]
	s.buf = s.buf[:0]
	s.want = 0

	// raw here excludes the leading pointer field byte (already stripped
	// above), so prepend a synthetic 0x00 pointer field for Parse, which
	// expects the pointer-field-prefixed form matching Bytes()'s output.
	full := make([]byte, 1+len(raw))
	full[0] = 0x00
	copy(full[1:], raw)

	p, err := Parse(full)
	if err != nil {
		return nil, errors.Wrap(err, "psi: parse assembled section")
	}

	if p.SyntaxSection != nil {
		ver := int(p.SyntaxSection.Version)
		if s.lastVer == ver {
			return nil, nil
		}
		s.lastVer = ver
		return p, nil
	}

	if s.haveCRC && s.lastCRC == p.CRC {
		return nil, nil
	}
	s.haveCRC = true
	s.lastCRC = p.CRC
	return p, nil
}

// Reset discards any in-progress or previously-seen state for pid, so
// the next section fed for it is always surfaced.
func (a *Assembler) Reset(pid uint16) {
	delete(a.sections, pid)
}
