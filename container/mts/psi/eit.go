/*
NAME
  eit.go

DESCRIPTION
  Minimal EIT (Event Information Table) specific data, parsed for its
  service/event labels. Nothing in this module passes EIT sections on to
  the stream registry. EIT encoding (Bytes) is not implemented: this module
  only ever receives EIT sections over the wire, it never produces them.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import "fmt"

// EIT table IDs, ETSI EN 300 468.
const (
	EITActualPF  = 0x4E
	EITOtherPF   = 0x4F
	EITActualLo  = 0x50
	EITActualHi  = 0x5F
	EITOtherLo   = 0x60
	EITOtherHi   = 0x6F
)

// IsEITTable reports whether id is one of the EIT table_id values.
func IsEITTable(id byte) bool {
	switch {
	case id == EITActualPF || id == EITOtherPF:
		return true
	case id >= EITActualLo && id <= EITActualHi:
		return true
	case id >= EITOtherLo && id <= EITOtherHi:
		return true
	}
	return false
}

// EIT is the specific data of an Event Information Table section,
// implements SpecificData for symmetry with PAT/PMT even though Bytes
// is unused by the decode-only path.
type EIT struct {
	TransportStreamID uint16
	OriginalNetworkID uint16
	SegmentLastSection byte
	LastTableID       byte
	Events            []EITEvent
}

// EITEvent is a single event entry of an EIT section.
type EITEvent struct {
	EventID      uint16
	StartTimeMJD uint16 // Modified Julian Date of event start.
	StartTimeBCD uint32 // BCD-encoded HHMMSS, packed into the low 24 bits.
	DurationBCD  uint32 // BCD-encoded HHMMSS duration, packed into the low 24 bits.
	RunningStatus byte
	FreeCAMode   bool
	Descriptors  []Descriptor
}

// Bytes is unimplemented; EIT is decode-only in this module.
func (e *EIT) Bytes() []byte {
	panic("psi: EIT encoding not supported")
}

const eitHeadLen = 6  // transport_stream_id, original_network_id, segment_last_section_number, last_table_id
const eitEventHeadLen = 12

func parseEIT(d []byte) (*EIT, error) {
	if len(d) < eitHeadLen {
		return nil, ErrShortSection
	}
	e := &EIT{
		TransportStreamID: uint16(d[0])<<8 | uint16(d[1]),
		OriginalNetworkID: uint16(d[2])<<8 | uint16(d[3]),
		SegmentLastSection: d[4],
		LastTableID:       d[5],
	}
	off := eitHeadLen
	for off < len(d) {
		if off+eitEventHeadLen > len(d) {
			return nil, fmt.Errorf("psi: truncated EIT event")
		}
		ev := EITEvent{
			EventID:      uint16(d[off])<<8 | uint16(d[off+1]),
			StartTimeMJD: uint16(d[off+2])<<8 | uint16(d[off+3]),
			StartTimeBCD: uint32(d[off+4])<<16 | uint32(d[off+5])<<8 | uint32(d[off+6]),
			DurationBCD:  uint32(d[off+7])<<16 | uint32(d[off+8])<<8 | uint32(d[off+9]),
			RunningStatus: (d[off+10] >> 5) & 0x07,
			FreeCAMode:   d[off+10]&0x10 != 0,
		}
		descLen := int(d[off+10]&0x0f)<<8 | int(d[off+11])
		descEnd := off + eitEventHeadLen + descLen
		if descEnd > len(d) {
			return nil, fmt.Errorf("psi: truncated EIT event descriptors")
		}
		descs, err := parseDescriptors(d[off+eitEventHeadLen : descEnd])
		if err != nil {
			return nil, err
		}
		ev.Descriptors = descs
		e.Events = append(e.Events, ev)
		off = descEnd
	}
	return e, nil
}

// MJDToDate converts a Modified Julian Date, as used by DVB's EIT start
// time field, into year/month/day. Algorithm per ETSI EN 300 468 Annex C.
func MJDToDate(mjd uint16) (year, month, day int) {
	yy := int((float64(mjd) - 15078.2) / 365.25)
	mm := int((float64(mjd) - 14956.1 - float64(int(float64(yy)*365.25))) / 30.6001)
	k := 0
	if mm == 14 || mm == 15 {
		k = 1
	}
	year = yy + k + 1900
	month = mm - 1 - k*12
	day = int(mjd) - 14956 - int(float64(yy)*365.25) - int(float64(mm)*30.6001)
	return
}

// BCDToHMS decodes a 24-bit BCD-packed HHMMSS value.
func BCDToHMS(v uint32) (h, m, s int) {
	h = int((v>>20)&0xf)*10 + int((v>>16)&0xf)
	m = int((v>>12)&0xf)*10 + int((v>>8)&0xf)
	s = int((v>>4)&0xf)*10 + int(v&0xf)
	return
}
