/*
NAME
  parse.go

DESCRIPTION
  Decode-direction counterpart to psi.go's Bytes() encoders: Parse
  reconstructs a PSI from raw section bytes (pointer field onward),
  verifying the trailing CRC32 along the way.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import (
	"encoding/binary"
	"fmt"
)

// ErrCRCMismatch is returned by Parse when the trailing CRC32 of a
// section does not match the CRC32 computed over the section bytes.
var ErrCRCMismatch = fmt.Errorf("psi: CRC32 mismatch")

// ErrShortSection is returned by Parse when d is too short to contain
// a complete PSI header.
var ErrShortSection = fmt.Errorf("psi: section too short")

// Parse decodes a PSI section from d, which must begin at the pointer
// field and include the trailing CRC32. It is the inverse of
// (*PSI).Bytes, extended to also recognise EIT table IDs.
func Parse(d []byte) (*PSI, error) {
	if len(d) < 4+crcSize {
		return nil, ErrShortSection
	}

	p := &PSI{
		PointerField: d[0],
	}
	if p.PointerField != 0 {
		return nil, fmt.Errorf("psi: pointer filler bytes unsupported")
	}

	body := d[1:]
	p.TableID = body[0]
	p.SyntaxIndicator = body[1]&0x80 != 0
	p.PrivateBit = body[1]&0x40 != 0
	p.SectionLen = (uint16(body[1]&0x03) << 8) | uint16(body[2])

	secEnd := 3 + int(p.SectionLen)
	if secEnd > len(body) {
		return nil, ErrShortSection
	}

	if !verifyCRC(body[:secEnd]) {
		return nil, ErrCRCMismatch
	}
	p.CRC = binary.BigEndian.Uint32(body[secEnd-crcSize : secEnd])

	if !p.SyntaxIndicator {
		return p, nil
	}

	ss, err := parseSyntaxSection(p.TableID, body[3:secEnd-crcSize])
	if err != nil {
		return nil, err
	}
	p.SyntaxSection = ss
	return p, nil
}

func parseSyntaxSection(tableID byte, d []byte) (*SyntaxSection, error) {
	if len(d) < TSSDefLen {
		return nil, ErrShortSection
	}
	ss := &SyntaxSection{
		TableIDExt:  uint16(d[0])<<8 | uint16(d[1]),
		Version:     (d[2] >> 1) & 0x1f,
		CurrentNext: d[2]&0x01 != 0,
		Section:     d[3],
		LastSection: d[4],
	}

	rest := d[TSSDefLen:]
	var sd SpecificData
	var err error
	switch tableID {
	case patID:
		sd, err = parsePAT(rest)
	case pmtID:
		sd, err = parsePMT(rest)
	default:
		if IsEITTable(tableID) {
			sd, err = parseEIT(rest)
		} else {
			return nil, fmt.Errorf("psi: unsupported table id 0x%02x", tableID)
		}
	}
	if err != nil {
		return nil, err
	}
	ss.SpecificData = sd
	return ss, nil
}

// parsePAT decodes every program_number/PMT-PID entry in a PAT's
// syntax-section payload (a PAT can list multiple programs), skipping
// program_number 0 entries (network PID, no NIT consumer here).
func parsePAT(d []byte) (*PAT, error) {
	if len(d) < PATLen {
		return nil, ErrShortSection
	}
	pat := &PAT{}
	for i := 0; i+PATLen <= len(d); i += PATLen {
		program := uint16(d[i])<<8 | uint16(d[i+1])
		if program == 0 {
			continue
		}
		pat.Programs = append(pat.Programs, PATEntry{
			Program:       program,
			ProgramMapPID: uint16(d[i+2]&0x1f)<<8 | uint16(d[i+3]),
		})
	}
	return pat, nil
}

func parsePMT(d []byte) (*PMT, error) {
	if len(d) < PMTDefLen {
		return nil, ErrShortSection
	}
	pmt := &PMT{
		ProgramClockPID: uint16(d[0]&0x1f)<<8 | uint16(d[1]),
		ProgramInfoLen:  uint16(d[2]&0x03)<<8 | uint16(d[3]),
	}
	off := PMTDefLen
	descEnd := off + int(pmt.ProgramInfoLen)
	if descEnd > len(d) {
		return nil, ErrShortSection
	}
	descs, err := parseDescriptors(d[off:descEnd])
	if err != nil {
		return nil, err
	}
	pmt.Descriptors = descs
	off = descEnd

	ssd, err := parseStreamSpecificData(d[off:])
	if err != nil {
		return nil, err
	}
	pmt.StreamSpecificData = ssd
	return pmt, nil
}

func parseStreamSpecificData(d []byte) (*StreamSpecificData, error) {
	if len(d) < ESSDataLen {
		return nil, ErrShortSection
	}
	ssd := &StreamSpecificData{
		StreamType:    d[0],
		PID:           uint16(d[1]&0x1f)<<8 | uint16(d[2]),
		StreamInfoLen: uint16(d[3]&0x03)<<8 | uint16(d[4]),
	}
	off := ESSDataLen
	descEnd := off + int(ssd.StreamInfoLen)
	if descEnd > len(d) {
		return nil, ErrShortSection
	}
	descs, err := parseDescriptors(d[off:descEnd])
	if err != nil {
		return nil, err
	}
	ssd.Descriptors = descs
	return ssd, nil
}

func parseDescriptors(d []byte) ([]Descriptor, error) {
	var out []Descriptor
	for i := 0; i < len(d); {
		if i+2 > len(d) {
			return nil, ErrShortSection
		}
		l := int(d[i+1])
		if i+2+l > len(d) {
			return nil, ErrShortSection
		}
		data := make([]byte, l)
		copy(data, d[i+2:i+2+l])
		out = append(out, Descriptor{Tag: d[i], Len: d[i+1], Data: data})
		i += 2 + l
	}
	return out, nil
}

// verifyCRC reports whether the last 4 bytes of d match the CRC32-MPEG-2
// checksum of the bytes preceding them. d is the section starting at
// table_id (i.e. without the pointer field).
func verifyCRC(d []byte) bool {
	if len(d) < crcSize {
		return false
	}
	want := binary.BigEndian.Uint32(d[len(d)-crcSize:])
	got := computeCrc(d[:len(d)-crcSize])
	return want == got
}

// VerifyCRC reports whether d, a section beginning at table_id and
// including its trailing CRC32, is internally consistent.
func VerifyCRC(d []byte) bool { return verifyCRC(d) }
