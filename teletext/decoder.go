/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements the ETS 300 706 Teletext packet state machine:
  magazine/row addressing, page header parsing, G0/G2 text decode with
  national subset and accent composition, X/26 enhancement triplets,
  X/30 broadcast service data, and page commit once a magazine's
  header announces the next page. Structurally this plays the same
  role codec/h264/extract.go's Extractor plays for Annex B NALUs: a
  stateful Feed that accumulates bytes and emits complete units
  (there, NALUs; here, committed Pages) to a destination.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package teletext decodes ETS 300 706 Teletext packets carried in
// MPEG-2 PES payloads into committed subtitle pages.
package teletext

import (
	"strings"
	"sync"
	"time"
)

// Page is one committed Teletext page: the rows that contain a
// start-box marker (or, when no row does, every non-blank row),
// associated with the PTS of the packet that opened it. A kept row's
// text is the whole row; characters outside the box are not removed.
type Page struct {
	Magazine int
	Number   int // page number decoded from its two BCD digits (e.g. 88).
	Subcode  int
	PTS      uint64
	Rows     []string

	// WallClock is the broadcast time carried by the stream's most
	// recently decoded X/30 packet, zero if none has been seen yet.
	WallClock time.Time
}

// Text joins Rows into a single caption string.
func (p Page) Text() string {
	return strings.Join(p.Rows, "\n")
}

// row25 rows are numbered 0 (header) through 25 (one extra design row).
const numRows = 26

// x26Cell addresses one character cell overridden by an X/26
// enhancement triplet.
type x26Cell struct {
	row, col int
}

type pageState struct {
	magazine int
	number   int
	subcode  int
	pts      uint64
	g0       [96]rune
	rows     [numRows]string
	boxOpen  [numRows]bool
	haveRow  [numRows]bool
	x26      map[x26Cell]rune
}

// Decoder accumulates Teletext packets across magazines and pages,
// committing a Page each time a magazine's row 0 announces a new page
// number for a page that was already receiving rows. Only one page is
// decoded: watchedPage (magazine*100+page), either given up front or
// auto-locked onto the first page whose header carries the subtitle
// flag. Rows belonging to any other page are discarded unread, so a
// multiplexed stream's other magazines never produce spurious cues.
type Decoder struct {
	mu            sync.Mutex
	pages         map[int]*pageState // keyed by magazine number 1-8.
	onPage        func(Page)
	watchedPage   int // magazine*100+page; 0 until locked.
	broadcastTime time.Time
}

// NewDecoder returns a Decoder that invokes onPage for each page
// committed from here on. watchedPage selects which page
// (magazine*100+page) to decode; 0 auto-locks onto the first page
// whose header announces the subtitle flag.
func NewDecoder(onPage func(Page), watchedPage int) *Decoder {
	return &Decoder{pages: make(map[int]*pageState), onPage: onPage, watchedPage: watchedPage}
}

// Feed processes one Teletext data unit: a two-byte MRAG (Hamming 8/4
// encoded magazine/row address) followed by up to 40 data bytes, as
// found immediately after the data_unit_id/data_unit_length pair in a
// PES-carried Teletext payload. pts is the PTS of the PES packet this
// unit arrived in.
func (d *Decoder) Feed(unit []byte, pts uint64) {
	if len(unit) < 2 {
		return
	}
	b0, ok0 := Unham84(unit[0])
	b1, ok1 := Unham84(unit[1])
	if !ok0 || !ok1 {
		return
	}
	magazine := int(b0 & 0x7)
	if magazine == 0 {
		magazine = 8
	}
	row := int(b1&0xf) | int(b0&0x8)<<1

	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case row == 0:
		d.header(magazine, unit[2:], pts)
	case row >= 1 && row <= 23:
		d.textRow(magazine, row, unit[2:])
	case row == 26:
		d.x26Row(magazine, unit[2:])
	case row == 28 || row == 29:
		d.charsetDesignation(magazine, unit[2:])
	case row == 30 && magazine == 8:
		d.broadcastServiceData(unit[2:])
	}
}

// header decodes a row-0 page header: page number, subcode and the C4
// (erase page) and C6 (subtitle) control bits; the other control bits
// are not decoded. A new page number, or a header with the erase-page
// bit set, on a magazine that already has rows buffered commits the
// old page first.
// Only magazine/page combinations matching the watched page (locking
// onto the first subtitle-flagged page if none was configured) are
// buffered; rows belonging to any other page are left untracked.
func (d *Decoder) header(magazine int, data []byte, pts uint64) {
	if len(data) < 8 {
		return
	}
	units, ok1 := Unham84(data[0])
	tens, ok2 := Unham84(data[1])
	if !ok1 || !ok2 {
		return
	}
	page := int(tens&0xf)*10 + int(units&0xf)

	s1, o1 := Unham84(data[2])
	s2, o2 := Unham84(data[3])
	s3, o3 := Unham84(data[4])
	s4, o4 := Unham84(data[5])
	if !o1 || !o2 || !o3 || !o4 {
		return
	}
	subcode := int(s1&0xf) | int(s2&0xf)<<4 | int(s3&0x3)<<8 | int(s4&0xf)<<10

	c4 := s2&0x8 != 0         // erase page.
	subtitleFlag := s4&0x8 != 0 // C6: this page carries subtitles.

	id := magazine*100 + page
	if d.watchedPage == 0 && subtitleFlag {
		d.watchedPage = id
	}
	if d.watchedPage != id {
		// Not the page we're decoding: commit any buffered rows left
		// over from when this magazine last carried the watched page.
		if _, exists := d.pages[magazine]; exists {
			d.commit(magazine)
		}
		return
	}

	ps, exists := d.pages[magazine]
	if exists && (ps.number != page || c4) {
		d.commit(magazine)
		exists = false
	}
	if !exists || c4 {
		ps = &pageState{magazine: magazine, g0: g0[g0Latin]}
		d.pages[magazine] = ps
	}
	ps.number = page
	ps.subcode = subcode
	ps.pts = pts

	for i := range data[6:] {
		r, ok := Unham84(data[6+i])
		if ok {
			_ = r // header display text (station clock etc) is not part of caption content.
		}
	}
}

// textRow decodes a row's 40 odd-parity-protected display bytes into
// text, applying spacing attribute control codes and the magazine's
// currently designated G0 charset. ESC (0x1b) introduces a G2 accent
// composition: the following two characters select a diacritic and a
// base letter to combine. A character cell already overridden by an
// X/26 enhancement triplet (which transmits ahead of the row it
// enhances, per ETS 300 706 annex B.2.2) takes precedence over the
// ordinary G0/G2 decode for that cell.
func (d *Decoder) textRow(magazine, row int, data []byte) {
	ps, ok := d.pages[magazine]
	if !ok {
		return
	}

	var sb strings.Builder
	boxOpen := false
	for i := 0; i < len(data); i++ {
		if r, overridden := ps.x26[x26Cell{row, i}]; overridden {
			sb.WriteRune(r)
			continue
		}

		c := stripParity(data[i])
		switch {
		case c == 0x1b && i+2 < len(data): // G2 accent escape.
			accent := int(stripParity(data[i+1])) & 0x0f
			base := stripParity(data[i+2])
			sb.WriteRune(composeG2(accent, rune(base)))
			i += 2
		case c == 0x0b: // start box.
			boxOpen = true
		case c == 0x0a: // end box: the row still counts as boxed.
		case c < 0x20: // other spacing attribute: held, rendered as a space.
			sb.WriteByte(' ')
		default:
			sb.WriteRune(ps.g0[c-0x20])
		}
	}

	if row < numRows {
		ps.rows[row] = strings.TrimRight(sb.String(), " ")
		ps.boxOpen[row] = boxOpen
		ps.haveRow[row] = ps.rows[row] != ""
	}
}

// charsetDesignation handles X/28 (row 28) and M/29 (row 29) packets,
// which designate the G0 national subset a magazine's following rows
// should use.
func (d *Decoder) charsetDesignation(magazine int, data []byte) {
	if len(data) < 3 {
		return
	}
	ps, exists := d.pages[magazine]
	if !exists {
		return
	}

	triplet := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	decoded, ok := Unham2418(triplet)
	if !ok {
		return
	}

	which := setG0Charset(decoded)
	if which == g0Latin {
		ps.g0 = remapG0Latin(byte(decoded & 0x3f))
	} else {
		ps.g0 = g0[which]
	}
}

// x26RowAddressLow and x26RowAddressHigh bound the "row address group"
// range of an X/26 triplet's 6-bit address field (ETS 300 706 chapter
// 12.3.2): addresses in this range select the active row rather than
// a column within it.
const (
	x26RowAddressLow  = 40
	x26RowAddressHigh = 63
)

// x26Row decodes an X/26 enhancement packet: up to 13 Hamming-24/18
// protected triplets, each either setting the row that subsequent
// triplets address (mode 0x04) or overriding one character cell in
// the active row with a G0-with-diacritic, G0 '@' or G2-without-
// diacritic character. A termination triplet (mode 0x11-0x1f within
// the row address group) ends the packet early. Ported from
// telxcc.c's VBI_X26 handling.
func (d *Decoder) x26Row(magazine int, data []byte) {
	ps, ok := d.pages[magazine]
	if !ok {
		return
	}

	row := -1
	for j := 0; j < 13; j++ {
		i := 3 * j
		if i+2 >= len(data) {
			break
		}
		raw := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16
		decoded, ok := Unham2418(raw)
		if !ok {
			continue
		}

		charValue := (decoded & 0x3f800) >> 11
		mode := (decoded & 0x7c0) >> 6
		address := decoded & 0x3f
		rowAddressGroup := address >= x26RowAddressLow && address <= x26RowAddressHigh

		switch {
		case mode == 0x04 && rowAddressGroup:
			r := int(address) - x26RowAddressLow
			if r == 0 {
				r = 24
			}
			row = r
		case mode >= 0x11 && mode <= 0x1f && rowAddressGroup:
			return // termination marker.
		case row < 0 || row >= numRows || rowAddressGroup:
			// No active row yet, out of the rows this page buffers, or
			// a row-address-group triplet in a mode we don't handle.
		case mode == 0x0f: // G2 character without diacritic.
			if charValue > 31 {
				d.setX26(ps, row, int(address), g2Latin[charValue-0x20])
			}
		case mode == 0x10 && charValue == 64: // G0 '@' without diacritic.
			d.setX26(ps, row, int(address), '@')
		case mode >= 0x11 && mode <= 0x1f: // G0 character with diacritic.
			if (charValue >= 65 && charValue <= 90) || (charValue >= 97 && charValue <= 122) {
				d.setX26(ps, row, int(address), composeG2(int(mode-0x11), rune(charValue)))
			}
		}
	}
}

// setX26 records an X/26 override for one character cell, lazily
// allocating the page's override map.
func (d *Decoder) setX26(ps *pageState, row, col int, r rune) {
	if ps.x26 == nil {
		ps.x26 = make(map[x26Cell]rune)
	}
	ps.x26[x26Cell{row, col}] = r
}

// broadcastServiceData decodes an X/30 Format 1 packet (magazine 8,
// row 30): a Modified Julian Date plus BCD time-of-day giving the
// stream's current broadcast time. Gated on the format selector nibble
// at data[0], as only format 1 carries this layout. Ported from
// telxcc.c's X/30 handling (ETS 300 706 chapter 9.8.1).
func (d *Decoder) broadcastServiceData(data []byte) {
	if len(data) < 16 {
		return
	}
	format, ok := Unham84(data[0])
	if !ok || format >= 2 {
		return
	}

	mjd := int(data[10]&0x0f)*10000 +
		int(data[11]>>4)*1000 + int(data[11]&0x0f)*100 +
		int(data[12]>>4)*10 + int(data[12]&0x0f) -
		11111

	hh := bcdByte(data[13])
	mm := bcdByte(data[14])
	ss := bcdByte(data[15])

	unix := int64(mjd-40587)*86400 + int64(hh)*3600 + int64(mm)*60 + int64(ss) - 40271
	d.broadcastTime = time.Unix(unix, 0).UTC()
}

// bcdByte decodes a byte holding two raw (non-Hamming) BCD digits.
func bcdByte(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}

// commit finalizes magazine's current page, invoking onPage with its
// rows that contain a start-box marker (or, absent any, its non-blank
// rows).
func (d *Decoder) commit(magazine int) {
	ps, ok := d.pages[magazine]
	if !ok {
		return
	}
	delete(d.pages, magazine)

	var rows []string
	anyBox := false
	for r := 1; r < numRows; r++ {
		if ps.boxOpen[r] {
			anyBox = true
			break
		}
	}
	for r := 1; r < numRows; r++ {
		if !ps.haveRow[r] {
			continue
		}
		if anyBox && !ps.boxOpen[r] {
			continue
		}
		rows = append(rows, ps.rows[r])
	}
	if len(rows) == 0 {
		return
	}

	if d.onPage != nil {
		d.onPage(Page{
			Magazine:  ps.magazine,
			Number:    ps.number,
			Subcode:   ps.subcode,
			PTS:       ps.pts,
			Rows:      rows,
			WallClock: d.broadcastTime,
		})
	}
}

// Flush commits every magazine's in-progress page. Called when the
// stream ends so the last page is not silently dropped.
func (d *Decoder) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for mag := range d.pages {
		d.commit(mag)
	}
}

// stripParity clears the odd parity bit (bit 7) of a Teletext display
// byte, returning the 7-bit character code.
func stripParity(b byte) byte {
	return b & 0x7f
}
