package teletext

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDecoderCommitsPageOnHeaderChange(t *testing.T) {
	var got []Page
	d := NewDecoder(func(p Page) { got = append(got, p) }, 101) // magazine 1, page 01.

	unit := make([]byte, 42)
	setMRAG(unit, 1, 0)
	setHeader(unit[2:], 1, 0)
	d.Feed(unit, 1000)

	setMRAG(unit, 1, 1)
	setText(unit[2:], "HELLO")
	d.Feed(unit, 1000)

	setMRAG(unit, 1, 0)
	setHeader(unit[2:], 2, 0)
	d.Feed(unit, 2000)

	if len(got) != 1 {
		t.Fatalf("got %d committed pages, want 1", len(got))
	}
	want := []string{"HELLO"}
	if diff := cmp.Diff(want, got[0].Rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderIgnoresUnwatchedPage(t *testing.T) {
	var got []Page
	d := NewDecoder(func(p Page) { got = append(got, p) }, 101) // watch magazine 1, page 01.

	unit := make([]byte, 42)

	// Magazine 2's page 5 is not watched: none of this should buffer
	// or commit, even across a header change.
	setMRAG(unit, 2, 0)
	setHeader(unit[2:], 5, 0)
	d.Feed(unit, 1000)
	setMRAG(unit, 2, 1)
	setText(unit[2:], "IGNORED")
	d.Feed(unit, 1000)
	setMRAG(unit, 2, 0)
	setHeader(unit[2:], 6, 0)
	d.Feed(unit, 2000)

	if len(got) != 0 {
		t.Fatalf("got %d committed pages from an unwatched magazine, want 0", len(got))
	}

	// The watched page arrives and commits normally.
	setMRAG(unit, 1, 0)
	setHeader(unit[2:], 1, 0)
	d.Feed(unit, 3000)
	setMRAG(unit, 1, 1)
	setText(unit[2:], "WATCHED")
	d.Feed(unit, 3000)
	setMRAG(unit, 1, 0)
	setHeader(unit[2:], 2, 0)
	d.Feed(unit, 4000)

	if len(got) != 1 || got[0].Rows[0] != "WATCHED" {
		t.Fatalf("got %+v, want one page with text WATCHED", got)
	}
}

func TestDecoderAutoLocksOnSubtitleFlag(t *testing.T) {
	var got []Page
	d := NewDecoder(func(p Page) { got = append(got, p) }, 0) // unset: auto-lock.

	unit := make([]byte, 42)

	// Magazine 3 page 10 never raises the subtitle flag: must not
	// lock onto it, and nothing should buffer or commit.
	setMRAG(unit, 3, 0)
	setHeader(unit[2:], 10, 0)
	d.Feed(unit, 1000)
	setMRAG(unit, 3, 1)
	setText(unit[2:], "NOFLAG")
	d.Feed(unit, 1000)
	setMRAG(unit, 3, 0)
	setHeader(unit[2:], 11, 0)
	d.Feed(unit, 2000)

	if len(got) != 0 {
		t.Fatalf("got %d committed pages before any subtitle-flagged header, want 0", len(got))
	}

	// Magazine 8 page 88 raises the subtitle flag: locks watchedPage
	// to 888 and starts buffering from here on.
	setMRAG(unit, 8, 0)
	setHeaderWithSubtitleFlag(unit[2:], 88, 0)
	d.Feed(unit, 3000)
	setMRAG(unit, 8, 1)
	setText(unit[2:], "LOCKED")
	d.Feed(unit, 3000)
	setMRAG(unit, 8, 0)
	setHeaderWithSubtitleFlag(unit[2:], 89, 0)
	d.Feed(unit, 4000)

	if len(got) != 1 || got[0].Rows[0] != "LOCKED" {
		t.Fatalf("got %+v, want one page with text LOCKED", got)
	}
	if d.watchedPage != 888 {
		t.Errorf("got watchedPage=%d, want 888", d.watchedPage)
	}
}

func TestDecoderX26OverridesCharacter(t *testing.T) {
	var got []Page
	d := NewDecoder(func(p Page) { got = append(got, p) }, 101)

	unit := make([]byte, 42)
	setMRAG(unit, 1, 0)
	setHeader(unit[2:], 1, 0)
	d.Feed(unit, 1000)

	// X/26 packet: set the active row to 5, then override column 5
	// with 'A' composed with a grave accent ('À'). X/26 packets
	// transmit ahead of the row they enhance.
	setMRAG(unit, 1, 26)
	x26 := unit[2:]
	for i := range x26 {
		x26[i] = 0 // remaining triplets must decode as harmless no-ops.
	}
	putX26Triplet(x26, 0, 0, 0x04, 45)       // set row 5 (40+5).
	putX26Triplet(x26, 1, int('A'), 0x11, 5) // grave accent at column 5.
	d.Feed(unit, 1000)

	setMRAG(unit, 1, 5)
	setText(unit[2:], "AAAAAAAAAA")
	d.Feed(unit, 1000)

	setMRAG(unit, 1, 0)
	setHeader(unit[2:], 2, 0)
	d.Feed(unit, 2000)

	if len(got) != 1 {
		t.Fatalf("got %d committed pages, want 1", len(got))
	}
	want := "AAAAAÀAAAA"
	if got[0].Rows[0] != want {
		t.Errorf("got %q, want %q", got[0].Rows[0], want)
	}
}

func TestDecoderBroadcastServiceData(t *testing.T) {
	var got []Page
	d := NewDecoder(func(p Page) { got = append(got, p) }, 101)

	unit := make([]byte, 42)
	setMRAG(unit, 1, 0)
	setHeader(unit[2:], 1, 0)
	d.Feed(unit, 1000)

	setMRAG(unit, 1, 1)
	setText(unit[2:], "HELLO")
	d.Feed(unit, 1000)

	setMRAG(unit, 8, 30)
	bsd := unit[2:]
	bsd[0] = ham84Encode(0) // format selector: format 1.
	bsd[10] = 0x06
	bsd[11] = 0x99
	bsd[12] = 0x60
	bsd[13] = 0x10
	bsd[14] = 0x15
	bsd[15] = 0x00
	d.Feed(unit, 1500)

	setMRAG(unit, 1, 0)
	setHeader(unit[2:], 2, 0)
	d.Feed(unit, 2000)

	if len(got) != 1 {
		t.Fatalf("got %d committed pages, want 1", len(got))
	}
	want := time.Unix(1577833429, 0).UTC()
	if !got[0].WallClock.Equal(want) {
		t.Errorf("got %v, want %v", got[0].WallClock, want)
	}
}

// putX26Triplet Hamming-24/18-encodes one X/26 triplet (data/mode/
// address) and writes it as 3 bytes at offset 3*j into data.
func putX26Triplet(data []byte, j, charValue, mode, address int) {
	decoded := uint32(charValue&0x7f)<<11 | uint32(mode&0x1f)<<6 | uint32(address&0x3f)
	raw := ham2418Encode(decoded)
	i := 3 * j
	data[i] = byte(raw)
	data[i+1] = byte(raw >> 8)
	data[i+2] = byte(raw >> 16)
}

// setHeaderWithSubtitleFlag is like setHeader but also raises the C6
// subtitle flag bit in S4.
func setHeaderWithSubtitleFlag(data []byte, page, subcode int) {
	setHeader(data, page, subcode)
	data[5] = ham84Encode(0x8)
}

// setMRAG writes a Hamming 8/4 encoded magazine/row address into the
// first two bytes of unit.
func setMRAG(unit []byte, magazine, row int) {
	m := magazine & 0x7
	b0 := byte(m) | byte((row&0x10)>>1)
	b1 := byte(row & 0xf)
	unit[0] = ham84Encode(b0)
	unit[1] = ham84Encode(b1)
}

// setHeader writes a minimal row-0 header: page number (BCD) and a
// zeroed subcode.
func setHeader(data []byte, page, subcode int) {
	data[0] = ham84Encode(byte(page % 10))
	data[1] = ham84Encode(byte(page / 10))
	for i := 2; i < 6; i++ {
		data[i] = ham84Encode(0)
	}
	for i := 6; i < len(data) && i < 40; i++ {
		data[i] = oddParity(' ')
	}
}

// setText writes s into data as odd-parity-protected Latin G0 bytes.
func setText(data []byte, s string) {
	for i := range data {
		data[i] = oddParity(' ')
	}
	for i, r := range []byte(s) {
		if i >= len(data) {
			break
		}
		data[i] = oddParity(r)
	}
}

func oddParity(c byte) byte {
	c &= 0x7f
	parity := byte(0)
	for i := uint(0); i < 7; i++ {
		parity ^= (c >> i) & 1
	}
	return c | (1-parity)<<7
}
