package ccx

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ausocean/ccx/ccx/config"
	"github.com/ausocean/ccx/container/mts"
	"github.com/ausocean/ccx/container/mts/pes"
	"github.com/ausocean/ccx/container/mts/psi"
	"github.com/ausocean/ccx/registry"
	"github.com/ausocean/ccx/subtitle"
	"github.com/ausocean/utils/logging"
)

// Fixed PIDs shared across the scenarios below; each test constructs
// its own Orchestrator and registry, so reuse across tests is safe.
const (
	testPMTPID      = 0x200
	testPMT2PID     = 0x201
	testTeletextPID = 0x101
	testDVBSubPID   = 0x102
	testPCRPID      = 0x103
)

// TestOrchestratorSingleSubtitle (S1) covers the ordinary case: one
// page opens, a later header for a different page closes it, and the
// cue surfaces once the stream ends.
func TestOrchestratorSingleSubtitle(t *testing.T) {
	o := newTestOrchestrator(t, 1, false, 888, 0)

	pkts := []*mts.Packet{
		patPacket(psi.PATEntry{Program: 1, ProgramMapPID: testPMTPID}),
		pmtPacket(testPMTPID, 1, testPCRPID, teletextSSD(testTeletextPID, 8, 88)),
		pcrPacket(testPCRPID, 0),
		pesPacket(testTeletextPID, 90000, openPage(8, 88, "Hello, world.")...),
		pesPacket(testTeletextPID, 270000, closePage(8, 89)...),
	}

	got := runDecode(t, o, pkts)
	want := []subtitle.Cue{{
		Subtitle: subtitle.Subtitle{PTS: 1000, Text: "Hello, world.", Source: "teletext", Channel: 888},
		Start:    1000, End: 3000,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cues mismatch (-want +got):\n%s", diff)
	}
}

// TestOrchestratorPTSWraparound (S2) covers a subtitle boundary that
// straddles the 33-bit PTS counter's wraparound, checking that the
// Spine's absolute timeline keeps both cues contiguous.
func TestOrchestratorPTSWraparound(t *testing.T) {
	o := newTestOrchestrator(t, 1, false, 888, 0)

	const ptsMax = 1 << 33
	pkts := []*mts.Packet{
		patPacket(psi.PATEntry{Program: 1, ProgramMapPID: testPMTPID}),
		pmtPacket(testPMTPID, 1, testPCRPID, teletextSSD(testTeletextPID, 8, 88)),
		pesPacket(testTeletextPID, ptsMax-45000, openPage(8, 88, "Before")...),
		pesPacket(testTeletextPID, ptsMax-44000, closePage(8, 89)...),
		pesPacket(testTeletextPID, 45000, openPage(8, 88, "After")...),
		pesPacket(testTeletextPID, 135000, closePage(8, 89)...),
	}

	got := runDecode(t, o, pkts)
	want := []subtitle.Cue{
		{Subtitle: subtitle.Subtitle{PTS: 0, Text: "Before", Source: "teletext", Channel: 888}, Start: 0, End: 1000},
		{Subtitle: subtitle.Subtitle{PTS: 1000, Text: "After", Source: "teletext", Channel: 888}, Start: 1000, End: 2000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cues mismatch (-want +got):\n%s", diff)
	}
}

// TestOrchestratorMergesTypoCorrection (S3) covers a page retransmitted
// moments later with a single corrected character: the correction must
// extend the pending cue rather than start a new one.
func TestOrchestratorMergesTypoCorrection(t *testing.T) {
	o := newTestOrchestrator(t, 1, true, 888, 0)

	pkts := []*mts.Packet{
		patPacket(psi.PATEntry{Program: 1, ProgramMapPID: testPMTPID}),
		pmtPacket(testPMTPID, 1, testPCRPID, teletextSSD(testTeletextPID, 8, 88)),
		pesPacket(testTeletextPID, 0, openPage(8, 88, "Hello worl")...),
		pesPacket(testTeletextPID, 10000, closePage(8, 89)...),
		pesPacket(testTeletextPID, 20000, openPage(8, 88, "Hello world.")...),
		pesPacket(testTeletextPID, 180000, closePage(8, 89)...),
	}

	got := runDecode(t, o, pkts)
	want := []subtitle.Cue{{
		Subtitle: subtitle.Subtitle{PTS: 0, Text: "Hello world.", Source: "teletext", Channel: 888},
		Start:    0, End: 2000,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cues mismatch (-want +got):\n%s", diff)
	}
}

// TestOrchestratorMultiProgramSplit (S4) covers a transport stream
// multiplexing two programs, one carrying Teletext and the other a
// DVB subtitle stream whose payload never carries a valid cc_data
// triplet: selecting each program must decode only its own captions.
func TestOrchestratorMultiProgramSplit(t *testing.T) {
	pkts := []*mts.Packet{
		patPacket(
			psi.PATEntry{Program: 1, ProgramMapPID: testPMTPID},
			psi.PATEntry{Program: 2, ProgramMapPID: testPMT2PID},
		),
		pmtPacket(testPMTPID, 1, testPCRPID, teletextSSD(testTeletextPID, 8, 88)),
		pmtPacket(testPMT2PID, 2, testPCRPID, dvbSubSSD(testDVBSubPID)),
		pesPacket(testTeletextPID, 0, openPage(8, 88, "Hello, world.")...),
		pesPacket(testTeletextPID, 90000, closePage(8, 89)...),
		dvbPESPacket(testDVBSubPID, 500000, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}),
	}

	o1 := newTestOrchestrator(t, 1, false, 888, 0)
	got1 := runDecode(t, o1, pkts)
	want1 := []subtitle.Cue{{
		Subtitle: subtitle.Subtitle{PTS: 0, Text: "Hello, world.", Source: "teletext", Channel: 888},
		Start:    0, End: 1000,
	}}
	if diff := cmp.Diff(want1, got1); diff != "" {
		t.Errorf("program 1 cues mismatch (-want +got):\n%s", diff)
	}

	o2 := newTestOrchestrator(t, 2, false, 888, 0)
	got2 := runDecode(t, o2, pkts)
	if len(got2) != 0 {
		t.Errorf("program 2 got %d cues, want 0: %+v", len(got2), got2)
	}
}

// TestOrchestratorRecoversFromContinuityGap (S5) drives the full
// Run pipeline over raw transport stream bytes containing a
// continuity counter gap spliced into the middle of a Teletext PES:
// the gap must be counted, not swallowed, and the surrounding
// caption must still decode intact.
func TestOrchestratorRecoversFromContinuityGap(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(tsPacket(patPID, true, 0,
		patPayload(psi.PATEntry{Program: 1, ProgramMapPID: testPMTPID})))
	stream.Write(tsPacket(testPMTPID, true, 0,
		pmtPayload(1, testPCRPID, teletextSSD(testTeletextPID, 8, 88))))
	stream.Write(pcrOnlyPacket(testPCRPID, 0))
	stream.Write(tsPacket(testTeletextPID, true, 0,
		pesBytes(90000, teletextPESData(openPage(8, 88, "Hello, world.")...))))
	// A stray continuation packet with the wrong continuity counter
	// (8, where 1 is expected): its payload lands as harmless trailing
	// bytes on the PES currently accumulating.
	stream.Write(tsPacket(testTeletextPID, false, 8, []byte{0xff, 0xff, 0xff, 0xff}))
	stream.Write(tsPacket(testTeletextPID, true, 9,
		pesBytes(270000, teletextPESData(closePage(8, 89)...))))

	before := testutil.ToFloat64(discontinuities)

	o := newTestOrchestrator(t, 1, false, 888, 0)
	enc := &fakeEncoder{}
	if err := o.Run(context.Background(), &stream, enc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := testutil.ToFloat64(discontinuities) - before; got != 1 {
		t.Errorf("got %v new discontinuities, want 1", got)
	}

	want := []subtitle.Cue{{
		Subtitle: subtitle.Subtitle{PTS: 1000, Text: "Hello, world.", Source: "teletext", Channel: 888},
		Start:    1000, End: 3000,
	}}
	if diff := cmp.Diff(want, enc.cues); diff != "" {
		t.Errorf("cues mismatch (-want +got):\n%s", diff)
	}
}

// TestOrchestratorEndAtClipsTimeline (S6) covers EndAt: once a
// caption's arrival crosses the clip point, the cue that arrival
// closed out still surfaces, but that caption itself, and anything
// still unread behind it, must not.
func TestOrchestratorEndAtClipsTimeline(t *testing.T) {
	o := newTestOrchestrator(t, 1, false, 888, 2*time.Second)

	pkts := []*mts.Packet{
		patPacket(psi.PATEntry{Program: 1, ProgramMapPID: testPMTPID}),
		pmtPacket(testPMTPID, 1, testPCRPID, teletextSSD(testTeletextPID, 8, 88)),
		pesPacket(testTeletextPID, 0, openPage(8, 88, "One")...),        // fts 0
		pesPacket(testTeletextPID, 108000, closePage(8, 89)...),        // fts 1200
		pesPacket(testTeletextPID, 162000, openPage(8, 88, "Two")...),  // fts 1800
		pesPacket(testTeletextPID, 225000, closePage(8, 89)...),        // fts 2500, crosses EndAt
		pesPacket(testTeletextPID, 300000, openPage(8, 88, "Three")...), // read, never dispatched
	}

	got := runDecode(t, o, pkts)
	want := []subtitle.Cue{{
		Subtitle: subtitle.Subtitle{PTS: 0, Text: "One", Source: "teletext", Channel: 888},
		Start:    0, End: 1800,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cues mismatch (-want +got):\n%s", diff)
	}
}

// fakeEncoder collects every cue passed to Encode, for assertions
// against Orchestrator.Run's output.
type fakeEncoder struct {
	mu   sync.Mutex
	cues []subtitle.Cue
}

func (f *fakeEncoder) Encode(c subtitle.Cue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, c)
	return nil
}

// newTestOrchestrator builds a valid Orchestrator for the given
// configuration, discarding its log output.
func newTestOrchestrator(t *testing.T, programNumber uint16, mergeTypos bool, watchedPage int, endAt time.Duration) *Orchestrator {
	t.Helper()
	cfg := config.Config{
		Input:         config.InputFile,
		InputPath:     "unused",
		Output:        config.OutputSRT,
		ProgramNumber: programNumber,
		MergeTypos:    mergeTypos,
		WatchedPage:   watchedPage,
		EndAt:         endAt,
		Logger:        logging.New(logging.Debug, &bytes.Buffer{}, true), // Discard logs.
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return New(cfg)
}

// runDecode feeds pkts through o's decode stage and collects every
// cue it commits.
func runDecode(t *testing.T, o *Orchestrator, pkts []*mts.Packet) []subtitle.Cue {
	t.Helper()
	in := make(chan *mts.Packet, len(pkts))
	for _, p := range pkts {
		in <- p
	}
	close(in)

	cuesCh := make(chan subtitle.Cue)
	done := make(chan []subtitle.Cue, 1)
	go func() {
		var got []subtitle.Cue
		for c := range cuesCh {
			got = append(got, c)
		}
		done <- got
	}()

	if err := o.decodePackets(context.Background(), in, cuesCh); err != nil {
		t.Fatalf("decodePackets: %v", err)
	}
	return <-done
}

// patPayload builds a PAT section's wire bytes, pointer field
// included, suitable for a PUSI packet's payload.
func patPayload(entries ...psi.PATEntry) []byte {
	pat := &psi.PAT{Programs: entries}
	p := &psi.PSI{
		TableID:         0x00,
		SyntaxIndicator: true,
		SectionLen:      uint16(psi.TSSDefLen + len(pat.Bytes()) + 4),
		SyntaxSection: &psi.SyntaxSection{
			TableIDExt:   0x01,
			CurrentNext:  true,
			SpecificData: pat,
		},
	}
	return p.Bytes()
}

// pmtPayload builds a PMT section's wire bytes for one program.
func pmtPayload(programNumber, pcrPID uint16, ssd *psi.StreamSpecificData) []byte {
	pmt := &psi.PMT{ProgramClockPID: pcrPID, StreamSpecificData: ssd}
	p := &psi.PSI{
		TableID:         0x02,
		SyntaxIndicator: true,
		SectionLen:      uint16(psi.TSSDefLen + len(pmt.Bytes()) + 4),
		SyntaxSection: &psi.SyntaxSection{
			TableIDExt:   programNumber,
			CurrentNext:  true,
			SpecificData: pmt,
		},
	}
	return p.Bytes()
}

// teletextSSD builds one elementary stream's descriptor loop
// advertising Teletext carriage of magazine/page on pid.
func teletextSSD(pid uint16, magazine, page int) *psi.StreamSpecificData {
	data := []byte{'e', 'n', 'g', byte(magazine & 0x07), bcdPage(page)}
	desc := psi.Descriptor{Tag: registry.TeletextDescriptorTag, Len: byte(len(data)), Data: data}
	return &psi.StreamSpecificData{PID: pid, Descriptors: []psi.Descriptor{desc}, StreamInfoLen: uint16(2 + len(data))}
}

// dvbSubSSD builds one elementary stream's descriptor loop
// advertising DVB subtitle carriage on pid.
func dvbSubSSD(pid uint16) *psi.StreamSpecificData {
	data := []byte("eng")
	desc := psi.Descriptor{Tag: registry.SubtitlingDescriptorTag, Len: byte(len(data)), Data: data}
	return &psi.StreamSpecificData{PID: pid, Descriptors: []psi.Descriptor{desc}, StreamInfoLen: uint16(2 + len(data))}
}

// bcdPage encodes a two-digit page number as a single BCD byte.
func bcdPage(page int) byte {
	return byte((page/10)<<4 | page%10)
}

// patPacket wraps patPayload in a *mts.Packet carrying it on the
// fixed PAT PID.
func patPacket(entries ...psi.PATEntry) *mts.Packet {
	return &mts.Packet{PID: patPID, PUSI: true, Payload: patPayload(entries...)}
}

// pmtPacket wraps pmtPayload in a *mts.Packet on pid.
func pmtPacket(pid, programNumber, pcrPID uint16, ssd *psi.StreamSpecificData) *mts.Packet {
	return &mts.Packet{PID: pid, PUSI: true, Payload: pmtPayload(programNumber, pcrPID, ssd)}
}

// pcrPacket builds a Packet carrying only a PCR sample, as
// decodePackets reads it directly off the parsed fields.
func pcrPacket(pid uint16, pcr90k uint64) *mts.Packet {
	return &mts.Packet{PID: pid, PCRF: true, PCR: pcr90k * 300}
}

// pesBytes encodes a Teletext or CEA PES packet's wire bytes carrying
// a PTS and the given data field.
func pesBytes(pts uint64, data []byte) []byte {
	p := &pes.Packet{StreamID: 0xbd, PDI: 2, HeaderLength: 5, PTS: pts, Data: data}
	return p.Bytes(nil)
}

// pesPacket wraps a Teletext PES carrying units in a *mts.Packet.
func pesPacket(pid uint16, pts uint64, units ...[]byte) *mts.Packet {
	return &mts.Packet{PID: pid, PUSI: true, Payload: pesBytes(pts, teletextPESData(units...))}
}

// dvbPESPacket wraps a raw user_data PES payload (no Teletext
// data_unit framing) in a *mts.Packet.
func dvbPESPacket(pid uint16, pts uint64, data []byte) *mts.Packet {
	return &mts.Packet{PID: pid, PUSI: true, Payload: pesBytes(pts, data)}
}

// teletextPESData frames units as a Teletext PES data field: a
// PES_data_field_id byte followed by each unit's data_unit_id and
// data_unit_length.
func teletextPESData(units ...[]byte) []byte {
	data := []byte{0x10}
	for _, u := range units {
		data = append(data, 0x02, byte(len(u)))
		data = append(data, u...)
	}
	return data
}

// teletextUnit builds a 42-byte Teletext data unit (2-byte MRAG plus
// 40 data bytes) for magazine/row, filled by fill.
func teletextUnit(magazine, row int, fill func([]byte)) []byte {
	unit := make([]byte, 42)
	setMRAG(unit, magazine, row)
	fill(unit[2:])
	return unit
}

// headerPage returns a row-0 fill function for page.
func headerPage(page int) func([]byte) {
	return func(b []byte) { setHeader(b, page, 0) }
}

// textLine returns a display-row fill function for s.
func textLine(s string) func([]byte) {
	return func(b []byte) { setText(b, s) }
}

// openPage returns the header and first text row units that open a
// page carrying text.
func openPage(magazine, page int, text string) [][]byte {
	return [][]byte{
		teletextUnit(magazine, 0, headerPage(page)),
		teletextUnit(magazine, 1, textLine(text)),
	}
}

// closePage returns a header-only unit for a different page number,
// which commits whatever page the magazine was previously decoding.
func closePage(magazine, page int) [][]byte {
	return [][]byte{teletextUnit(magazine, 0, headerPage(page))}
}

// tsPacket encodes one 188-byte transport stream packet carrying
// payload, stuffed into an adaptation field when payload is short of
// a full packet's capacity.
func tsPacket(pid uint16, pusi bool, cc byte, payload []byte) []byte {
	pkt := make([]byte, mts.PacketSize)
	pkt[0] = mts.SyncByte
	pkt[1] = byte(pid>>8) & 0x1f
	if pusi {
		pkt[1] |= 0x40
	}
	pkt[2] = byte(pid)

	const capacity = mts.PacketSize - mts.HeadSize
	if len(payload) >= capacity {
		pkt[3] = 0x10 | (cc & 0x0f)
		copy(pkt[mts.HeadSize:], payload[:capacity])
		return pkt
	}

	pkt[3] = 0x30 | (cc & 0x0f)
	afl := capacity - len(payload) - 1
	pkt[4] = byte(afl)
	if afl > 0 {
		pkt[5] = 0x00
		for i := 6; i < 6+afl-1; i++ {
			pkt[i] = 0xff
		}
	}
	copy(pkt[mts.HeadSize+1+afl:], payload)
	return pkt
}

// pcrOnlyPacket encodes an adaptation-field-only packet carrying a
// single PCR sample and no payload, as a real PCR packet would be.
func pcrOnlyPacket(pid uint16, pcr90k uint64) []byte {
	pkt := make([]byte, mts.PacketSize)
	pkt[0] = mts.SyncByte
	pkt[1] = byte(pid>>8) & 0x1f
	pkt[2] = byte(pid)
	pkt[3] = 0x20 // AFC 10: adaptation field only.
	pkt[4] = 7    // flags byte plus 6-byte PCR field.
	pkt[5] = 0x10 // PCR flag set.
	base := pcr90k & (1<<33 - 1)
	pkt[6] = byte(base >> 25)
	pkt[7] = byte(base >> 17)
	pkt[8] = byte(base >> 9)
	pkt[9] = byte(base >> 1)
	pkt[10] = byte((base & 1) << 7)
	pkt[11] = 0
	return pkt
}

// The following are duplicated from teletext's own test fixtures
// (unexported there) to synthesize Hamming-8/4 and odd-parity encoded
// Teletext bytes here.

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

func oddParity(c byte) byte {
	c &= 0x7f
	parity := byte(0)
	for i := uint(0); i < 7; i++ {
		parity ^= (c >> i) & 1
	}
	return c | (1-parity)<<7
}

func setMRAG(unit []byte, magazine, row int) {
	m := magazine & 0x7
	b0 := byte(m) | byte((row&0x10)>>1)
	b1 := byte(row & 0xf)
	unit[0] = ham84Encode(b0)
	unit[1] = ham84Encode(b1)
}

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
