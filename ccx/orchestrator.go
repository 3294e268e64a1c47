/*
NAME
  orchestrator.go

DESCRIPTION
  orchestrator.go wires the demux, decode and encode stages into a
  three-goroutine pipeline coordinated by golang.org/x/sync/errgroup,
  the way revid/pipeline.go wires codec/container/device stages
  together but generalized from revid's io.WriteCloser chaining to an
  explicit producer/consumer goroutine group, since this pipeline's
  stages communicate structured values (packets, cues) rather than
  bytes.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ccx orchestrates the Teletext/CEA-608/708 caption extraction
// pipeline: reading an MPEG-2 transport stream, demultiplexing its
// PSI/PES structure, decoding whichever caption carriage each program
// advertises, and encoding committed cues to an output sink.
package ccx

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ausocean/ccx/cea"
	"github.com/ausocean/ccx/ccx/config"
	"github.com/ausocean/ccx/container/mts"
	"github.com/ausocean/ccx/container/mts/pes"
	"github.com/ausocean/ccx/container/mts/psi"
	"github.com/ausocean/ccx/input"
	"github.com/ausocean/ccx/registry"
	"github.com/ausocean/ccx/srt"
	"github.com/ausocean/ccx/subtitle"
	"github.com/ausocean/ccx/teletext"
	"github.com/ausocean/ccx/timing"
)

// Metrics, registered once per process on the default registerer.
var (
	packetsRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccx_ts_packets_read_total",
		Help: "Total number of MPEG-2 transport stream packets read.",
	})
	cuesEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ccx_cues_emitted_total",
		Help: "Total number of subtitle cues emitted, by source.",
	}, []string{"source"})
	discontinuities = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccx_continuity_errors_total",
		Help: "Total number of continuity counter discontinuities observed.",
	})
)

func init() {
	prometheus.MustRegister(packetsRead, cuesEmitted, discontinuities)
}

// Encoder writes out committed subtitle cues. srt.Encoder is the
// reference implementation.
type Encoder interface {
	Encode(subtitle.Cue) error
}

// Orchestrator runs one end-to-end caption extraction: input -> demux
// -> caption decode -> cue commit -> Encoder.
type Orchestrator struct {
	cfg      config.Config
	registry *registry.Registry
	spine    *timing.Spine
	sessID   string
}

// New returns an Orchestrator for cfg, which must already be valid
// (see config.Config.Validate).
func New(cfg config.Config) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		registry: registry.New(),
		spine:    timing.NewSpine(),
		sessID:   uuid.NewString(),
	}
}

// Run reads the transport stream from src until ctx is cancelled or
// src is exhausted, writing committed cues to enc. It returns the
// first error encountered by any pipeline stage.
func (o *Orchestrator) Run(ctx context.Context, src io.Reader, enc Encoder) error {
	o.cfg.Logger.Info("starting ccx pipeline", "session", o.sessID)

	packets := make(chan *mts.Packet, 64)
	cues := make(chan subtitle.Cue, 64)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return o.readPackets(ctx, src, packets) })
	g.Go(func() error { return o.decodePackets(ctx, packets, cues) })
	g.Go(func() error { return o.writeCues(ctx, cues, enc) })

	err := g.Wait()
	o.cfg.Logger.Info("ccx pipeline stopped", "session", o.sessID)
	return err
}

// readPackets is the demux stage: it reads fixed 188-byte chunks,
// parses each as a packet, tracks continuity and sends every parsed
// packet downstream. A chunk that does not parse is dropped; there is
// no hunt for the next sync byte, so a stream that loses packet
// alignment stays misaligned.
func (o *Orchestrator) readPackets(ctx context.Context, src io.Reader, out chan<- *mts.Packet) error {
	defer close(out)

	tracker := mts.NewContinuityTracker()
	buf := make([]byte, mts.PacketSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, err := io.ReadFull(src, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "ccx: reading transport stream")
		}

		pkt, err := mts.Parse(buf)
		if err != nil {
			o.cfg.Logger.Warning("dropping unparseable packet", "error", err.Error())
			continue
		}
		packetsRead.Inc()

		if err := tracker.Observe(pkt); err != nil {
			discontinuities.Inc()
			o.cfg.Logger.Warning("continuity discontinuity", "error", err.Error())
		}

		select {
		case out <- pkt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// decodePackets is the demux-to-caption stage: it assembles PSI to
// learn which PIDs carry captions, reassembles PES for those PIDs,
// and feeds payload to the Teletext or CEA decoder, pushing committed
// output through buf into cues.
func (o *Orchestrator) decodePackets(ctx context.Context, in <-chan *mts.Packet, cues chan<- subtitle.Cue) error {
	defer close(cues)

	assembler := psi.NewAssembler()
	pesReassemblers := make(map[uint16]*pes.Reassembler)
	buf := subtitle.NewBuffer(o.cfg.MergeTypos)

	var tx *teletext.Decoder
	var cc cea.Decoder
	var lastStream registry.StreamInfo
	selected := o.cfg.ProgramNumber

	emit := func(s subtitle.Subtitle) {
		if cue, ok := buf.Commit(s); ok {
			cuesEmitted.WithLabelValues(s.Source).Inc()
			select {
			case cues <- cue:
			case <-ctx.Done():
			}
		}
	}

	tx = teletext.NewDecoder(func(p teletext.Page) {
		text := p.Text()
		if o.cfg.SentenceCase {
			text = teletext.SentenceCase(text)
		}
		emit(subtitle.Subtitle{PTS: p.PTS, Text: text, Source: "teletext", Channel: p.Magazine*100 + p.Number})
	}, o.cfg.WatchedPage)
	cc = cea.NewZsiecDecoder()

	dispatch := func(kind registry.Kind, data []byte, fts uint64) {
		switch kind {
		case registry.KindTeletext:
			o.feedTeletext(tx, data, fts)
		case registry.KindATSCCC, registry.KindDVBSub:
			o.feedCEA(cc, data, fts, emit)
		}
	}

	for {
		select {
		case pkt, ok := <-in:
			if !ok {
				// The last PES on the active PID is still sitting in its
				// Reassembler, unparsed: nothing ever arrived to start the
				// next one and trigger its return from Feed. Drain it
				// before flushing the decoders, or it's silently lost.
				if r, exists := pesReassemblers[lastStream.PID]; exists {
					if p, ferr := r.Flush(); ferr == nil && p != nil {
						dispatch(lastStream.Kind, p.Data, o.spine.Observe(p.PTS))
					}
				}
				if tx != nil {
					tx.Flush()
				}
				end := o.spine.Advance()
				if last, ok := o.spine.Last(); ok {
					end = last
				}
				if cue, ok := buf.Flush(end); ok {
					select {
					case cues <- cue:
					case <-ctx.Done():
					}
				}
				return nil
			}
			o.handlePSI(pkt, assembler)

			if pkt.PID == 0 {
				continue
			}

			if selected == 0 {
				for _, p := range o.registry.Programs() {
					if _, ok := o.registry.BestStream(p.Number); ok {
						selected = p.Number
						break
					}
				}
			}

			if pcrPID, ok := o.registry.PCRPID(selected); ok && pkt.PID == pcrPID && pkt.PCRF {
				o.spine.Observe(pkt.PCR / 300)
			}

			stream, ok := o.registry.BestStream(selected)
			if !ok {
				continue
			}
			lastStream = stream
			if pkt.PID != stream.PID {
				continue
			}

			r, ok := pesReassemblers[pkt.PID]
			if !ok {
				r = pes.NewReassembler()
				pesReassemblers[pkt.PID] = r
			}
			p, err := r.Feed(pkt.PUSI, pkt.Payload)
			if err != nil || p == nil {
				continue
			}
			fts := o.spine.Observe(p.PTS)
			dispatch(stream.Kind, p.Data, fts)

			if o.cfg.EndAt > 0 && fts >= uint64(o.cfg.EndAt.Milliseconds()) {
				// The timeline is clipped here: dispatch above has already
				// closed out any cue pending before this point, but this
				// caption itself, and anything after it, must not surface.
				return nil
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handlePSI feeds pkt to the PSI assembler, if its PID carries the PAT
// or a known program's PMT, and updates the registry from any
// resulting complete table.
func (o *Orchestrator) handlePSI(pkt *mts.Packet, a *psi.Assembler) {
	programNumber, isPMT := o.programPMTPID(pkt.PID)
	if pkt.PID != patPID && !isPMT {
		return
	}

	table, err := a.Feed(pkt.PID, pkt.PUSI, pkt.Payload)
	if err != nil || table == nil || table.SyntaxSection == nil {
		return
	}

	switch sd := table.SyntaxSection.SpecificData.(type) {
	case *psi.PAT:
		o.registry.UpdatePAT(sd)
	case *psi.PMT:
		if isPMT {
			o.registry.UpdatePMT(programNumber, sd)
		}
	}
}

// patPID is the fixed PID the Program Association Table is always
// carried on.
const patPID = 0x0000

// programPMTPID reports whether pid is a known program's PMT PID, and
// if so, that program's number.
func (o *Orchestrator) programPMTPID(pid uint16) (uint16, bool) {
	for _, p := range o.registry.Programs() {
		if p.PMTPID == pid {
			return p.Number, true
		}
	}
	return 0, false
}

// feedTeletext splits a Teletext PES payload's data field (after its
// PES_data_field_id byte) into data_unit records and feeds each to dec.
func (o *Orchestrator) feedTeletext(dec *teletext.Decoder, data []byte, pts uint64) {
	if len(data) < 1 {
		return
	}
	d := data[1:] // Skip PES_data_field_id.
	for len(d) >= 2 {
		length := int(d[1])
		if 2+length > len(d) {
			return
		}
		dec.Feed(d[2:2+length], pts)
		d = d[2+length:]
	}
}

// feedCEA extracts cc_data triplets from a user_data PES payload and
// feeds each to dec, emitting any resulting subtitle.
func (o *Orchestrator) feedCEA(dec cea.Decoder, data []byte, pts uint64, emit func(subtitle.Subtitle)) {
	for i := 0; i+2 < len(data); i += 3 {
		if data[i]&0x04 == 0 { // cc_valid bit clear.
			continue
		}
		pair := cea.Pair{Type: data[i] & 0x3, Data: [2]byte{data[i+1], data[i+2]}}
		if s, ok := dec.Feed(pair, pts); ok {
			s.Source = "cea"
			emit(s)
		}
	}
}

// writeCues is the output stage: it encodes each committed cue to enc.
// When SegmentDuration is set it logs a debug line each time that much
// wall-clock time has passed since the previous boundary; output is
// not split into separate files.
func (o *Orchestrator) writeCues(ctx context.Context, in <-chan subtitle.Cue, enc Encoder) error {
	segmentStart := time.Now()
	for {
		select {
		case cue, ok := <-in:
			if !ok {
				return nil
			}
			if err := enc.Encode(cue); err != nil {
				return errors.Wrap(err, "ccx: encoding cue")
			}
			if o.cfg.SegmentDuration > 0 && time.Since(segmentStart) >= o.cfg.SegmentDuration {
				segmentStart = time.Now()
				o.cfg.Logger.Debug("output segment boundary reached", "session", o.sessID)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SegmentPath builds an output file path for segment n of this
// Orchestrator's session, rooted at cfg.OutputPath.
func (o *Orchestrator) SegmentPath(n int) string {
	return fmt.Sprintf("%s.%s.%04d.srt", o.cfg.OutputPath, o.sessID, n)
}

// NewFileEncoder opens path and returns an srt.Encoder writing to it.
// The caller is responsible for closing the returned file. Cues reach
// the encoder with Start/End already in timing.Spine's milliseconds,
// not raw 90kHz PTS ticks, so the encoder's clock is set to 1000.
func NewFileEncoder(path string) (*srt.Encoder, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "ccx: creating output file")
	}
	return srt.NewEncoder(f, 1000), f, nil
}

// NewReaderFromConfig builds an input.Reader from cfg's Input fields.
func NewReaderFromConfig(cfg config.Config) (*input.Reader, error) {
	if cfg.Input != config.InputFile {
		return nil, errors.New("ccx: only InputFile is supported by NewReaderFromConfig")
	}
	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, errors.Wrap(err, "ccx: opening input file")
	}
	return input.NewReader(f, cfg.Loop, cfg.Logger), nil
}
