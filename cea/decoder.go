/*
NAME
  decoder.go

DESCRIPTION
  decoder.go defines the contract the rest of this module uses to turn
  CEA-608/CEA-708 closed caption byte pairs into subtitle text, and a
  concrete implementation backed by github.com/zsiec/ccx. The CEA-608/
  708 bit-level decode itself (line 21 waveform semantics, DTVCC
  service block state machines) is out of scope here by design: this
  package only owns dispatch of cc_data triplets to the right per-
  channel decoder and translation of its output into subtitle.Subtitle.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package cea dispatches CEA-608 line-21 and CEA-708 DTVCC caption
// byte pairs, as extracted from an ATSC video elementary stream's
// picture user data, to per-channel decoders and yields subtitle text.
package cea

import (
	"github.com/zsiec/ccx"

	"github.com/ausocean/ccx/subtitle"
)

// Pair is one cc_data triplet's payload: a channel/field selector and
// its two data bytes, as defined by ATSC A/53 Annex A / CEA-708.
type Pair struct {
	Type byte // cc_type: 0=NTSC field 1, 1=NTSC field 2, 2/3=DTVCC.
	Data [2]byte
}

// Decoder turns a stream of CEA-608/708 byte pairs into subtitle text.
// Implementations keep per-channel/per-service state across calls.
type Decoder interface {
	// Feed processes one cc_data triplet observed at PTS pts. It
	// returns a Subtitle if the triplet completed a caption update
	// worth surfacing, or ok=false otherwise.
	Feed(pair Pair, pts uint64) (subtitle.Subtitle, bool)
}

// zsiecDecoder adapts github.com/zsiec/ccx's CEA-608 and CEA-708
// decoders to the Decoder contract, keeping four 608 channels (CC1-
// CC4) and the 708 services referenced by block.ServiceNum.
type zsiecDecoder struct {
	cc608 map[int]*ccx.CEA608Decoder
	cc708 map[int]*ccx.CEA708Service
	dtvcc []byte
}

// NewZsiecDecoder returns a Decoder backed by github.com/zsiec/ccx.
func NewZsiecDecoder() Decoder {
	d := &zsiecDecoder{
		cc608: make(map[int]*ccx.CEA608Decoder, 4),
		cc708: make(map[int]*ccx.CEA708Service, 6),
	}
	for ch := 1; ch <= 4; ch++ {
		d.cc608[ch] = ccx.NewCEA608Decoder()
	}
	for svc := 1; svc <= 6; svc++ {
		d.cc708[svc] = ccx.NewCEA708Service()
	}
	return d
}

func (d *zsiecDecoder) Feed(pair Pair, pts uint64) (subtitle.Subtitle, bool) {
	switch pair.Type {
	case 0, 1: // CEA-608, one of two interleaved fields.
		channel := int(pair.Type) + 1
		dec, ok := d.cc608[channel]
		if !ok {
			return subtitle.Subtitle{}, false
		}
		text := dec.Decode(pair.Data[0], pair.Data[1])
		if text == "" {
			return subtitle.Subtitle{}, false
		}
		return subtitle.Subtitle{PTS: pts, Text: text, Channel: channel}, true

	case 2, 3: // DTVCC channel packet data.
		d.dtvcc = append(d.dtvcc, pair.Data[0], pair.Data[1])
		return d.drainDTVCC(pts)
	}
	return subtitle.Subtitle{}, false
}

// drainDTVCC attempts to parse a complete DTVCC packet from the
// buffered channel packet bytes, dispatching any resulting service
// block to its service and surfacing text it produced.
func (d *zsiecDecoder) drainDTVCC(pts uint64) (subtitle.Subtitle, bool) {
	if len(d.dtvcc) < 1 {
		return subtitle.Subtitle{}, false
	}
	size := ccx.DTVCCPacketSize(d.dtvcc[0])
	if len(d.dtvcc) < size {
		return subtitle.Subtitle{}, false
	}

	var out subtitle.Subtitle
	found := false
	for _, block := range ccx.ParseDTVCCPacket(d.dtvcc[:size]) {
		svc, ok := d.cc708[block.ServiceNum]
		if !ok || !svc.ProcessBlock(block.Data) {
			continue
		}
		text := svc.DisplayText()
		if text == "" {
			continue
		}
		out = subtitle.Subtitle{PTS: pts, Text: text, Channel: block.ServiceNum + 6}
		found = true
	}
	d.dtvcc = d.dtvcc[:0]
	return out, found
}
