/*
NAME
  registry.go

DESCRIPTION
  registry.go builds and maintains the per-program tree of caption-
  bearing streams (CapInfo) discovered from PAT/PMT descriptors, and
  selects the best available stream per program.

AUTHOR
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package registry tracks programs and their caption-bearing elementary
// streams as discovered from MPEG-TS program specific information, and
// chooses which stream to decode when more than one is available.
package registry

import (
	"sync"

	"github.com/ausocean/ccx/container/mts/psi"
)

// Descriptor tags used to identify caption-bearing streams.
const (
	TeletextDescriptorTag  = 0x56
	SubtitlingDescriptorTag = 0x59
	CaptionServiceTag      = 0x86 // ATSC CEA-608/708 caption service descriptor.
)

// Kind identifies the variety of caption carriage found for a stream.
type Kind int

// Stream kinds, in the priority order BestStream selects from.
const (
	KindNone Kind = iota
	KindATSCCC
	KindDVBSub
	KindTeletext
)

func (k Kind) String() string {
	switch k {
	case KindTeletext:
		return "teletext"
	case KindDVBSub:
		return "dvb-sub"
	case KindATSCCC:
		return "atsc-cc"
	default:
		return "none"
	}
}

// StreamInfo describes one caption-bearing elementary stream.
type StreamInfo struct {
	PID      uint16
	Kind     Kind
	Language string // ISO 639 language code, if carried by the descriptor.
	Page     int    // Teletext page number, 0 if not applicable.
	Magazine int    // Teletext magazine number, 0 if not applicable.
}

// Program is one program's entry in the registry: its PMT PID, the PID
// carrying its PCR, and the caption streams found within it.
type Program struct {
	Number  uint16
	PMTPID  uint16
	PCRPID  uint16
	Streams []StreamInfo
}

// Registry is the current cap_info tree: one Program per entry in the
// last-seen PAT, each populated from its PMT's descriptors. Safe for
// concurrent use; the orchestrator updates and queries it from its
// single decode goroutine.
type Registry struct {
	mu       sync.RWMutex
	programs map[uint16]*Program // keyed by program number.
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{programs: make(map[uint16]*Program)}
}

// UpdatePAT replaces the set of known programs from a parsed PAT,
// preserving already-known stream info for any program that persists
// across the update. A PAT may list any number of programs; every one
// is retained, not just the first.
func (r *Registry) UpdatePAT(pat *psi.PAT) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[uint16]*Program, len(pat.Programs))
	for _, e := range pat.Programs {
		prog, ok := r.programs[e.Program]
		if !ok {
			prog = &Program{Number: e.Program}
		}
		prog.PMTPID = e.ProgramMapPID
		next[e.Program] = prog
	}
	r.programs = next
}

// UpdatePMT rebuilds the caption stream list for the program associated
// with pmt, by inspecting its elementary stream's descriptors for
// Teletext, DVB subtitling or ATSC caption carriage. A psi.PMT holds
// only the first elementary stream entry of its section; streams in
// later entries are not registered.
func (r *Registry) UpdatePMT(programNumber uint16, pmt *psi.PMT) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prog, ok := r.programs[programNumber]
	if !ok {
		prog = &Program{Number: programNumber}
		r.programs[programNumber] = prog
	}
	prog.PCRPID = pmt.ProgramClockPID
	prog.Streams = prog.Streams[:0]

	ssd := pmt.StreamSpecificData
	if ssd == nil {
		return
	}
	prog.Streams = append(prog.Streams, streamInfoFromDescriptors(ssd.PID, ssd.Descriptors)...)
}

// PCRPID returns the PID carrying program's PCR, and whether the
// program (and a PCR PID for it) are known.
func (r *Registry) PCRPID(programNumber uint16) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prog, ok := r.programs[programNumber]
	if !ok || prog.PCRPID == 0 {
		return 0, false
	}
	return prog.PCRPID, true
}

// streamInfoFromDescriptors extracts zero or more StreamInfo entries
// from an elementary stream's descriptor list.
func streamInfoFromDescriptors(pid uint16, descs []psi.Descriptor) []StreamInfo {
	var out []StreamInfo
	for _, d := range descs {
		switch d.Tag {
		case TeletextDescriptorTag:
			for _, e := range teletextEntries(d.Data) {
				e.PID = pid
				out = append(out, e)
			}
		case SubtitlingDescriptorTag:
			lang := ""
			if len(d.Data) >= 3 {
				lang = string(d.Data[:3])
			}
			out = append(out, StreamInfo{PID: pid, Kind: KindDVBSub, Language: lang})
		case CaptionServiceTag:
			out = append(out, StreamInfo{PID: pid, Kind: KindATSCCC})
		}
	}
	return out
}

// teletextEntries parses a Teletext descriptor's repeated 5-byte
// entries (ISO 639 language, type/magazine, page number in BCD).
func teletextEntries(d []byte) []StreamInfo {
	var out []StreamInfo
	const entryLen = 5
	for i := 0; i+entryLen <= len(d); i += entryLen {
		lang := string(d[i : i+3])
		mag := int(d[i+3] & 0x07)
		pageBCD := d[i+4]
		page := int(pageBCD>>4)*10 + int(pageBCD&0x0f)
		out = append(out, StreamInfo{Kind: KindTeletext, Language: lang, Magazine: mag, Page: page})
	}
	return out
}

// Programs returns a snapshot of all known programs.
func (r *Registry) Programs() []Program {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Program, 0, len(r.programs))
	for _, p := range r.programs {
		out = append(out, *p)
	}
	return out
}

// BestStream selects the best available caption stream for program,
// preferring Teletext over DVB subtitle over ATSC CC over none. It
// returns ok=false if the program is unknown or carries nothing.
func (r *Registry) BestStream(programNumber uint16) (StreamInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prog, ok := r.programs[programNumber]
	if !ok {
		return StreamInfo{}, false
	}

	var best StreamInfo
	found := false
	for _, s := range prog.Streams {
		if !found || s.Kind > best.Kind {
			best = s
			found = true
		}
	}
	return best, found
}
