package registry

import (
	"testing"

	"github.com/ausocean/ccx/container/mts/psi"
)

func TestBestStreamPrefersTeletext(t *testing.T) {
	r := New()
	r.UpdatePAT(&psi.PAT{Programs: []psi.PATEntry{{Program: 1, ProgramMapPID: 0x100}}})

	pmt := &psi.PMT{
		StreamSpecificData: &psi.StreamSpecificData{
			PID: 0x200,
			Descriptors: []psi.Descriptor{
				{Tag: CaptionServiceTag, Data: nil},
			},
		},
	}
	r.UpdatePMT(1, pmt)

	best, ok := r.BestStream(1)
	if !ok || best.Kind != KindATSCCC {
		t.Fatalf("got %+v, ok=%v, want KindATSCCC", best, ok)
	}

	pmt.StreamSpecificData.Descriptors = append(pmt.StreamSpecificData.Descriptors, psi.Descriptor{
		Tag:  TeletextDescriptorTag,
		Data: []byte{'e', 'n', 'g', 0x01, 0x10}, // magazine 1, page 10.
	})
	r.UpdatePMT(1, pmt)

	best, ok = r.BestStream(1)
	if !ok || best.Kind != KindTeletext {
		t.Fatalf("got %+v, ok=%v, want KindTeletext", best, ok)
	}
	if best.Language != "eng" || best.Page != 10 || best.Magazine != 1 {
		t.Errorf("got %+v, want lang=eng page=10 magazine=1", best)
	}
}

func TestBestStreamUnknownProgram(t *testing.T) {
	r := New()
	if _, ok := r.BestStream(99); ok {
		t.Fatal("expected ok=false for unknown program")
	}
}

func TestPCRPID(t *testing.T) {
	r := New()
	if _, ok := r.PCRPID(1); ok {
		t.Fatal("expected ok=false for unknown program")
	}

	r.UpdatePAT(&psi.PAT{Programs: []psi.PATEntry{{Program: 1, ProgramMapPID: 0x100}}})
	if _, ok := r.PCRPID(1); ok {
		t.Fatal("expected ok=false before a PMT is seen")
	}

	r.UpdatePMT(1, &psi.PMT{
		ProgramClockPID: 0x201,
		StreamSpecificData: &psi.StreamSpecificData{
			PID: 0x201,
		},
	})
	pid, ok := r.PCRPID(1)
	if !ok || pid != 0x201 {
		t.Fatalf("got pid=%#x, ok=%v, want 0x201, true", pid, ok)
	}
}

// TestUpdatePATMultiplePrograms ensures every program_number/PMT-PID entry
// in a PAT is retained, and that a program's stream info survives a later
// PAT update that still lists it.
func TestUpdatePATMultiplePrograms(t *testing.T) {
	r := New()
	r.UpdatePAT(&psi.PAT{Programs: []psi.PATEntry{
		{Program: 1, ProgramMapPID: 0x100},
		{Program: 2, ProgramMapPID: 0x200},
	}})

	r.UpdatePMT(1, &psi.PMT{
		StreamSpecificData: &psi.StreamSpecificData{
			PID: 0x101,
			Descriptors: []psi.Descriptor{
				{Tag: CaptionServiceTag, Data: nil},
			},
		},
	})

	progs := r.Programs()
	if len(progs) != 2 {
		t.Fatalf("got %d programs, want 2", len(progs))
	}

	if _, ok := r.BestStream(2); ok {
		t.Fatal("program 2 has no PMT yet, expected ok=false")
	}

	// Re-announce both programs; program 1's already-known stream must
	// survive since it's still listed.
	r.UpdatePAT(&psi.PAT{Programs: []psi.PATEntry{
		{Program: 1, ProgramMapPID: 0x100},
		{Program: 2, ProgramMapPID: 0x200},
	}})
	best, ok := r.BestStream(1)
	if !ok || best.Kind != KindATSCCC {
		t.Fatalf("got %+v, ok=%v, want KindATSCCC to survive PAT update", best, ok)
	}

	// Program 3 replaces program 2 in a subsequent PAT; program 2 must
	// drop out entirely.
	r.UpdatePAT(&psi.PAT{Programs: []psi.PATEntry{
		{Program: 1, ProgramMapPID: 0x100},
		{Program: 3, ProgramMapPID: 0x300},
	}})
	if _, ok := r.BestStream(2); ok {
		t.Fatal("program 2 dropped from PAT, expected ok=false")
	}
	if len(r.Programs()) != 2 {
		t.Fatalf("got %d programs, want 2 after program 2 dropped", len(r.Programs()))
	}
}
