package subtitle

import "testing"

func TestBufferCommitClosesPreviousCue(t *testing.T) {
	b := NewBuffer(false)

	if _, ok := b.Commit(Subtitle{PTS: 100, Text: "hello", Channel: 1}); ok {
		t.Fatal("first commit should not yield a cue")
	}

	cue, ok := b.Commit(Subtitle{PTS: 200, Text: "world", Channel: 1})
	if !ok {
		t.Fatal("second commit should close the first cue")
	}
	if cue.Text != "hello" || cue.Start != 100 || cue.End != 200 {
		t.Errorf("got %+v", cue)
	}
}

func TestBufferFlush(t *testing.T) {
	b := NewBuffer(false)
	b.Commit(Subtitle{PTS: 100, Text: "hello", Channel: 1})

	cue, ok := b.Flush(150)
	if !ok || cue.Start != 100 || cue.End != 150 {
		t.Errorf("got %+v, ok=%v", cue, ok)
	}

	if _, ok := b.Flush(200); ok {
		t.Fatal("flush after flush should find nothing pending")
	}
}

func TestBufferCommitMergesTypo(t *testing.T) {
	b := NewBuffer(true)

	b.Commit(Subtitle{PTS: 100, Text: "the quick brown fox", Channel: 1})

	// A near-identical retransmission with one corrected character
	// should extend the pending subtitle rather than close it out.
	if _, ok := b.Commit(Subtitle{PTS: 140, Text: "the quick brown fax", Channel: 1}); ok {
		t.Fatal("typo correction should not yield a cue")
	}

	cue, ok := b.Commit(Subtitle{PTS: 300, Text: "something completely different", Channel: 1})
	if !ok {
		t.Fatal("genuinely new text should close the merged cue")
	}
	if cue.Text != "the quick brown fax" || cue.Start != 100 || cue.End != 300 {
		t.Errorf("got %+v, want merged text starting at 100 ending at 300", cue)
	}
}

func TestBufferCommitNoMergeWhenDisabled(t *testing.T) {
	b := NewBuffer(false)

	b.Commit(Subtitle{PTS: 100, Text: "the quick brown fox", Channel: 1})

	cue, ok := b.Commit(Subtitle{PTS: 140, Text: "the quick brown fax", Channel: 1})
	if !ok {
		t.Fatal("without merging, even a near-identical retransmission should close the previous cue")
	}
	if cue.Text != "the quick brown fox" {
		t.Errorf("got %q, want %q", cue.Text, "the quick brown fox")
	}
}
