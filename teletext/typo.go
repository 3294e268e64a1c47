/*
NAME
  typo.go

DESCRIPTION
  typo.go merges near-duplicate consecutive pages. Teletext subtitle
  encoders frequently retransmit a page with a single corrected
  character (a typo fix broadcast a few frames later); without merging,
  each retransmission would otherwise surface as a separate subtitle
  cue. Grounded on telxcc.c's levenshtein-distance-gated dupe
  suppression.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package teletext

// typoMergeThreshold is the maximum Levenshtein distance, as a
// fraction of the longer string's length, at which two consecutive
// pages are considered the same cue with a minor correction rather
// than a genuinely new cue.
const typoMergeThreshold = 0.2

// levenshtein returns the edit distance between a and b.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// IsTypoOf reports whether next is a minor correction of prev: both
// non-empty and their edit distance is within typoMergeThreshold of
// the longer string's rune length.
func IsTypoOf(prev, next string) bool {
	if prev == "" || next == "" || prev == next {
		return false
	}
	a, b := []rune(prev), []rune(next)
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return false
	}
	dist := levenshtein(a, b)
	return float64(dist)/float64(longer) <= typoMergeThreshold
}
