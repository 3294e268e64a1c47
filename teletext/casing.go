/*
NAME
  casing.go

DESCRIPTION
  casing.go converts the upper-case-heavy text broadcast by many
  Teletext subtitle services into sentence case, for viewers who find
  all-caps captions harder to read. Grounded on telxcc.c's
  to_sentence_case pass, with its small proper-noun exception list.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package teletext

import (
	"strings"
	"unicode"
)

// sentenceCaseExceptions are words that keep their original casing
// even though they would otherwise be lower-cased mid-sentence.
var sentenceCaseExceptions = map[string]bool{
	"I": true, "TV": true, "BBC": true, "UK": true, "US": true,
}

// SentenceCase lower-cases words that are not the first word of a
// sentence, not an all-caps acronym exception, and not already mixed
// case (which is taken to mean the broadcaster cased it deliberately).
func SentenceCase(s string) string {
	fields := strings.Fields(s)
	startOfSentence := true
	for i, w := range fields {
		letters := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if !isAllUpper(letters) || sentenceCaseExceptions[letters] {
			if isEndOfSentence(w) {
				startOfSentence = true
			} else {
				startOfSentence = false
			}
			continue
		}

		if startOfSentence || sentenceCaseExceptions[letters] {
			fields[i] = capitalizeFirst(strings.ToLower(w))
		} else {
			fields[i] = strings.ToLower(w)
		}
		startOfSentence = isEndOfSentence(w)
	}
	return strings.Join(fields, " ")
}

func isAllUpper(s string) bool {
	has := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			has = true
		}
	}
	return has
}

func isEndOfSentence(w string) bool {
	return strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?")
}

func capitalizeFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
