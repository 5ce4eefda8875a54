package match

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// word is one segment produced by the word segmenter.
type word struct {
	text     string
	start    int
	end      int
	wordLike bool
}

// segment splits s on UAX #29 word boundaries. Whitespace and punctuation
// come back as their own segments with wordLike unset.
func segment(s string) []word {
	var words []word
	state := -1
	offset := 0
	rest := s
	for len(rest) > 0 {
		var w string
		w, rest, state = uniseg.FirstWordInString(rest, state)
		words = append(words, word{
			text:     w,
			start:    offset,
			end:      offset + len(w),
			wordLike: isWordLike(w),
		})
		offset += len(w)
	}
	return words
}

// wordsOf returns only the word-like segments of s.
func wordsOf(s string) []word {
	all := segment(s)
	words := all[:0]
	for _, w := range all {
		if w.wordLike {
			words = append(words, w)
		}
	}
	return words
}

func isWordLike(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
