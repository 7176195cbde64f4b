// Package segment splits document text into ordered sentence units for
// synthesis, preserving source character spans for highlight mapping.
package segment

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/fastrizwaan/readaloud/tts"
)

// Splitter implements tts.Segmenter. Splitting happens on sentence-terminal
// punctuation, protected against decimal numbers and known abbreviations.
// The same input always yields the same unit list.
type Splitter struct {
	replacements  []replacement
	abbreviations map[string]struct{}
}

type replacement struct {
	from string
	to   string
	re   *regexp.Regexp
}

// Common title abbreviations that never end a sentence.
var titleAbbreviations = []string{
	"mr.", "mrs.", "ms.", "dr.", "prof.", "sr.", "jr.", "st.",
}

// NewSplitter creates a splitter. The replacement table maps abbreviations
// to their spoken form (e.g. "e.g." to "for example"); its keys are also
// protected from being treated as sentence ends.
func NewSplitter(replacements map[string]string) *Splitter {
	s := &Splitter{
		abbreviations: make(map[string]struct{}),
	}
	for _, a := range titleAbbreviations {
		s.abbreviations[a] = struct{}{}
	}

	// Sort keys longest-first so "e.g.," style variants would win over
	// shorter prefixes, and to keep replacement order deterministic.
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		s.replacements = append(s.replacements, replacement{
			from: k,
			to:   replacements[k],
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k)),
		})
		s.abbreviations[strings.ToLower(k)] = struct{}{}
	}
	return s
}

// Segment implements tts.Segmenter.
func (s *Splitter) Segment(text string) []tts.SentenceUnit {
	var units []tts.SentenceUnit
	searchFrom := 0

	for _, span := range s.boundaries(text) {
		trimmed := strings.TrimSpace(text[span.start:span.end])
		if trimmed == "" {
			continue
		}

		// Locate the sentence in the original text at-or-after the previous
		// unit's end, so highlights map back into the source document even
		// when the caller stripped formatting before segmentation.
		start := span.start
		if idx := strings.Index(text[searchFrom:], trimmed); idx >= 0 {
			start = searchFrom + idx
		}
		end := start + len(trimmed)
		searchFrom = end

		spoken := s.applyReplacements(trimmed)
		units = append(units, tts.SentenceUnit{
			Index:       len(units) + 1,
			Text:        spoken,
			SourceStart: start,
			SourceEnd:   end,
			Words:       strings.Fields(spoken),
		})
	}
	return units
}

type span struct {
	start, end int
}

const terminators = ".!?"

func (s *Splitter) boundaries(text string) []span {
	var spans []span
	lastStart := 0

	for i := 0; i < len(text); i++ {
		if !strings.ContainsRune(terminators, rune(text[i])) {
			continue
		}

		// Absorb the whole punctuation run ("?!", "...").
		punctEnd := i + 1
		for punctEnd < len(text) && strings.ContainsRune(terminators, rune(text[punctEnd])) {
			punctEnd++
		}

		if !s.isSentenceEnd(text, i, punctEnd) {
			i = punctEnd - 1
			continue
		}

		// Closing quotes and brackets belong to the sentence.
		for punctEnd < len(text) && strings.ContainsRune(`"')]`, rune(text[punctEnd])) {
			punctEnd++
		}

		spans = append(spans, span{start: lastStart, end: punctEnd})

		next := punctEnd
		for next < len(text) && unicode.IsSpace(rune(text[next])) {
			next++
		}
		lastStart = next
		i = next - 1
	}

	if lastStart < len(text) && strings.TrimSpace(text[lastStart:]) != "" {
		spans = append(spans, span{start: lastStart, end: len(text)})
	}
	return spans
}

// isSentenceEnd decides whether the punctuation run starting at pos really
// terminates a sentence.
func (s *Splitter) isSentenceEnd(text string, pos, punctEnd int) bool {
	// A terminator inside a decimal number ("3.14") is not a boundary.
	if text[pos] == '.' && pos > 0 && punctEnd < len(text) &&
		isDigit(text[pos-1]) && isDigit(text[punctEnd]) {
		return false
	}

	// Must be followed by whitespace (or end of text), optionally after
	// closing quotes or brackets.
	after := punctEnd
	for after < len(text) && strings.ContainsRune(`"')]`, rune(text[after])) {
		after++
	}
	if after < len(text) && !unicode.IsSpace(rune(text[after])) {
		return false
	}

	// The token ending here must not be a known abbreviation.
	if text[pos] == '.' {
		wordStart := pos
		for wordStart > 0 && !unicode.IsSpace(rune(text[wordStart-1])) {
			wordStart--
		}
		word := strings.ToLower(text[wordStart:punctEnd])
		if _, ok := s.abbreviations[word]; ok {
			return false
		}
	}
	return true
}

func (s *Splitter) applyReplacements(text string) string {
	for _, r := range s.replacements {
		text = r.re.ReplaceAllString(text, r.to)
	}
	return text
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
