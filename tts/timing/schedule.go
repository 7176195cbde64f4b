// Package timing derives per-word highlight schedules from measured
// sentence audio durations.
//
// The schedule is a heuristic, not a forced alignment: words are weighted
// by a cheap proxy for spoken length and the weights are normalized to the
// sentence's real decoded duration. Engines that expose phoneme timings
// could replace this with true alignment.
package timing

import (
	"unicode"
)

// Weight constants. Vowels stretch pronunciation more than consonants, and
// bare punctuation tokens stand for pause time.
const (
	vowelWeight       = 1.2
	consonantWeight   = 0.8
	punctuationWeight = 1.5
	minimumWeight     = 1.0
)

// Slot is one word's cumulative end time within its sentence.
type Slot struct {
	Word int     // word index within the sentence, 0-based
	End  float64 // cumulative end time in seconds
}

// Schedule is a monotone per-word time table with a playback cursor.
type Schedule struct {
	slots  []Slot
	cursor int
}

// Estimate builds a schedule for a sentence's words and its measured audio
// duration in seconds. Slot end times are non-decreasing and the final end
// time equals the duration.
func Estimate(words []string, duration float64) *Schedule {
	s := &Schedule{}
	if len(words) == 0 || duration <= 0 {
		return s
	}

	weights := make([]float64, len(words))
	total := 0.0
	for i, w := range words {
		weights[i] = wordWeight(w)
		total += weights[i]
	}

	s.slots = make([]Slot, len(words))
	elapsed := 0.0
	for i := range words {
		elapsed += weights[i] / total * duration
		s.slots[i] = Slot{Word: i, End: elapsed}
	}
	// Pin the last slot to the exact duration so float accumulation cannot
	// push it past the real audio length.
	s.slots[len(s.slots)-1].End = duration
	return s
}

// Advance moves the cursor to the given elapsed time and returns the indices
// of words whose start time has been crossed since the last call, in order.
func (s *Schedule) Advance(elapsed float64) []int {
	var crossed []int
	for s.cursor < len(s.slots) {
		start := 0.0
		if s.cursor > 0 {
			start = s.slots[s.cursor-1].End
		}
		if elapsed < start {
			break
		}
		crossed = append(crossed, s.slots[s.cursor].Word)
		s.cursor++
	}
	return crossed
}

// Reset rewinds the cursor, for replaying a sentence from its start.
func (s *Schedule) Reset() {
	s.cursor = 0
}

// Slots exposes the computed table.
func (s *Schedule) Slots() []Slot {
	return s.slots
}

// Len returns the number of scheduled words.
func (s *Schedule) Len() int {
	return len(s.slots)
}

func wordWeight(word string) float64 {
	vowels, consonants, letters := 0, 0, 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if isVowel(r) {
			vowels++
		} else {
			consonants++
		}
	}
	if letters == 0 {
		// Pure punctuation token: stands for a pause.
		return punctuationWeight
	}
	w := float64(vowels)*vowelWeight + float64(consonants)*consonantWeight
	if w < minimumWeight {
		w = minimumWeight
	}
	return w
}

func isVowel(r rune) bool {
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
