package segment

import (
	"reflect"
	"strings"
	"testing"

	"github.com/fastrizwaan/readaloud/tts"
)

func sentenceTexts(units []tts.SentenceUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

func TestSegmentBasics(t *testing.T) {
	s := NewSplitter(nil)

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "two sentences",
			input:    "Hello world. This is a test.",
			expected: []string{"Hello world.", "This is a test."},
		},
		{
			name:     "mixed punctuation",
			input:    "Really? Yes! Of course. Why not?!",
			expected: []string{"Really?", "Yes!", "Of course.", "Why not?!"},
		},
		{
			name:     "ellipsis stays inside",
			input:    "Wait... I'm thinking. Done!",
			expected: []string{"Wait...", "I'm thinking.", "Done!"},
		},
		{
			name:     "newline separated",
			input:    "First sentence.\nSecond sentence.",
			expected: []string{"First sentence.", "Second sentence."},
		},
		{
			name:     "trailing text without terminator",
			input:    "Complete sentence. And a fragment",
			expected: []string{"Complete sentence.", "And a fragment"},
		},
		{
			name:     "closing quote belongs to sentence",
			input:    `She said "Hello." Then she left.`,
			expected: []string{`She said "Hello."`, "Then she left."},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			input:    "   \n\t  ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := s.Segment(tt.input)
			got := sentenceTexts(units)
			if len(tt.expected) == 0 && len(got) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Segment(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSegmentProtectsDecimals(t *testing.T) {
	s := NewSplitter(nil)

	units := s.Segment("The value of pi is 3.14159 approximately. Use it wisely.")
	if len(units) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(units), sentenceTexts(units))
	}
	if !strings.Contains(units[0].Text, "3.14159") {
		t.Errorf("decimal was split: %q", units[0].Text)
	}
}

func TestSegmentProtectsAbbreviations(t *testing.T) {
	s := NewSplitter(nil)

	units := s.Segment("Dr. Smith arrived at 10. He was late.")
	if len(units) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(units), sentenceTexts(units))
	}
	if units[0].Text != "Dr. Smith arrived at 10." {
		t.Errorf("title abbreviation split a sentence: %q", units[0].Text)
	}
}

func TestSegmentAppliesReplacements(t *testing.T) {
	s := NewSplitter(tts.DefaultReplacements())

	units := s.Segment("Use fruits, e.g. apples, in the recipe. Thanks.")
	if len(units) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(units), sentenceTexts(units))
	}
	if !strings.Contains(units[0].Text, "for example") {
		t.Errorf("replacement not applied: %q", units[0].Text)
	}
	if strings.Contains(units[0].Text, "e.g.") {
		t.Errorf("abbreviation survived replacement: %q", units[0].Text)
	}
	// The source span still covers the original, unreplaced text.
	src := "Use fruits, e.g. apples, in the recipe."
	i := strings.Index("Use fruits, e.g. apples, in the recipe. Thanks.", src)
	if units[0].SourceStart != i || units[0].SourceEnd != i+len(src) {
		t.Errorf("span = [%d,%d), want [%d,%d)", units[0].SourceStart, units[0].SourceEnd, i, i+len(src))
	}
}

func TestSegmentIndicesAndSpans(t *testing.T) {
	text := "One is here. Two follows!   Three ends it?"
	s := NewSplitter(nil)
	units := s.Segment(text)

	if len(units) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(units))
	}
	for i, u := range units {
		if u.Index != i+1 {
			t.Errorf("unit %d has index %d, want %d", i, u.Index, i+1)
		}
		if u.SourceStart < 0 || u.SourceEnd > len(text) || u.SourceStart >= u.SourceEnd {
			t.Errorf("unit %d has bad span [%d,%d)", i, u.SourceStart, u.SourceEnd)
		}
		if got := text[u.SourceStart:u.SourceEnd]; got != u.Text {
			// No replacements configured, so spans must reproduce the text.
			t.Errorf("unit %d span text %q != %q", i, got, u.Text)
		}
		if i > 0 && u.SourceStart < units[i-1].SourceEnd {
			t.Errorf("unit %d span overlaps previous", i)
		}
	}
	if len(units[0].Words) != 3 {
		t.Errorf("unit 0 words = %v, want 3 tokens", units[0].Words)
	}
}

func TestSegmentReconstructsContent(t *testing.T) {
	text := "It was a dark night!  Rain fell.\nNobody stirred... Or did they?  The end"
	units := NewSplitter(nil).Segment(text)

	strip := func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	}
	var joined []string
	for _, u := range units {
		joined = append(joined, u.Text)
	}
	if got, want := strip(strings.Join(joined, " ")), strip(text); got != want {
		t.Errorf("sentences do not reconstruct content:\n got %q\nwant %q", got, want)
	}
}

func TestSegmentDeterministic(t *testing.T) {
	text := "Dr. Jones wrote 2.5 pages, e.g. notes. Then he stopped! Was it enough? Hardly"
	s := NewSplitter(tts.DefaultReplacements())

	first := s.Segment(text)
	for i := 0; i < 10; i++ {
		again := s.Segment(text)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced a different segmentation", i)
		}
	}
	// A fresh splitter with the same table must agree too, since the
	// replacement map has no stable iteration order of its own.
	other := NewSplitter(tts.DefaultReplacements()).Segment(text)
	if !reflect.DeepEqual(first, other) {
		t.Fatal("fresh splitter disagreed with original")
	}
}
