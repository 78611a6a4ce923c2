package chunk

import (
	"fmt"
	"strings"
	"testing"
)

// sentenceRun builds n numbered sentences of wordsEach words.
func sentenceRun(n, wordsEach int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		for j := 0; j < wordsEach; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "s%dw%d", i, j)
		}
		b.WriteString(". ")
	}
	return b.String()
}

// TestWordOverlap_TinyInputSinglePassage verifies the anti-fragmentation
// guard: maxWords=1 on a short input still yields exactly one passage,
// not one passage per word.
func TestWordOverlap_TinyInputSinglePassage(t *testing.T) {
	w := NewWordOverlap()
	got := w.Chunk("Nine short words sit in this little test here.", 1, "")

	if len(got) != 1 {
		t.Fatalf("Expected exactly 1 passage, got %d: %v", len(got), got)
	}
}

// TestWordOverlap_TinyInputGroups verifies inputs under the sentence
// threshold split into plain word groups.
func TestWordOverlap_TinyInputGroups(t *testing.T) {
	words := make([]string, 26)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	w := NewWordOverlap()
	got := w.Chunk(strings.Join(words, " "), 13, "")

	if len(got) != 2 {
		t.Fatalf("Expected 2 passages, got %d", len(got))
	}
	if wordCount(got[0]) != 13 || wordCount(got[1]) != 13 {
		t.Errorf("Expected 13+13 word groups, got %d+%d", wordCount(got[0]), wordCount(got[1]))
	}
}

// TestWordOverlap_OverlapInvariant verifies consecutive passages share a
// suffix/prefix word sequence no longer than the overlap bound.
func TestWordOverlap_OverlapInvariant(t *testing.T) {
	text := sentenceRun(30, 8) // 240 distinct words
	w := NewWordOverlap()
	maxWords := 80 // overlap bound 12 words, enough to seed one sentence
	got := w.Chunk(text, maxWords, "")

	if len(got) < 3 {
		t.Fatalf("Expected several passages, got %d", len(got))
	}
	bound := maxOverlapWords(maxWords)
	for i := 1; i < len(got); i++ {
		prev := strings.Fields(got[i-1])
		cur := strings.Fields(got[i])
		k := overlapWords(prev, cur, bound)
		if k == 0 {
			t.Errorf("Passages %d and %d share no overlap", i-1, i)
		}
		if k > bound {
			t.Errorf("Passages %d and %d overlap by %d words, bound is %d", i-1, i, k, bound)
		}
	}
}

// TestWordOverlap_WordLimit verifies no passage exceeds maxWords with the
// packing tolerance applied.
func TestWordOverlap_WordLimit(t *testing.T) {
	text := sentenceRun(40, 7)
	w := NewWordOverlap()
	maxWords := 50
	limit := int(float64(maxWords) * packTolerance)

	for i, p := range w.Chunk(text, maxWords, "") {
		if n := wordCount(p); n > limit {
			t.Errorf("Passage %d has %d words, limit %d", i, n, limit)
		}
	}
}

// TestWordOverlap_SentenceBoundaries verifies non-hard-split passages end
// on sentence boundaries and every sentence survives complete.
func TestWordOverlap_SentenceBoundaries(t *testing.T) {
	text := sentenceRun(25, 9)
	w := NewWordOverlap()
	got := w.Chunk(text, 45, "")

	for i, p := range got {
		if !strings.HasSuffix(p, ".") {
			t.Errorf("Passage %d does not end on a sentence boundary: %q", i, p)
		}
	}

	joined := strings.Join(got, " ")
	for _, sent := range splitSentences(normalizeWhitespace(text), overlapTerminators) {
		if !strings.Contains(joined, sent) {
			t.Errorf("Sentence lost during chunking: %q", sent)
		}
	}
}

// TestWordOverlap_HardSplitNoOverlap verifies an oversized sentence is cut
// into fixed groups and those groups carry no seeded overlap.
func TestWordOverlap_HardSplitNoOverlap(t *testing.T) {
	words := make([]string, 120)
	for i := range words {
		words[i] = fmt.Sprintf("long%d", i)
	}
	// One giant sentence followed by normal ones, total well over the
	// tiny-input threshold.
	text := strings.Join(words, " ") + ". " + sentenceRun(5, 6)

	w := NewWordOverlap()
	maxWords := 40
	got := w.Chunk(text, maxWords, "")

	if len(got) < 3 {
		t.Fatalf("Expected hard-split groups plus a tail, got %d passages", len(got))
	}
	// Hard-split groups are exactly maxWords words and contiguous, no
	// duplicated words between them.
	if wordCount(got[0]) != maxWords {
		t.Errorf("First hard-split group has %d words, want %d", wordCount(got[0]), maxWords)
	}
	if k := overlapWords(strings.Fields(got[0]), strings.Fields(got[1]), maxOverlapWords(maxWords)); k != 0 {
		t.Errorf("Hard-split groups should not overlap, got %d shared words", k)
	}
}

// TestWordOverlap_NoTerminator verifies text without sentence punctuation
// is treated as a single sentence.
func TestWordOverlap_NoTerminator(t *testing.T) {
	words := make([]string, 35)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	w := NewWordOverlap()
	got := w.Chunk(strings.Join(words, " "), 100, "")

	if len(got) != 1 {
		t.Fatalf("Expected 1 passage, got %d", len(got))
	}
	if wordCount(got[0]) != 35 {
		t.Errorf("Expected all 35 words in one passage, got %d", wordCount(got[0]))
	}
}

// TestWordOverlap_TitleIgnored verifies the title argument never shows up
// in output.
func TestWordOverlap_TitleIgnored(t *testing.T) {
	w := NewWordOverlap()
	for _, p := range w.Chunk(sentenceRun(10, 8), 30, "The Title") {
		if strings.Contains(p, TitleDelimiter) || strings.Contains(p, "The Title") {
			t.Errorf("Title leaked into passage: %q", p)
		}
	}
}

// TestWordOverlap_EmptyInput verifies empty and whitespace-only inputs
// produce no passages.
func TestWordOverlap_EmptyInput(t *testing.T) {
	w := NewWordOverlap()
	if got := w.Chunk("", 40, ""); len(got) != 0 {
		t.Errorf("Empty input: expected 0 passages, got %d", len(got))
	}
	if got := w.Chunk(" \t\n ", 40, ""); len(got) != 0 {
		t.Errorf("Whitespace input: expected 0 passages, got %d", len(got))
	}
}
