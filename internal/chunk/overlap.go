package chunk

import (
	"math"
	"strings"
)

// overlapTerminators are the sentence enders recognized by the
// cross-page strategy.
const overlapTerminators = ".!?"

const (
	// overlapRatio sets the overlap size relative to the target passage
	// size: round(0.125 × target) words (target 400 → 50).
	overlapRatio = 0.125

	// overlapTolerance bounds how much trailing content may be carried
	// into the next passage: combined seed words ≤ overlap × 1.2.
	overlapTolerance = 1.2

	// packTolerance lets a passage run up to target × 1.1 words before
	// it must flush.
	packTolerance = 1.1

	// tinyInputWords is the threshold under which sentence packing
	// degenerates; smaller inputs fall back to fixed word groups.
	tinyInputWords = 30

	// minGroupWords floors the group size used by the tiny-input
	// fallback so a very small maxWords cannot shred a short text into
	// one passage per word.
	minGroupWords = 12
)

// WordOverlap packs sentences into passages of roughly maxWords words and
// seeds each passage with the trailing sentences of the previous one, so
// consecutive passages share context at their boundary. Documents are
// chunked as a single text stream across all pages; the reported page for
// each passage is the page its first word falls on. The title argument is
// ignored by this strategy.
type WordOverlap struct{}

// NewWordOverlap creates a cross-page overlapping chunker.
func NewWordOverlap() *WordOverlap {
	return &WordOverlap{}
}

// overlapWordTarget is the number of words carried between consecutive
// passages for a given target passage size.
func overlapWordTarget(maxWords int) int {
	return int(math.Round(float64(maxWords) * overlapRatio))
}

// maxOverlapWords is the largest overlap the strategy will ever produce
// for a given target size, including tolerance.
func maxOverlapWords(maxWords int) int {
	return int(float64(overlapWordTarget(maxWords)) * overlapTolerance)
}

// Chunk splits one text stream into overlapping passages.
func (w *WordOverlap) Chunk(text string, maxWords int, _ string) []string {
	text = normalizeWhitespace(text)
	if maxWords <= 0 {
		return nil
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	if len(words) < tinyInputWords {
		// Sentence packing on a handful of words produces degenerate
		// micro-chunks; plain word groups are good enough here.
		size := maxWords
		if size < minGroupWords {
			size = minGroupWords
		}
		return splitWordGroups(words, size)
	}

	limit := int(float64(maxWords) * packTolerance)
	seedBound := maxOverlapWords(maxWords)

	var (
		out      []string
		buf      []string // sentences in the pending passage
		bufWords int
		seeded   int // leading sentences of buf carried over as overlap
	)

	reset := func() {
		buf = buf[:0]
		bufWords = 0
		seeded = 0
	}

	// flush emits the pending passage and, when withOverlap is set,
	// seeds the next passage with trailing sentences whose combined
	// word count stays within seedBound. A buffer holding nothing but
	// carried-over seed is discarded, never re-emitted.
	flush := func(withOverlap bool) {
		if len(buf) <= seeded {
			reset()
			return
		}
		out = append(out, strings.Join(buf, " "))
		if !withOverlap {
			reset()
			return
		}
		var kept []string
		keptWords := 0
		for j := len(buf) - 1; j >= 0; j-- {
			n := wordCount(buf[j])
			if keptWords+n > seedBound {
				break
			}
			kept = append([]string{buf[j]}, kept...)
			keptWords += n
		}
		buf = kept
		bufWords = keptWords
		seeded = len(kept)
	}

	for _, sent := range splitSentences(text, overlapTerminators) {
		n := wordCount(sent)
		if n > limit {
			// Hard split: flush whatever is pending, then cut the
			// sentence into fixed groups. Hard-split passages never
			// carry overlap, there is no sentence boundary to seed from.
			flush(false)
			out = append(out, splitWordGroups(strings.Fields(sent), maxWords)...)
			continue
		}
		if bufWords+n > limit {
			flush(true)
			// Shrink the seed if the incoming sentence would not fit
			// next to it.
			for seeded > 0 && bufWords+n > limit {
				bufWords -= wordCount(buf[0])
				buf = buf[1:]
				seeded--
			}
		}
		buf = append(buf, sent)
		bufWords += n
	}
	flush(false)
	return out
}

// ProcessDocument concatenates all pages in page order, chunks the full
// stream, and attributes each passage back to the page its first word
// falls on.
func (w *WordOverlap) ProcessDocument(pages PageText, maxWords int, _ string) []Passage {
	stream, markers := concatPages(pages)
	chunks := w.Chunk(stream, maxWords, "")
	if len(chunks) == 0 {
		return nil
	}

	bound := maxOverlapWords(maxWords)
	out := make([]Passage, 0, len(chunks))
	offset := 0
	var prev []string
	for i, text := range chunks {
		cur := strings.Fields(text)
		if i > 0 {
			k := overlapWords(prev, cur, bound)
			offset += len(prev) - k
		}
		out = append(out, Passage{Page: pageAt(markers, offset), Text: text})
		prev = cur
	}
	return out
}

var _ Chunker = (*WordOverlap)(nil)
