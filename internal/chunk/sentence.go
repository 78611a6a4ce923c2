package chunk

import "strings"

// sentenceTerminators are the characters that end a sentence for the
// sentence splitter, including common Unicode terminators.
const sentenceTerminators = ".!?…。！？"

// SentenceSplitter packs whole sentences into passages of at most maxWords
// words. It works one page at a time: passages never span two pages, and
// each passage is tagged with the page it came from. When a title is given
// it is prepended to every passage behind TitleDelimiter.
type SentenceSplitter struct{}

// NewSentenceSplitter creates a page-local sentence-packing chunker.
func NewSentenceSplitter() *SentenceSplitter {
	return &SentenceSplitter{}
}

// Chunk splits one block of text into passages. Sentences are packed
// greedily: when adding the next sentence would push the passage past
// maxWords the passage is flushed and a new one begins. A single sentence
// longer than maxWords is hard-split into fixed word groups instead.
func (s *SentenceSplitter) Chunk(text string, maxWords int, title string) []string {
	text = normalizeWhitespace(text)
	if text == "" || maxWords <= 0 {
		return nil
	}

	var out []string
	emit := func(passage string) {
		if title != "" {
			passage = title + TitleDelimiter + passage
		}
		out = append(out, passage)
	}

	var buf []string
	bufWords := 0
	flush := func() {
		if len(buf) == 0 {
			return
		}
		emit(strings.Join(buf, " "))
		buf = buf[:0]
		bufWords = 0
	}

	for _, sent := range splitSentences(text, sentenceTerminators) {
		n := wordCount(sent)
		if n > maxWords {
			// Oversized sentence: no sentence-boundary guarantee here,
			// cut it into fixed word groups.
			flush()
			for _, group := range splitWordGroups(strings.Fields(sent), maxWords) {
				emit(group)
			}
			continue
		}
		if bufWords+n > maxWords {
			flush()
		}
		buf = append(buf, sent)
		bufWords += n
	}
	flush()
	return out
}

// ProcessDocument chunks each page independently, in page order.
func (s *SentenceSplitter) ProcessDocument(pages PageText, maxWords int, title string) []Passage {
	var out []Passage
	for _, page := range sortedPages(pages) {
		for _, text := range s.Chunk(pages[page], maxWords, title) {
			out = append(out, Passage{Page: page, Text: text})
		}
	}
	return out
}

var _ Chunker = (*SentenceSplitter)(nil)
