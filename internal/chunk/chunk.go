// Package chunk splits extracted book text into retrieval-sized passages.
//
// Two strategies are provided: SentenceSplitter packs whole sentences into
// page-local passages, WordOverlap packs sentences across page boundaries
// and carries a word-level overlap between consecutive passages.
package chunk

import (
	"sort"
	"strings"
)

// PageText maps 1-based page numbers to the text extracted for each page.
// Pages may be empty strings.
type PageText map[int]string

// Passage is one retrieval-sized unit of text tagged with the page it
// starts on.
type Passage struct {
	Page int
	Text string
}

// Chunker turns raw text into passages.
type Chunker interface {
	// Chunk splits a single block of text into passages of at most
	// maxWords words (strategy tolerances apply, see implementations).
	Chunk(text string, maxWords int, title string) []string

	// ProcessDocument chunks a whole document's pages and tags each
	// passage with its starting page.
	ProcessDocument(pages PageText, maxWords int, title string) []Passage
}

// TitleDelimiter separates a prepended book title from passage text, so
// consumers can strip the title back out before display.
const TitleDelimiter = "##title##"

// StripTitle splits a passage into its prepended title (if any) and body.
func StripTitle(text string) (title, body string) {
	if i := strings.Index(text, TitleDelimiter); i >= 0 {
		return text[:i], text[i+len(TitleDelimiter):]
	}
	return "", text
}

// normalizeWhitespace collapses runs of whitespace to single spaces and
// trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// splitSentences splits text into sentences, keeping each terminator
// attached to its sentence. Runs of terminators ("?!", "...") stay with
// the sentence they end. Text with no terminator is one sentence.
func splitSentences(text, terminators string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(terminators, runes[i]) {
			continue
		}
		for i+1 < len(runes) && strings.ContainsRune(terminators, runes[i+1]) {
			i++
		}
		if sent := strings.TrimSpace(string(runes[start : i+1])); sent != "" {
			out = append(out, sent)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

// splitWordGroups cuts words into consecutive groups of at most size words.
func splitWordGroups(words []string, size int) []string {
	if size <= 0 || len(words) == 0 {
		return nil
	}
	out := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}

// sortedPages returns the page numbers of a document in ascending order.
func sortedPages(pages PageText) []int {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}
