package chunk

import "strings"

// pageMarker records the word offset at which a page's content begins in
// the concatenated document stream. Empty pages still get a marker at
// their position, so attribution cannot drift past them.
type pageMarker struct {
	wordOffset int
	page       int
}

// concatPages joins all pages in page order into one whitespace-normalized
// stream and returns one marker per page.
func concatPages(pages PageText) (string, []pageMarker) {
	var b strings.Builder
	markers := make([]pageMarker, 0, len(pages))
	offset := 0
	for _, page := range sortedPages(pages) {
		text := normalizeWhitespace(pages[page])
		markers = append(markers, pageMarker{wordOffset: offset, page: page})
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
		offset += wordCount(text)
	}
	return b.String(), markers
}

// pageAt maps a word offset in the concatenated stream to the page that
// word belongs to: the last marker whose offset is ≤ the given offset.
// Markers are already sorted by page number.
func pageAt(markers []pageMarker, offset int) int {
	page := 0
	for _, m := range markers {
		if m.wordOffset > offset {
			break
		}
		page = m.page
	}
	return page
}

// overlapWords computes the word-level overlap between the end of the
// previous passage and the start of the current one: the longest k such
// that the last k words of prev equal the first k words of cur, scanning
// from the largest plausible k down to 1. maxOverlap bounds the search to
// the strategy's overlap size plus tolerance.
func overlapWords(prev, cur []string, maxOverlap int) int {
	k := maxOverlap
	if k > len(prev) {
		k = len(prev)
	}
	if k > len(cur) {
		k = len(cur)
	}
	for ; k >= 1; k-- {
		match := true
		for i := 0; i < k; i++ {
			if prev[len(prev)-k+i] != cur[i] {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}
