package render

import "unicode/utf8"

// Fit renders in and keeps the result within maxLength runes. When the full
// rendering is too long, the document text is shortened on the tree (never
// inside markup) and the largest prefix whose rendering still fits is used;
// the inserted title and tags are kept. If even an empty body overflows, the
// full rendering is hard cut. A nil maxLength means no ceiling.
func Fit(e Emitter, in Input, maxLength *int) string {
	full := Render(e, in)
	if maxLength == nil || utf8.RuneCountInString(full) <= *maxLength {
		return full
	}
	limit := *maxLength

	fits := func(k int) (string, bool) {
		candidate := in
		candidate.Document = in.Document.TruncateText(k)
		out := Render(e, candidate)
		return out, utf8.RuneCountInString(out) <= limit
	}

	best, ok := fits(0)
	if !ok {
		return Truncate(full, limit)
	}
	lo, hi := 0, in.Document.TextLength()-1
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if out, ok := fits(mid); ok {
			best = out
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return best
}

// Truncate hard-cuts s to at most n runes. No ellipsis is added.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
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
