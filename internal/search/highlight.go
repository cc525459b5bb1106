package search

import "slices"

// Segment is a run of text, marked when it was matched.
type Segment struct {
	Text string
	Mark bool
}

// Highlight splits text along rune spans (end inclusive). Out-of-range spans
// are clamped and overlapping spans merged.
func Highlight(text string, spans [][2]int) []Segment {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(spans) == 0 {
		return []Segment{{Text: text}}
	}

	sorted := make([][2]int, 0, len(spans))
	for _, s := range spans {
		lo, hi := max(0, s[0]), min(len(runes)-1, s[1])
		if lo <= hi {
			sorted = append(sorted, [2]int{lo, hi})
		}
	}
	slices.SortFunc(sorted, func(a, b [2]int) int { return a[0] - b[0] })

	var merged [][2]int
	for _, s := range sorted {
		if n := len(merged); n > 0 && s[0] <= merged[n-1][1]+1 {
			merged[n-1][1] = max(merged[n-1][1], s[1])
			continue
		}
		merged = append(merged, s)
	}

	var out []Segment
	last := 0
	for _, s := range merged {
		if s[0] > last {
			out = append(out, Segment{Text: string(runes[last:s[0]])})
		}
		out = append(out, Segment{Text: string(runes[s[0] : s[1]+1]), Mark: true})
		last = s[1] + 1
	}
	if last < len(runes) {
		out = append(out, Segment{Text: string(runes[last:])})
	}
	return out
}

// HighlightField returns the segments of one matched field of r, or the
// plain field when it did not match.
func (r Result) HighlightField(name string) []Segment {
	for _, m := range r.Matches {
		if m.Field == name {
			return Highlight(m.Value, m.Indices)
		}
	}
	return Highlight(r.Record.field(name), nil)
}
