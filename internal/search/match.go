package search

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Threshold is the largest accepted share of edits per query rune.
const Threshold = 0.35

// fold lowercases s and strips diacritics rune by rune, so that positions in
// the folded text are positions in s.
func fold(s string) []rune {
	src := []rune(s)
	out := make([]rune, len(src))
	for i, r := range src {
		out[i] = foldRune(r)
	}
	return out
}

func foldRune(r rune) rune {
	r = unicode.ToLower(r)
	if r < unicode.MaxASCII {
		return r
	}
	for _, d := range norm.NFD.String(string(r)) {
		if !unicode.Is(unicode.Mn, d) {
			return d
		}
	}
	return r
}

// span is a matched window of text, in rune indices, end inclusive.
type span struct {
	errs       int
	start, end int
}

// approxMatch finds the window of text with the fewest edits against pattern.
// The window may start and end anywhere in text. ok is false when no window
// holds a single pattern rune.
func approxMatch(pattern, text []rune) (span, bool) {
	m, n := len(pattern), len(text)
	if m == 0 || n == 0 {
		return span{}, false
	}

	// cost[j] and from[j] describe row i: edits to align pattern[:i] ending at
	// text[:j], and where in text that alignment starts.
	prevCost, cost := make([]int, n+1), make([]int, n+1)
	prevFrom, from := make([]int, n+1), make([]int, n+1)
	for j := range prevCost {
		prevFrom[j] = j
	}

	for i := 1; i <= m; i++ {
		cost[0], from[0] = i, 0
		for j := 1; j <= n; j++ {
			sub := prevCost[j-1]
			if pattern[i-1] != text[j-1] {
				sub++
			}
			c, f := sub, prevFrom[j-1]
			if del := prevCost[j] + 1; del < c {
				c, f = del, prevFrom[j]
			}
			if ins := cost[j-1] + 1; ins < c {
				c, f = ins, from[j-1]
			}
			cost[j], from[j] = c, f
		}
		prevCost, cost = cost, prevCost
		prevFrom, from = from, prevFrom
	}

	best := span{errs: m + 1}
	for j := 1; j <= n; j++ {
		if prevCost[j] < best.errs && j > prevFrom[j] {
			best = span{errs: prevCost[j], start: prevFrom[j], end: j - 1}
		}
	}
	return best, best.errs <= m
}
