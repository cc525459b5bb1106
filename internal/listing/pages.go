package listing

// PageLink is one entry of the pagination bar: a page number or a gap.
type PageLink struct {
	Number   int
	Ellipsis bool
	Current  bool
}

// PageLinks lays out the pagination bar. Up to five pages are all shown;
// beyond that the first and last page are always present, with up to three
// pages around the current one and an ellipsis for each hidden run.
func PageLinks(current, count int) []PageLink {
	if count <= 0 {
		return nil
	}
	num := func(n int) PageLink { return PageLink{Number: n, Current: n == current} }

	if count <= 5 {
		out := make([]PageLink, 0, count)
		for i := 1; i <= count; i++ {
			out = append(out, num(i))
		}
		return out
	}

	lo := max(2, current-1)
	hi := min(count-1, current+1)

	out := []PageLink{num(1)}
	if lo > 2 {
		out = append(out, PageLink{Ellipsis: true})
	}
	for i := lo; i <= hi; i++ {
		out = append(out, num(i))
	}
	if hi < count-1 {
		out = append(out, PageLink{Ellipsis: true})
	}
	return append(out, num(count))
}
