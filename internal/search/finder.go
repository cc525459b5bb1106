package search

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"marketview/internal/domain"
	"marketview/internal/metrics"
	"marketview/internal/snapshot"
)

// MaxResults caps every result list.
const MaxResults = 8

const cacheSize = 512

var ErrUnknownSource = errors.New("unknown search source")

// Match is one field of a record that matched, with the matched rune spans
// (end inclusive) inside Value.
type Match struct {
	Field   string   `json:"field"`
	Value   string   `json:"value"`
	Indices [][2]int `json:"indices"`
}

type Result struct {
	Record  Record  `json:"item"`
	Score   float64 `json:"score"`
	Matches []Match `json:"matches"`
}

// Source describes a searchable dataset.
type Source struct {
	Key         string
	Label       string
	Placeholder string
}

// Index is the folded form of one source's records, built once.
type Index struct {
	Source  Source
	records []Record
	folded  [][][]rune
}

func NewIndex(src Source, records []Record) *Index {
	idx := &Index{Source: src, records: records, folded: make([][][]rune, len(records))}
	for i, r := range records {
		f := make([][]rune, len(fields))
		for k, name := range fields {
			f[k] = fold(r.field(name))
		}
		idx.folded[i] = f
	}
	return idx
}

type candidate struct {
	pos      int
	score    float64
	exact    int
	fieldLen int
	matches  []Match
}

// Search ranks records by their best field score, then by exact field
// equality (title before the rest), then by shorter matched field, then by
// index order.
func (x *Index) Search(query string) []Result {
	q := strings.TrimSpace(query)
	if q == "" {
		return []Result{}
	}
	pattern := fold(q)

	var cands []candidate
	for i, rec := range x.records {
		c := candidate{pos: i, score: 2, exact: 2}
		for k, name := range fields {
			text := x.folded[i][k]
			sp, ok := approxMatch(pattern, text)
			if !ok {
				continue
			}
			score := float64(sp.errs) / float64(len(pattern))
			if score > Threshold {
				continue
			}
			c.matches = append(c.matches, Match{
				Field:   name,
				Value:   rec.field(name),
				Indices: [][2]int{{sp.start, sp.end}},
			})
			if slices.Equal(text, pattern) {
				ex := 1
				if name == FieldTitle {
					ex = 0
				}
				c.exact = min(c.exact, ex)
			}
			if score < c.score || (score == c.score && len(text) < c.fieldLen) {
				c.score, c.fieldLen = score, len(text)
			}
		}
		if len(c.matches) > 0 {
			cands = append(cands, c)
		}
	}

	slices.SortStableFunc(cands, func(a, b candidate) int {
		switch {
		case a.score != b.score:
			return cmpFloat(a.score, b.score)
		case a.exact != b.exact:
			return a.exact - b.exact
		case a.fieldLen != b.fieldLen:
			return a.fieldLen - b.fieldLen
		default:
			return a.pos - b.pos
		}
	})

	n := min(len(cands), MaxResults)
	out := make([]Result, n)
	for i, c := range cands[:n] {
		out[i] = Result{Record: x.records[c.pos], Score: c.score, Matches: c.matches}
	}
	return out
}

func cmpFloat(a, b float64) int {
	if a < b {
		return -1
	}
	return 1
}

// Finder serves searches over several indexes and memoises results.
type Finder struct {
	order   []string
	indexes map[string]*Index
	cache   *lru.Cache[string, []Result]
	metrics *metrics.Metrics
}

func NewFinder(m *metrics.Metrics, indexes ...*Index) (*Finder, error) {
	cache, err := lru.New[string, []Result](cacheSize)
	if err != nil {
		return nil, err
	}
	f := &Finder{indexes: make(map[string]*Index, len(indexes)), cache: cache, metrics: m}
	for _, idx := range indexes {
		key := idx.Source.Key
		if _, dup := f.indexes[key]; dup || key == "" {
			return nil, fmt.Errorf("search source %q: empty or duplicate key", key)
		}
		f.indexes[key] = idx
		f.order = append(f.order, key)
	}
	return f, nil
}

// Sources used by the search bar.
var (
	JumiaSource = Source{Key: string(domain.Jumia), Label: "Jumia", Placeholder: "Search Jumia deals…"}
	CarsSource  = Source{Key: string(domain.Cars), Label: "CoinAfrique Cars", Placeholder: "Search cars, sellers, locations…"}
)

// FromSnapshot indexes both datasets of a snapshot, Jumia first.
func FromSnapshot(set snapshot.Set, m *metrics.Metrics) (*Finder, error) {
	return NewFinder(m,
		NewIndex(JumiaSource, FromJumia(set.Jumia)),
		NewIndex(CarsSource, FromCars(set.Cars)),
	)
}

// Sources lists the indexed sources in registration order.
func (f *Finder) Sources() []Source {
	out := make([]Source, 0, len(f.order))
	for _, k := range f.order {
		out = append(out, f.indexes[k].Source)
	}
	return out
}

// DefaultSource is the first registered source.
func (f *Finder) DefaultSource() string {
	if len(f.order) == 0 {
		return ""
	}
	return f.order[0]
}

func (f *Finder) HasSource(key string) bool {
	_, ok := f.indexes[key]
	return ok
}

// Search returns at most MaxResults ranked results. The returned slice is
// shared with the cache and must not be modified.
func (f *Finder) Search(source, query string) ([]Result, error) {
	idx, ok := f.indexes[source]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSource, source)
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return []Result{}, nil
	}
	key := source + "\x00" + q
	if res, ok := f.cache.Get(key); ok {
		f.metrics.ObserveSearch(source, true)
		return res, nil
	}
	res := idx.Search(q)
	f.cache.Add(key, res)
	f.metrics.ObserveSearch(source, false)
	return res, nil
}
