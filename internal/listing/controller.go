// Package listing holds the state of a category listing view: price filter,
// sort order and pagination over the products loaded for one category.
package listing

import (
	"math"
	"slices"
	"sync"

	"marketview/internal/domain"
)

// PageSize is the number of products shown per page.
const PageSize = 24

// minGap is the smallest distance kept between the two ends of the price range.
const minGap = 1.0

type SortKey string

const (
	SortNone      SortKey = "none"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortReviews   SortKey = "reviews"
)

// ParseSortKey maps unknown input to SortNone.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortPriceAsc, SortPriceDesc, SortReviews:
		return k
	default:
		return SortNone
	}
}

// Range is a closed price interval.
type Range struct {
	Min float64
	Max float64
}

// View is the derived, displayable state.
type View struct {
	Items     []domain.Product
	Total     int
	Page      int
	PageCount int
	Pages     []PageLink
	Bounds    Range
	Range     Range
	Sort      SortKey
}

// Controller is the state machine behind a listing view. It is safe for
// concurrent use; fetch completions may race with user edits.
type Controller struct {
	mu       sync.Mutex
	category domain.Category
	reviews  bool
	raw      []domain.Product
	bounds   Range
	rng      Range
	sort     SortKey
	page     int

	gen     uint64
	current *Fetch
}

func NewController(cat domain.Category, reviewsSupported bool) *Controller {
	return &Controller{category: cat, reviews: reviewsSupported, sort: SortNone, page: 1}
}

// SetCategory switches the view to another category. The page resets and a
// reviews sort is dropped when the new category has no review counts.
func (c *Controller) SetCategory(cat domain.Category, reviewsSupported bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cat != c.category {
		c.page = 1
	}
	c.category, c.reviews = cat, reviewsSupported
	c.sort = c.coerceSort(c.sort)
}

// OnLoad replaces the products and recomputes the bounds; the range opens to
// the full bounds.
func (c *Controller) OnLoad(products []domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(products)
}

func (c *Controller) load(products []domain.Product) {
	c.raw = products
	c.bounds = priceBounds(products)
	c.rng = c.bounds
	c.page = 1
}

// SetMin moves the lower end, clamped to the bounds and below the upper end.
func (c *Controller) SetMin(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setMin(v)
	c.page = 1
}

// SetMax moves the upper end, clamped to the bounds and above the lower end.
func (c *Controller) SetMax(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setMax(v)
	c.page = 1
}

// OnFilterChange applies both ends of r, moving the end that would otherwise
// collide first.
func (c *Controller) OnFilterChange(r Range) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.Min > c.rng.Max {
		c.setMax(r.Max)
		c.setMin(r.Min)
	} else {
		c.setMin(r.Min)
		c.setMax(r.Max)
	}
	c.page = 1
}

func (c *Controller) setMin(v float64) {
	if !finite(v) || c.degenerate() {
		return
	}
	next := math.Min(v, c.rng.Max-minGap)
	c.rng.Min = math.Max(c.bounds.Min, next)
}

func (c *Controller) setMax(v float64) {
	if !finite(v) || c.degenerate() {
		return
	}
	next := math.Max(v, c.rng.Min+minGap)
	c.rng.Max = math.Min(c.bounds.Max, next)
}

// degenerate bounds leave no room for a gap; the range stays equal to them.
func (c *Controller) degenerate() bool {
	return c.bounds.Max-c.bounds.Min < minGap
}

// OnSortChange sets the sort key; keys the category cannot honour become SortNone.
func (c *Controller) OnSortChange(k SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = c.coerceSort(k)
}

func (c *Controller) coerceSort(k SortKey) SortKey {
	k = ParseSortKey(string(k))
	if k == SortReviews && !c.reviews {
		return SortNone
	}
	return k
}

// SetPage selects a 1-indexed page; Derive clamps it to the page count.
func (c *Controller) SetPage(p int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p < 1 {
		p = 1
	}
	c.page = p
}

// Reset clears sort and filter.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = SortNone
	c.rng = c.bounds
	c.page = 1
}

// Range returns the active price range.
func (c *Controller) Range() Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng
}

// Bounds returns the min/max price of the loaded products.
func (c *Controller) Bounds() Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bounds
}

// Derive filters, sorts and paginates without touching the loaded slice.
func (c *Controller) Derive() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := Filter(c.raw, c.rng)
	sorted := Sort(filtered, c.sort)
	pageCount := PageCount(len(sorted))

	page := c.page
	if page > pageCount {
		page = pageCount
	}
	if page < 1 {
		page = 1
	}

	return View{
		Items:     Paginate(sorted, page),
		Total:     len(sorted),
		Page:      page,
		PageCount: pageCount,
		Pages:     PageLinks(page, pageCount),
		Bounds:    c.bounds,
		Range:     c.rng,
		Sort:      c.sort,
	}
}

// Filter keeps products whose price lies within r. The input is not modified.
func Filter(products []domain.Product, r Range) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Price >= r.Min && p.Price <= r.Max {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a stably sorted copy of products.
func Sort(products []domain.Product, k SortKey) []domain.Product {
	out := slices.Clone(products)
	switch k {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmpFloat(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmpFloat(b.Price, a.Price) })
	case SortReviews:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return reviews(b) - reviews(a) })
	}
	return out
}

// PageCount is the number of pages needed for n items.
func PageCount(n int) int {
	return (n + PageSize - 1) / PageSize
}

// Paginate returns the window of a 1-indexed page.
func Paginate(products []domain.Product, page int) []domain.Product {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start >= len(products) {
		return []domain.Product{}
	}
	end := min(start+PageSize, len(products))
	return products[start:end]
}

func priceBounds(products []domain.Product) Range {
	if len(products) == 0 {
		return Range{}
	}
	b := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range products {
		b.Min = math.Min(b.Min, p.Price)
		b.Max = math.Max(b.Max, p.Price)
	}
	return b
}

func reviews(p domain.Product) int {
	if p.ReviewsCount == nil {
		return 0
	}
	return *p.ReviewsCount
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
