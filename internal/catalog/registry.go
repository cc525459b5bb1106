package catalog

import (
	"context"
	"fmt"
	"strings"

	"marketview/internal/domain"
	applog "marketview/internal/log"
)

// RowScanner is the subset of *sqlx.Rows a descriptor needs to decode a result set.
type RowScanner interface {
	Next() bool
	StructScan(dest any) error
	Err() error
}

// Descriptor describes one product source: where its rows live and how they
// become canonical products. Table and column names are trusted configuration.
type Descriptor interface {
	Key() domain.Category
	Table() string
	IDColumn() string
	Projection() []string
	DefaultOrder() string
	SupportsReviews() bool
	Decode(ctx context.Context, rows RowScanner) ([]domain.Product, error)
}

// source binds a raw row struct R to its normalizer.
type source[R any] struct {
	key        domain.Category
	table      string
	idColumn   string
	projection []string
	order      string
	reviews    bool
	normalize  func(R) domain.Product
}

func (s source[R]) Key() domain.Category  { return s.key }
func (s source[R]) Table() string         { return s.table }
func (s source[R]) IDColumn() string      { return s.idColumn }
func (s source[R]) DefaultOrder() string  { return s.order }
func (s source[R]) SupportsReviews() bool { return s.reviews }

func (s source[R]) Projection() []string {
	out := make([]string, len(s.projection))
	copy(out, s.projection)
	return out
}

// Decode normalizes every row. Rows without an id cannot be addressed and
// are skipped.
func (s source[R]) Decode(ctx context.Context, rows RowScanner) ([]domain.Product, error) {
	out := []domain.Product{}
	skipped := 0
	for rows.Next() {
		var r R
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("%s scan: %w", s.key, err)
		}
		p := s.normalize(r)
		if p.ID == "" {
			skipped++
			continue
		}
		out = append(out, p)
	}
	if skipped > 0 {
		applog.WarnCtx(ctx, "catalog.row_skipped", nil, map[string]any{"category": s.key, "reason": "missing id", "rows": skipped})
	}
	return out, rows.Err()
}

// Cars is the CoinAfrique car listings source.
var Cars Descriptor = source[CarRow]{
	key:      domain.Cars,
	table:    "coin_afrique_cars",
	idColumn: "coin_afrique_id",
	projection: []string{
		"coin_afrique_id AS source_id",
		"brand",
		"model",
		"seller_name",
		"location",
		"Price AS price",
		"image_url",
		"year",
	},
	order:     "brand ASC, model ASC",
	normalize: NormalizeCar,
}

// Jumia is the Jumia marketplace source.
var Jumia Descriptor = source[JumiaRow]{
	key:      domain.Jumia,
	table:    "jumia_products",
	idColumn: "jumia_product_id",
	projection: []string{
		"jumia_product_id AS source_id",
		"brand_name",
		"product_name",
		"Price AS price",
		"discount",
		"reviews_rating",
		"reviews_count",
		"image_url",
	},
	order:     "brand_name ASC, product_name ASC",
	reviews:   true,
	normalize: NormalizeJumia,
}

// Registry maps category keys to descriptors, keeping registration order.
type Registry struct {
	order []domain.Category
	byKey map[domain.Category]Descriptor
}

// NewRegistry builds a registry; keys must be unique and non-empty.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byKey: make(map[domain.Category]Descriptor, len(descs))}
	for _, d := range descs {
		if d.Key() == "" {
			return nil, fmt.Errorf("descriptor for table %q has an empty key", d.Table())
		}
		if _, dup := r.byKey[d.Key()]; dup {
			return nil, fmt.Errorf("duplicate category %q", d.Key())
		}
		r.byKey[d.Key()] = d
		r.order = append(r.order, d.Key())
	}
	return r, nil
}

// Default returns the registry of every shipped source.
func Default() *Registry {
	r, err := NewRegistry(Cars, Jumia)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve looks a key up with an exact, case-sensitive match.
func (r *Registry) Resolve(key string) (Descriptor, error) {
	if d, ok := r.byKey[domain.Category(key)]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w %q: must be one of: %s", domain.ErrUnknownCategory, key, r.keyList())
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []domain.Category {
	out := make([]domain.Category, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns the descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// InvalidCategoryMessage is the client-facing text for an unknown category.
func (r *Registry) InvalidCategoryMessage() string {
	return "Invalid category. Must be one of: " + r.keyList()
}

func (r *Registry) keyList() string {
	keys := make([]string, len(r.order))
	for i, k := range r.order {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}
