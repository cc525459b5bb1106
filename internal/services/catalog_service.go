package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"marketview/internal/catalog"
	"marketview/internal/domain"
	applog "marketview/internal/log"
	"marketview/internal/metrics"
)

// ProductReader is the storage side of the catalog: one read per descriptor,
// optionally narrowed to a single id.
type ProductReader interface {
	Read(ctx context.Context, d catalog.Descriptor, id string) ([]domain.Product, error)
	Ping(ctx context.Context) error
}

type CatalogService struct {
	Registry *catalog.Registry
	Prods    ProductReader
	Metrics  *metrics.Metrics
}

func NewCatalogService(reg *catalog.Registry, prods ProductReader, m *metrics.Metrics) *CatalogService {
	return &CatalogService{Registry: reg, Prods: prods, Metrics: m}
}

// AllProducts is the aggregate across categories. Failed lists the categories
// whose read did not succeed; their products are absent from Products.
type AllProducts struct {
	Products []domain.Product
	Failed   []domain.Category
}

// List returns every product of a category in the descriptor's default order.
func (s *CatalogService) List(ctx context.Context, key string) ([]domain.Product, error) {
	d, err := s.Registry.Resolve(key)
	if err != nil {
		return nil, err
	}
	return s.read(ctx, d, "")
}

// Get returns one product. Zero rows is ErrNotFound; duplicates are a data
// fault that is logged, and the first row wins.
func (s *CatalogService) Get(ctx context.Context, key, id string) (domain.Product, error) {
	d, err := s.Registry.Resolve(key)
	if err != nil {
		return domain.Product{}, err
	}
	rows, err := s.read(ctx, d, id)
	if err != nil {
		return domain.Product{}, err
	}
	switch len(rows) {
	case 0:
		return domain.Product{}, fmt.Errorf("%s/%s: %w", key, id, domain.ErrNotFound)
	case 1:
	default:
		applog.WarnCtx(ctx, "catalog.duplicate_id", nil, map[string]any{
			"category": key, "id": id, "rows": len(rows),
		})
	}
	return rows[0], nil
}

// ListAll reads every category concurrently. It only fails when every
// category fails; otherwise it returns what succeeded, in registry order.
func (s *CatalogService) ListAll(ctx context.Context) (AllProducts, error) {
	descs := s.Registry.Descriptors()
	results := make([][]domain.Product, len(descs))
	errs := make([]error, len(descs))

	// No shared context: one failing category must not cancel the others.
	var g errgroup.Group
	for i, d := range descs {
		i, d := i, d
		g.Go(func() error {
			results[i], errs[i] = s.read(ctx, d, "")
			return errs[i]
		})
	}

	var out AllProducts
	out.Products = []domain.Product{}
	if err := g.Wait(); err == nil {
		for _, r := range results {
			out.Products = append(out.Products, r...)
		}
		return out, nil
	}

	var failures []error
	for i, d := range descs {
		if errs[i] != nil {
			applog.ErrorCtx(ctx, "catalog.list_all.partial", errs[i], map[string]any{"category": d.Key()})
			out.Failed = append(out.Failed, d.Key())
			failures = append(failures, errs[i])
			continue
		}
		out.Products = append(out.Products, results[i]...)
	}
	if len(failures) == len(descs) {
		return AllProducts{}, errors.Join(failures...)
	}
	return out, nil
}

// Ping reports whether the store is reachable.
func (s *CatalogService) Ping(ctx context.Context) error {
	return s.Prods.Ping(ctx)
}

func (s *CatalogService) read(ctx context.Context, d catalog.Descriptor, id string) ([]domain.Product, error) {
	start := time.Now()
	rows, err := s.Prods.Read(ctx, d, id)
	if err != nil {
		s.Metrics.ObserveRead(string(d.Key()), "error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	s.Metrics.ObserveRead(string(d.Key()), "ok", time.Since(start))
	return rows, nil
}
