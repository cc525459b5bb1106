package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"marketview/internal/catalog"
	"marketview/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// Read runs the descriptor's list query, or its single-row lookup when id is set.
// The pooled connection is released when the rows are closed.
func (r *ProductRepo) Read(ctx context.Context, d catalog.Descriptor, id string) ([]domain.Product, error) {
	q := catalog.Build(d, id)
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(q.Text), q.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", d.Key(), err)
	}
	defer rows.Close()
	return d.Decode(ctx, rows)
}

func (r *ProductRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
