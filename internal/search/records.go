// Package search is the typo-tolerant product finder behind the search bar.
// Each source is indexed once from the static snapshot, never from the store.
package search

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"marketview/internal/catalog"
	"marketview/internal/domain"
	"marketview/internal/snapshot"
)

// Record is the searchable shape shared by every source.
type Record struct {
	ID            string          `json:"id"`
	Category      domain.Category `json:"category"`
	Title         string          `json:"title"`
	Subtitle      string          `json:"subtitle"`
	Description   string          `json:"description"`
	Brand         string          `json:"brand"`
	Extra         string          `json:"extra,omitempty"`
	Price         *float64        `json:"price"`
	CategoryValue string          `json:"categoryValue"`
	ImageURL      string          `json:"imageUrl"`
}

// Searchable field names, in the order they are matched.
const (
	FieldTitle    = "title"
	FieldSubtitle = "subtitle"
	FieldBrand    = "brand"
	FieldExtra    = "extra"
)

var fields = []string{FieldTitle, FieldSubtitle, FieldBrand, FieldExtra}

func (r Record) field(name string) string {
	switch name {
	case FieldTitle:
		return r.Title
	case FieldSubtitle:
		return r.Subtitle
	case FieldBrand:
		return r.Brand
	case FieldExtra:
		return r.Extra
	}
	return ""
}

const joiner = " · "

// FromJumia shapes Jumia snapshot rows into search records.
func FromJumia(rows []snapshot.JumiaRecord) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		brand, name := row.BrandName.String(), row.ProductName.String()

		var extra []string
		if d := row.Discount.String(); d != "" {
			extra = append(extra, d+" off")
		}
		if r := row.ReviewsRating.String(); r != "" {
			extra = append(extra, "⭐ "+r)
		}
		if n := row.ReviewsCount.String(); n != "" {
			extra = append(extra, n+" avis")
		}

		out = append(out, Record{
			ID:            row.ID.String(),
			Category:      domain.Jumia,
			Title:         first(brand, name, "Produit Jumia"),
			Subtitle:      first(name, brand),
			Description:   name,
			Brand:         first(brand, "Jumia"),
			Extra:         strings.Join(extra, joiner),
			Price:         parsePrice(row.Price),
			CategoryValue: first(brand, "Autres"),
			ImageURL:      row.ImageURL.String(),
		})
	}
	return out
}

// FromCars shapes CoinAfrique snapshot rows into search records.
func FromCars(rows []snapshot.CarRecord) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		brand, model := row.Brand.String(), row.Model.String()

		var sub []string
		if l := row.Location.String(); l != "" {
			sub = append(sub, l)
		}
		if y := row.Year.String(); y != "" {
			sub = append(sub, "Année "+y)
		}

		title := strings.TrimSpace(strings.Join(nonEmpty(brand, model), " "))
		out = append(out, Record{
			ID:            row.ID.String(),
			Category:      domain.Cars,
			Title:         first(title, "Annonce CoinAfrique"),
			Subtitle:      strings.Join(sub, joiner),
			Description:   model,
			Brand:         first(brand, "Autres"),
			Extra:         row.SellerName.String(),
			Price:         parsePrice(row.Price),
			CategoryValue: first(brand, "Autres"),
			ImageURL:      row.ImageURL.String(),
		})
	}
	return out
}

// parsePrice reads the first amount in the text. Null is no price; text
// without any digit, or an amount too large for a float, reads as zero.
func parsePrice(t snapshot.Text) *float64 {
	if !t.Valid {
		return nil
	}
	zero := 0.0
	amount := catalog.LeadingAmount(t.Value)
	if amount == "" {
		return &zero
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return &zero
	}
	return &f
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(vals ...string) []string {
	out := vals[:0:0]
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
