package catalog

import (
	"database/sql"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"marketview/internal/domain"
)

const (
	separator = " • "

	carPlaceholderName  = "Vehicle listing"
	carPlaceholderDesc  = "Vehicle sourced from CoinAfrique listings"
	carPlaceholderImage = "https://via.placeholder.com/600x400?text=Vehicle"

	jumiaPlaceholderName  = "Jumia product"
	jumiaPlaceholderDesc  = "Popular item sourced from Jumia listings"
	jumiaPlaceholderImage = "https://via.placeholder.com/600x400?text=Product"
)

// CarRow is the raw projection of coin_afrique_cars.
type CarRow struct {
	SourceID   sql.NullString `db:"source_id"`
	Brand      sql.NullString `db:"brand"`
	Model      sql.NullString `db:"model"`
	SellerName sql.NullString `db:"seller_name"`
	Location   sql.NullString `db:"location"`
	Price      sql.NullString `db:"price"`
	ImageURL   sql.NullString `db:"image_url"`
	Year       sql.NullString `db:"year"`
}

// JumiaRow is the raw projection of jumia_products.
type JumiaRow struct {
	SourceID      sql.NullString `db:"source_id"`
	BrandName     sql.NullString `db:"brand_name"`
	ProductName   sql.NullString `db:"product_name"`
	Price         sql.NullString `db:"price"`
	Discount      sql.NullString `db:"discount"`
	ReviewsRating sql.NullString `db:"reviews_rating"`
	ReviewsCount  sql.NullString `db:"reviews_count"`
	ImageURL      sql.NullString `db:"image_url"`
}

// NormalizeCar maps a car row to a product. It never fails.
func NormalizeCar(r CarRow) domain.Product {
	brand, model := present(r.Brand), present(r.Model)
	location, seller, year := present(r.Location), present(r.SellerName), present(r.Year)

	name := strings.Join(strings.Fields(strings.Join(nonEmpty(brand, model), " ")), " ")
	if name == "" {
		name = carPlaceholderName
	}

	var details []string
	if year != "" {
		details = append(details, "Year: "+year)
	}
	if location != "" {
		details = append(details, "Location: "+location)
	}
	if seller != "" {
		details = append(details, "Seller: "+seller)
	}

	return domain.Product{
		ID:          present(r.SourceID),
		Name:        name,
		Description: joinOr(details, carPlaceholderDesc),
		Price:       ParsePrice(r.Price.String),
		ImageURL:    orDefault(present(r.ImageURL), carPlaceholderImage),
		Category:    domain.Cars,
		Brand:       optional(brand),
		Model:       optional(model),
		Location:    optional(location),
		SellerName:  optional(seller),
		Year:        parseYear(year),
	}
}

// NormalizeJumia maps a Jumia row to a product. It never fails.
func NormalizeJumia(r JumiaRow) domain.Product {
	brand, product := present(r.BrandName), present(r.ProductName)
	discount, rating, reviews := present(r.Discount), present(r.ReviewsRating), present(r.ReviewsCount)

	name := product
	if name == "" {
		name = brand
	}
	if name == "" {
		name = jumiaPlaceholderName
	}

	var details []string
	if brand != "" {
		details = append(details, "Brand: "+brand)
	}
	if discount != "" {
		details = append(details, "Discount: "+discount)
	}
	if rating != "" {
		details = append(details, "Rating: "+rating)
	}
	if reviews != "" {
		details = append(details, reviews+" reviews")
	}

	return domain.Product{
		ID:            present(r.SourceID),
		Name:          name,
		Description:   joinOr(details, jumiaPlaceholderDesc),
		Price:         ParsePrice(r.Price.String),
		ImageURL:      orDefault(present(r.ImageURL), jumiaPlaceholderImage),
		Category:      domain.Jumia,
		Brand:         optional(brand),
		Discount:      optional(discount),
		ReviewsRating: optional(rating),
		ReviewsCount:  ParseCount(reviews),
	}
}

// ParsePrice coerces scraped price text to a non-negative number, 0 when unparsable.
func ParsePrice(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		d, err = decimal.NewFromString(LeadingAmount(text))
		if err != nil {
			return 0
		}
	}
	if d.IsNegative() {
		return 0
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// LeadingAmount returns the first number in text as digits and dots, with
// thousands separators inside it dropped. "12,500 - 15,000 FCFA" gives "12500".
func LeadingAmount(text string) string {
	start := strings.IndexFunc(text, isDigit)
	if start < 0 {
		return ""
	}
	rs := []rune(text[start:])
	var b strings.Builder
	for i, r := range rs {
		switch {
		case isDigit(r) || r == '.':
			b.WriteRune(r)
		case isGroupSeparator(r) && i+1 < len(rs) && isDigit(rs[i+1]):
		default:
			return b.String()
		}
	}
	return b.String()
}

// ParseCount extracts the digits of text as an integer, nil when there are none.
func ParseCount(text string) *int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

func parseYear(text string) *int {
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil
	}
	return &n
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isGroupSeparator(r rune) bool {
	switch r {
	case ',', ' ', '\u00a0', '\u202f':
		return true
	}
	return false
}

func present(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return strings.TrimSpace(s.String)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinOr(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, separator)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
