package catalog_test

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketview/internal/catalog"
	"marketview/internal/domain"
)

func ns(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestRegistryResolve(t *testing.T) {
	reg := catalog.Default()

	d, err := reg.Resolve("cars")
	require.NoError(t, err)
	assert.Equal(t, domain.Cars, d.Key())
	assert.False(t, d.SupportsReviews())

	d, err = reg.Resolve("jumia")
	require.NoError(t, err)
	assert.True(t, d.SupportsReviews())

	for _, bad := range []string{"Cars", "JUMIA", "", "cars ", "smartphones"} {
		_, err := reg.Resolve(bad)
		assert.True(t, errors.Is(err, domain.ErrUnknownCategory), "key %q", bad)
	}
	assert.Equal(t, []domain.Category{domain.Cars, domain.Jumia}, reg.Keys())
	assert.Equal(t, "Invalid category. Must be one of: cars, jumia", reg.InvalidCategoryMessage())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := catalog.NewRegistry(catalog.Cars, catalog.Jumia, catalog.Cars)
	require.Error(t, err)
}

func TestBuildList(t *testing.T) {
	q := catalog.Build(catalog.Cars, "")
	assert.Equal(t,
		"SELECT coin_afrique_id AS source_id, brand, model, seller_name, location, Price AS price, image_url, year FROM coin_afrique_cars ORDER BY brand ASC, model ASC",
		q.Text)
	assert.Empty(t, q.Args)
}

func TestBuildLookupBindsID(t *testing.T) {
	hostile := "1 OR 1=1; DROP TABLE jumia_products"
	q := catalog.Build(catalog.Jumia, hostile)

	assert.True(t, strings.HasSuffix(q.Text, "FROM jumia_products WHERE jumia_product_id = ?"))
	assert.NotContains(t, q.Text, "ORDER BY")
	assert.NotContains(t, q.Text, hostile)
	assert.Equal(t, []any{hostile}, q.Args)
}

func TestProjectionIsACopy(t *testing.T) {
	p := catalog.Cars.Projection()
	p[0] = "tampered"
	assert.Equal(t, "coin_afrique_id AS source_id", catalog.Cars.Projection()[0])
}

func TestNormalizeCar(t *testing.T) {
	p := catalog.NormalizeCar(catalog.CarRow{
		SourceID:   ns("42"),
		Brand:      ns("Toyota"),
		Model:      ns("  Corolla   LE "),
		SellerName: ns("Awa"),
		Location:   ns("Dakar"),
		Price:      ns("7 500 000 FCFA"),
		ImageURL:   ns("https://img/car.jpg"),
		Year:       ns("2015"),
	})

	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "Toyota Corolla LE", p.Name)
	assert.Equal(t, "Year: 2015 • Location: Dakar • Seller: Awa", p.Description)
	assert.Equal(t, 7500000.0, p.Price)
	assert.Equal(t, "https://img/car.jpg", p.ImageURL)
	assert.Equal(t, domain.Cars, p.Category)
	require.NotNil(t, p.Year)
	assert.Equal(t, 2015, *p.Year)
	assert.Nil(t, p.Discount)
	assert.Nil(t, p.ReviewsCount)
}

func TestNormalizeJumia(t *testing.T) {
	p := catalog.NormalizeJumia(catalog.JumiaRow{
		SourceID:      ns("7"),
		BrandName:     ns("Tecno"),
		ProductName:   ns(" Spark 10 "),
		Price:         ns("89000"),
		Discount:      ns("-20%"),
		ReviewsRating: ns("4.2 out of 5"),
		ReviewsCount:  ns("(134)"),
	})

	assert.Equal(t, "Spark 10", p.Name)
	assert.Equal(t, "Brand: Tecno • Discount: -20% • Rating: 4.2 out of 5 • (134) reviews", p.Description)
	assert.Equal(t, 89000.0, p.Price)
	assert.Equal(t, "https://via.placeholder.com/600x400?text=Product", p.ImageURL)
	require.NotNil(t, p.ReviewsCount)
	assert.Equal(t, 134, *p.ReviewsCount)

	p = catalog.NormalizeJumia(catalog.JumiaRow{SourceID: ns("8"), BrandName: ns("Oraimo")})
	assert.Equal(t, "Oraimo", p.Name)
}

func TestNormalizeIsTotal(t *testing.T) {
	car := catalog.NormalizeCar(catalog.CarRow{SourceID: ns("1")})
	assert.Equal(t, "Vehicle listing", car.Name)
	assert.Equal(t, "Vehicle sourced from CoinAfrique listings", car.Description)
	assert.Zero(t, car.Price)
	assert.Equal(t, "https://via.placeholder.com/600x400?text=Vehicle", car.ImageURL)

	item := catalog.NormalizeJumia(catalog.JumiaRow{SourceID: ns("1"), ProductName: ns("   ")})
	assert.Equal(t, "Jumia product", item.Name)
	assert.Equal(t, "Popular item sourced from Jumia listings", item.Description)
	assert.Zero(t, item.Price)

	assert.Equal(t, item, catalog.NormalizeJumia(catalog.JumiaRow{SourceID: ns("1"), ProductName: ns("   ")}))
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"":            0,
		"abc":         0,
		"-15":         0,
		"1500":        1500,
		" 12.50 ":     12.5,
		"FCFA 12,500": 12500,
		"1.25e+06":    1250000,
		"1e400":       0,
		"6 500 000":   6500000,
		"89 900 FCFA": 89900,

		"12,500 - 15,000 FCFA": 12500,
	}
	for in, want := range cases {
		assert.Equal(t, want, catalog.ParsePrice(in), "input %q", in)
	}
}

func TestLeadingAmount(t *testing.T) {
	assert.Equal(t, "12500", catalog.LeadingAmount("12,500 - 15,000 FCFA"))
	assert.Equal(t, "6500000", catalog.LeadingAmount("Prix: 6\u00a0500\u00a0000 F"))
	assert.Equal(t, "12.5", catalog.LeadingAmount("12.5 €"))
	assert.Equal(t, "", catalog.LeadingAmount("Prix sur demande"))
}
