package search_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketview/internal/domain"
	"marketview/internal/search"
	"marketview/internal/snapshot"
)

const jumiaExport = `[
 {"type":"header","version":"5.2.1"},
 {"type":"table","name":"jumia_products","database":"scrape","data":[
  {"jumia_product_id":"11","brand_name":"Samsung","product_name":"Galaxy A15 128Go","Price":"89 900 FCFA","discount":"12%","reviews_rating":"4.5","reviews_count":"87","image_url":"https://img/11.jpg"},
  {"jumia_product_id":"12","brand_name":"Tecno","product_name":"Spark 20 Pro","Price":"74 500","discount":null,"reviews_rating":null,"reviews_count":null,"image_url":""},
  {"jumia_product_id":"13","brand_name":"Samsung Électronique","product_name":"Téléviseur 43 pouces","Price":"199000","discount":"","reviews_rating":"","reviews_count":"","image_url":""},
  {"jumia_product_id":"14","brand_name":null,"product_name":null,"Price":null,"discount":null,"reviews_rating":null,"reviews_count":null,"image_url":null}
 ]}
]`

const carsExport = `[
 {"type":"header"},
 {"type":"table","name":"coin_afrique_cars","data":[
  {"coin_afrique_id":"c1","brand":"Toyota","model":"Corolla","seller_name":"Auto Dakar","location":"Dakar","Price":"6 500 000","image_url":"","year":"2015"},
  {"coin_afrique_id":"c2","brand":"Peugeot","model":"208","seller_name":null,"location":"Thiès","Price":"Prix sur demande","image_url":"","year":null}
 ]}
]`

func loadFinder(t *testing.T) *search.Finder {
	t.Helper()
	jumia, err := snapshot.ReadJumia(strings.NewReader(jumiaExport))
	require.NoError(t, err)
	cars, err := snapshot.ReadCars(strings.NewReader(carsExport))
	require.NoError(t, err)

	f, err := search.FromSnapshot(snapshot.Set{Jumia: jumia, Cars: cars}, nil)
	require.NoError(t, err)
	return f
}

func TestFromJumiaWording(t *testing.T) {
	rows, err := snapshot.ReadJumia(strings.NewReader(jumiaExport))
	require.NoError(t, err)
	recs := search.FromJumia(rows)
	require.Len(t, recs, 4)

	r := recs[0]
	assert.Equal(t, "11", r.ID)
	assert.Equal(t, domain.Jumia, r.Category)
	assert.Equal(t, "Samsung", r.Title)
	assert.Equal(t, "Galaxy A15 128Go", r.Subtitle)
	assert.Equal(t, "12% off · ⭐ 4.5 · 87 avis", r.Extra)
	require.NotNil(t, r.Price)
	assert.Equal(t, 89900.0, *r.Price)

	empty := recs[3]
	assert.Equal(t, "Produit Jumia", empty.Title)
	assert.Equal(t, "Jumia", empty.Brand)
	assert.Equal(t, "Autres", empty.CategoryValue)
	assert.Empty(t, empty.Extra)
	assert.Nil(t, empty.Price)
}

func TestFromCarsWording(t *testing.T) {
	rows, err := snapshot.ReadCars(strings.NewReader(carsExport))
	require.NoError(t, err)
	recs := search.FromCars(rows)
	require.Len(t, recs, 2)

	assert.Equal(t, "Toyota Corolla", recs[0].Title)
	assert.Equal(t, "Dakar · Année 2015", recs[0].Subtitle)
	assert.Equal(t, "Auto Dakar", recs[0].Extra)
	assert.Equal(t, 6500000.0, *recs[0].Price)

	assert.Equal(t, "Thiès", recs[1].Subtitle)
	require.NotNil(t, recs[1].Price)
	assert.Zero(t, *recs[1].Price)
}

func TestRecordPriceReadsFirstAmount(t *testing.T) {
	price := func(text string) *float64 {
		recs := search.FromCars([]snapshot.CarRecord{{
			ID:    snapshot.Text{Value: "c9", Valid: true},
			Price: snapshot.Text{Value: text, Valid: true},
		}})
		require.Len(t, recs, 1)
		require.NotNil(t, recs[0].Price)
		return recs[0].Price
	}
	assert.Equal(t, 12500.0, *price("12,500 - 15,000 FCFA"))
	assert.Equal(t, 74500.0, *price("74 500"))
	assert.Zero(t, *price(strings.Repeat("9", 400)))
}

func TestEmptyQueryHasNoResults(t *testing.T) {
	f := loadFinder(t)
	for _, q := range []string{"", "   ", "\t"} {
		res, err := f.Search("jumia", q)
		require.NoError(t, err)
		assert.Empty(t, res)
	}
}

func TestExactTitleRanksFirst(t *testing.T) {
	f := loadFinder(t)
	res, err := f.Search("jumia", "Samsung")
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "11", res[0].Record.ID)
	assert.Zero(t, res[0].Score)

	res, err = f.Search("cars", "Toyota Corolla")
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "c1", res[0].Record.ID)
}

func TestTypoTolerantAndAccentInsensitive(t *testing.T) {
	f := loadFinder(t)

	res, err := f.Search("jumia", "samsnug")
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "Samsung", res[0].Record.Brand)

	res, err = f.Search("jumia", "televiseur")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "13", res[0].Record.ID)

	var sub search.Match
	for _, m := range res[0].Matches {
		if m.Field == search.FieldSubtitle {
			sub = m
		}
	}
	require.Equal(t, search.FieldSubtitle, sub.Field)
	assert.Equal(t, [][2]int{{0, 9}}, sub.Indices)

	res, err = f.Search("jumia", "zzzzzz")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestUnknownSource(t *testing.T) {
	f := loadFinder(t)
	_, err := f.Search("ebay", "x")
	assert.ErrorIs(t, err, search.ErrUnknownSource)
}

func TestResultsAreCapped(t *testing.T) {
	recs := make([]search.Record, 20)
	for i := range recs {
		recs[i] = search.Record{ID: string(rune('a' + i)), Title: "Lampe LED"}
	}
	f, err := search.NewFinder(nil, search.NewIndex(search.Source{Key: "lamps"}, recs))
	require.NoError(t, err)

	res, err := f.Search("lamps", "lampe")
	require.NoError(t, err)
	require.Len(t, res, search.MaxResults)
	assert.Equal(t, "a", res[0].Record.ID, "ties keep index order")

	again, err := f.Search("lamps", "lampe")
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestDuplicateSource(t *testing.T) {
	idx := search.NewIndex(search.Source{Key: "x"}, nil)
	_, err := search.NewFinder(nil, idx, idx)
	assert.Error(t, err)
}

func TestHighlight(t *testing.T) {
	segs := search.Highlight("Téléviseur 43", [][2]int{{0, 3}, {2, 5}, {11, 40}})
	assert.Equal(t, []search.Segment{
		{Text: "Télévi", Mark: true},
		{Text: "seur "},
		{Text: "43", Mark: true},
	}, segs)

	assert.Equal(t, []search.Segment{{Text: "plain"}}, search.Highlight("plain", nil))
	assert.Nil(t, search.Highlight("", [][2]int{{0, 1}}))
}

func TestBox(t *testing.T) {
	b := search.NewBox(loadFinder(t))
	assert.Equal(t, "jumia", b.Source())
	assert.False(t, b.IsOpen())

	require.NoError(t, b.Type("samsung"))
	assert.True(t, b.IsOpen())
	require.NotEmpty(t, b.Results())
	assert.Equal(t, 0, b.Active())

	b.Move(5)
	assert.Equal(t, len(b.Results())-1, b.Active())
	b.Move(-10)
	assert.Equal(t, 0, b.Active())

	require.NoError(t, b.SwitchSource("cars"))
	assert.Equal(t, "samsung", b.Query(), "typed text survives a source switch")
	assert.Empty(t, b.Results())
	_, ok := b.Selected()
	assert.False(t, ok)

	require.NoError(t, b.Type("dakar"))
	b.Close()
	assert.False(t, b.IsOpen())
	b.Move(1)
	assert.True(t, b.IsOpen())

	r, ok := b.Choose()
	require.True(t, ok)
	assert.Equal(t, "c1", r.Record.ID)
	assert.Empty(t, b.Query())
	assert.False(t, b.IsOpen())

	assert.ErrorIs(t, b.SwitchSource("nope"), search.ErrUnknownSource)

	require.NoError(t, b.Type("  "))
	assert.False(t, b.IsOpen())
	assert.Equal(t, -1, b.Active())
}
