package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketview/internal/config"
	"marketview/internal/domain"
	"marketview/internal/http/handlers"
	"marketview/internal/search"
)

type errBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func TestListCategory(t *testing.T) {
	env := newTestApp(t)

	for _, prefix := range []string{"", "/api"} {
		resp := env.get(t, prefix+"/products/cars")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		cars := decode[[]domain.Product](t, resp)
		require.Len(t, cars, 2)
		assert.Equal(t, "Kia Picanto", cars[0].Name)
		assert.Equal(t, "Toyota Corolla", cars[1].Name)
		assert.Equal(t, 6500000.0, cars[1].Price)
		for _, p := range cars {
			assert.Equal(t, domain.Cars, p.Category)
		}
	}
}

func TestOverflowingPriceReadsAsZero(t *testing.T) {
	env := newTestApp(t)
	_, err := env.db.Exec(`UPDATE coin_afrique_cars SET Price='1e400' WHERE coin_afrique_id='c1'`)
	require.NoError(t, err)

	resp := env.get(t, "/products/cars")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cars := decode[[]domain.Product](t, resp)
	require.Len(t, cars, 2)
	for _, p := range cars {
		if p.ID == "c1" {
			assert.Zero(t, p.Price)
		}
	}

	resp = env.get(t, "/products")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Product](t, resp), 4)

	resp = env.get(t, "/products/cars/c1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[domain.Product](t, resp).Price)
}

func TestUnknownCategoryIs400(t *testing.T) {
	env := newTestApp(t)

	for _, target := range []string{"/products/boats", "/api/products/boats/1", "/products?category=boats", "/products/CARS"} {
		resp := env.get(t, target)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
		body := decode[errBody](t, resp)
		assert.Equal(t, "Invalid category. Must be one of: cars, jumia", body.Error)
	}
}

func TestGetProduct(t *testing.T) {
	env := newTestApp(t)

	resp := env.get(t, "/products/jumia/j1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[domain.Product](t, resp)
	assert.Equal(t, "j1", p.ID)
	assert.Equal(t, "Galaxy A15", p.Name)
	require.NotNil(t, p.ReviewsCount)
	assert.Equal(t, 87, *p.ReviewsCount)

	for _, target := range []string{"/products/jumia/missing", "/products/jumia/c1", "/products/cars/1%20OR%201=1"} {
		resp = env.get(t, target)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, target)
		assert.Equal(t, "Product not found", decode[errBody](t, resp).Error)
	}
}

func TestAllProducts(t *testing.T) {
	env := newTestApp(t)

	resp := env.get(t, "/api/products")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(handlers.PartialHeader))
	assert.Len(t, decode[[]domain.Product](t, resp), 4)

	resp = env.get(t, "/products?category=jumia")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Product](t, resp), 2)
}

func TestAllProductsPartialFailure(t *testing.T) {
	env := newTestApp(t)
	_, err := env.db.Exec(`DROP TABLE jumia_products`)
	require.NoError(t, err)

	resp := env.get(t, "/products")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jumia", resp.Header.Get(handlers.PartialHeader))
	products := decode[[]domain.Product](t, resp)
	require.Len(t, products, 2)
	assert.Equal(t, domain.Cars, products[0].Category)

	resp = env.get(t, "/products/jumia")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[errBody](t, resp)
	assert.Equal(t, "Failed to fetch products", body.Error)
	assert.Empty(t, body.Detail, "no internals outside development")
}

func TestTotalFailureDetailInDevelopment(t *testing.T) {
	env := newTestApp(t, func(c *config.Config) { c.Env = "development" })
	_, err := env.db.Exec(`DROP TABLE jumia_products`)
	require.NoError(t, err)
	_, err = env.db.Exec(`DROP TABLE coin_afrique_cars`)
	require.NoError(t, err)

	resp := env.get(t, "/products")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[errBody](t, resp)
	assert.Equal(t, "Failed to fetch products", body.Error)
	assert.Contains(t, body.Detail, "coin_afrique_cars")
}

func TestHealth(t *testing.T) {
	env := newTestApp(t)

	type health struct {
		Status    string `json:"status"`
		Database  string `json:"database"`
		Timestamp string `json:"timestamp"`
	}
	resp := env.get(t, "/api/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h := decode[health](t, resp)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "connected", h.Database)
	assert.NotEmpty(t, h.Timestamp)

	require.NoError(t, env.db.Close())
	resp = env.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "disconnected", decode[health](t, resp).Database)
}

func TestUnknownAPIRoute(t *testing.T) {
	env := newTestApp(t)
	resp := env.get(t, "/api/nothing/here")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", decode[errBody](t, resp).Error)
}

func TestSearchJSON(t *testing.T) {
	env := newTestApp(t)

	type body struct {
		Source  string          `json:"source"`
		Query   string          `json:"query"`
		Results []search.Result `json:"results"`
	}
	resp := env.get(t, "/api/search.json?source=cars&q=toyta")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b := decode[body](t, resp)
	assert.Equal(t, "cars", b.Source)
	require.NotEmpty(t, b.Results)
	assert.Equal(t, "c1", b.Results[0].Record.ID)
	assert.NotEmpty(t, b.Results[0].Matches)

	resp = env.get(t, "/search.json?q=")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b = decode[body](t, resp)
	assert.Equal(t, "jumia", b.Source)
	assert.Empty(t, b.Results)

	resp = env.get(t, "/search.json?source=ebay&q=x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid source. Must be one of: jumia, cars", decode[errBody](t, resp).Error)
}

func TestInvalidCategoryIsLogged(t *testing.T) {
	env := newTestApp(t)
	entries := captureLogs(t, func() {
		env.get(t, "/products/boats")
	})
	require.True(t, hasAction(entries, "validation.fail"))
	for _, e := range entries {
		if e.Action == "validation.fail" {
			assert.Equal(t, "category", e.Fields["field"])
			assert.NotEmpty(t, e.ReqID)
		}
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestApp(t, func(c *config.Config) { c.RateLimit = 3 })
	for i := 0; i < 4; i++ {
		resp := env.get(t, "/products/cars")
		if i < 3 {
			require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		}
	}
	assert.Equal(t, http.StatusOK, env.get(t, "/health").StatusCode, "health is not limited")
}
