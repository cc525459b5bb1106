package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"marketview/internal/domain"
	"marketview/internal/listing"
	applog "marketview/internal/log"
	"marketview/internal/personal"
	"marketview/internal/repos"
	"marketview/internal/services"
	"marketview/internal/validate"
)

const (
	featuredPerCategory = 4
	relatedCount        = 4
)

type PageHandler struct {
	Catalog *services.CatalogService
	Storage *repos.LocalStorageRepo
	Timeout time.Duration
}

func (h *PageHandler) store(c *fiber.Ctx) *personal.Store {
	return personal.NewStore(h.Storage.For(sessionID(c)))
}

type section struct {
	Category domain.Category
	Items    []domain.Product
}

// Home shows a few products of every category.
func (h *PageHandler) Home(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()
	all, err := h.Catalog.ListAll(ctx)
	if err != nil {
		applog.Error(c, "home.load", err, nil)
		return pageError(c, "Could not load products. Please retry.")
	}

	byCat := make(map[domain.Category][]domain.Product)
	for _, p := range all.Products {
		if len(byCat[p.Category]) < featuredPerCategory {
			byCat[p.Category] = append(byCat[p.Category], p)
		}
	}
	var sections []section
	for _, k := range h.Catalog.Registry.Keys() {
		sections = append(sections, section{Category: k, Items: byCat[k]})
	}
	return render(c, "home", fiber.Map{"Sections": sections, "Failed": all.Failed})
}

type pageLinkView struct {
	listing.PageLink
	URL string
}

// Listing renders one category with price filter, sort and pagination.
func (h *PageHandler) Listing(c *fiber.Ctx) error {
	key, ok := validate.CategoryKey(c.Params("category"))
	if !ok {
		return notFound(c, "Page not found")
	}
	d, err := h.Catalog.Registry.Resolve(key)
	if err != nil {
		return notFound(c, "Page not found")
	}
	var params validate.ListingParams
	if err := c.QueryParser(&params); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "query"})
	}
	q := validate.Listing(params)

	ctrl := listing.NewController(d.Key(), d.SupportsReviews())
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()
	if _, err := ctrl.Load(ctx, func(ctx context.Context) ([]domain.Product, error) {
		return h.Catalog.List(ctx, string(d.Key()))
	}); err != nil {
		applog.Error(c, "listing.load", err, map[string]any{"category": d.Key()})
		return pageError(c, "Could not load products. Please retry.")
	}

	r := ctrl.Range()
	if q.Min != nil {
		r.Min = *q.Min
	}
	if q.Max != nil {
		r.Max = *q.Max
	}
	ctrl.OnFilterChange(r)
	ctrl.OnSortChange(listing.SortKey(q.Sort))
	if q.Page > 0 {
		ctrl.SetPage(q.Page)
	}
	view := ctrl.Derive()

	links := make([]pageLinkView, len(view.Pages))
	for i, l := range view.Pages {
		links[i] = pageLinkView{PageLink: l, URL: listingURL(d.Key(), view, l.Number)}
	}
	data := fiber.Map{
		"Category":         d.Key(),
		"ReviewsSupported": d.SupportsReviews(),
		"View":             view,
		"Pages":            links,
	}
	if view.Page > 1 {
		data["PrevURL"] = listingURL(d.Key(), view, view.Page-1)
	}
	if view.Page < view.PageCount {
		data["NextURL"] = listingURL(d.Key(), view, view.Page+1)
	}
	return render(c, "listing", data)
}

func listingURL(cat domain.Category, v listing.View, page int) string {
	q := url.Values{}
	if v.Range != v.Bounds {
		q.Set("min", strconv.FormatFloat(v.Range.Min, 'f', -1, 64))
		q.Set("max", strconv.FormatFloat(v.Range.Max, 'f', -1, 64))
	}
	if v.Sort != listing.SortNone {
		q.Set("sort", string(v.Sort))
	}
	q.Set("page", strconv.Itoa(page))
	return "/" + string(cat) + "?" + q.Encode()
}

// Detail renders one product, records it in the browser's history and shows
// related and recently viewed products.
func (h *PageHandler) Detail(c *fiber.Ctx) error {
	p, ok, err := h.product(c)
	if !ok {
		return err
	}
	ctx := c.UserContext()
	store := h.store(c)

	hist, err := store.RecordView(ctx, domain.EntryOf(p))
	if err != nil {
		applog.Error(c, "history.record", err, nil)
	}
	recent := make([]domain.Entry, 0, len(hist))
	for _, e := range hist {
		if !e.Same(domain.EntryOf(p)) {
			recent = append(recent, e)
		}
	}
	fav, err := store.IsFavorite(ctx, p.ID, p.Category)
	if err != nil {
		applog.Error(c, "favorites.read", err, nil)
	}

	rctx, cancel := requestContext(c, h.Timeout)
	defer cancel()
	var related []domain.Product
	if siblings, err := h.Catalog.List(rctx, string(p.Category)); err != nil {
		applog.Error(c, "product.related", err, nil)
	} else {
		for _, s := range siblings {
			if s.ID != p.ID && len(related) < relatedCount {
				related = append(related, s)
			}
		}
	}

	return render(c, "product", fiber.Map{
		"P":        p,
		"Favorite": fav,
		"Related":  related,
		"Recent":   recent,
	})
}

// ToggleFavorite adds or removes the product from the browser's favorites.
func (h *PageHandler) ToggleFavorite(c *fiber.Ctx) error {
	p, ok, err := h.product(c)
	if !ok {
		return err
	}
	now, err := h.store(c).ToggleFavorite(c.UserContext(), domain.EntryOf(p))
	if err != nil {
		applog.Error(c, "favorites.toggle.fail", err, map[string]any{"product": p.ID})
		return pageError(c, "Could not update favorites")
	}
	applog.Audit(c, "favorites.toggle", map[string]any{"product": p.ID, "category": p.Category, "favorite": now})

	back := c.FormValue("back")
	if back != "/dashboard" {
		back = productURL(p.Category, p.ID)
	}
	return c.Redirect(back, fiber.StatusSeeOther)
}

// product loads the product addressed by the path. When ok is false the
// response has already been written.
func (h *PageHandler) product(c *fiber.Ctx) (p domain.Product, ok bool, err error) {
	key, validKey := validate.CategoryKey(c.Params("category"))
	id, valid := validate.ID(c.Params("id"))
	if !validKey || !valid {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return p, false, notFound(c, "This item is no longer available")
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()
	p, err = h.Catalog.Get(ctx, key, id)
	switch {
	case err == nil:
		return p, true, nil
	case errors.Is(err, domain.ErrUnknownCategory), errors.Is(err, domain.ErrNotFound):
		return p, false, notFound(c, "This item is no longer available")
	default:
		applog.Error(c, "product.load", err, map[string]any{"category": key, "id": id})
		return p, false, pageError(c, "Could not load this product. Please retry.")
	}
}

// Dashboard shows the browser's favorites and history.
func (h *PageHandler) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	store := h.store(c)
	favs, err := store.Favorites(ctx)
	if err != nil {
		return h.dashboardFail(c, err)
	}
	hist, err := store.History(ctx)
	if err != nil {
		return h.dashboardFail(c, err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return h.dashboardFail(c, err)
	}
	return render(c, "dashboard", fiber.Map{"Favorites": favs, "History": hist, "Stats": stats})
}

func (h *PageHandler) dashboardFail(c *fiber.Ctx, err error) error {
	applog.Error(c, "dashboard.load", fmt.Errorf("personal store: %w", err), nil)
	return pageError(c, "Could not load your dashboard")
}
