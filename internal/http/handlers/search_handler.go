package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "marketview/internal/log"
	"marketview/internal/search"
	"marketview/internal/validate"
)

type SearchHandler struct {
	Finder *search.Finder
}

func (h *SearchHandler) sourceKeys() string {
	var keys []string
	for _, s := range h.Finder.Sources() {
		keys = append(keys, s.Key)
	}
	return strings.Join(keys, ", ")
}

// box replays the request onto a search bar: source, typed text, then cursor.
func (h *SearchHandler) box(c *fiber.Ctx) (*search.Box, error) {
	b := search.NewBox(h.Finder)
	if src := strings.TrimSpace(c.Query("source")); src != "" {
		if err := b.SwitchSource(src); err != nil {
			return nil, err
		}
	}
	if err := b.Type(validate.Q(c.Query("q"))); err != nil {
		return nil, err
	}
	if n, err := strconv.Atoi(c.Query("active")); err == nil && n > 0 {
		b.Move(n)
	}
	return b, nil
}

// Page renders the search bar. With go=1 the active result is opened.
func (h *SearchHandler) Page(c *fiber.Ctx) error {
	b, err := h.box(c)
	if errors.Is(err, search.ErrUnknownSource) {
		applog.Security(c, "validation.fail", map[string]any{"field": "source"})
		b, err = search.NewBox(h.Finder), nil
	}
	if err != nil {
		applog.Error(c, "search.error", err, nil)
		return pageError(c, "Could not load results. Please retry.")
	}

	if c.Query("go") == "1" {
		if r, ok := b.Choose(); ok {
			applog.Info(c, "search.select", map[string]any{"source": b.Source(), "id": r.Record.ID})
			return c.Redirect(productURL(r.Record.Category, r.Record.ID), fiber.StatusSeeOther)
		}
	}
	return render(c, "search", fiber.Map{
		"Box":     b,
		"Sources": h.Finder.Sources(),
	})
}

type searchBody struct {
	Source  string          `json:"source"`
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// JSON serves GET /search.json?source=&q=.
func (h *SearchHandler) JSON(c *fiber.Ctx) error {
	src := strings.TrimSpace(c.Query("source"))
	if src == "" {
		src = h.Finder.DefaultSource()
	}
	q := validate.Q(c.Query("q"))
	res, err := h.Finder.Search(src, q)
	if errors.Is(err, search.ErrUnknownSource) {
		applog.Security(c, "validation.fail", map[string]any{"field": "source"})
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "Invalid source. Must be one of: " + h.sourceKeys()})
	}
	if err != nil {
		applog.Error(c, "search.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: "Search failed"})
	}
	return c.JSON(searchBody{Source: src, Query: q, Results: res})
}
