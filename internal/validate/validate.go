package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

var (
	reID  = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,64}$`)
	reKey = regexp.MustCompile(`^[a-z]{1,32}$`)
)

// ID validates a product identifier taken from the path.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reID.MatchString(s)
}

// CategoryKey checks the shape of a category key; the registry decides
// whether it exists. Keys are case-sensitive.
func CategoryKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reKey.MatchString(s)
}

// Q trims a search query and cuts it to 80 runes.
func Q(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > 80 {
		s = strings.TrimSpace(string(r[:80]))
	}
	return s
}

// ListingParams is the raw query string of a listing page, as bound by
// fiber's QueryParser.
type ListingParams struct {
	Min  string `query:"min"`
	Max  string `query:"max"`
	Sort string `query:"sort"`
	Page string `query:"page"`
}

// ListingQuery is the typed listing query. Pointers stay nil when the
// parameter is absent or invalid.
type ListingQuery struct {
	Min  *float64 `validate:"omitempty,gte=0"`
	Max  *float64 `validate:"omitempty,gte=0"`
	Sort string   `validate:"omitempty,oneof=none price-asc price-desc reviews"`
	Page int      `validate:"omitempty,gte=1,lte=100000"`
}

// Listing converts and validates p. Invalid fields are reset rather than
// rejected so a bad link still renders the page.
func Listing(p ListingParams) ListingQuery {
	q := ListingQuery{
		Min:  parseFloat(p.Min),
		Max:  parseFloat(p.Max),
		Sort: strings.TrimSpace(p.Sort),
	}
	q.Page, _ = strconv.Atoi(strings.TrimSpace(p.Page))

	err := v.Struct(q)
	if err == nil {
		return q
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ListingQuery{}
	}
	for _, fe := range errs {
		switch fe.StructField() {
		case "Min":
			q.Min = nil
		case "Max":
			q.Max = nil
		case "Sort":
			q.Sort = ""
		case "Page":
			q.Page = 0
		}
	}
	return q
}

func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
