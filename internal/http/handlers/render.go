package handlers

import (
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"marketview/internal/domain"
	"marketview/internal/listing"
	"marketview/web"
)

const layout = "layout"

// NewEngine loads the embedded page templates.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("currency", listing.FormatCurrency)
	engine.AddFunc("productURL", productURL)
	engine.AddFunc("label", categoryLabel)
	engine.AddFunc("num", func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) })
	return engine
}

func productURL(cat domain.Category, id string) string {
	return "/" + string(cat) + "/product/" + id
}

var categoryLabels = map[domain.Category]string{
	domain.Cars:  "Cars",
	domain.Jumia: "Jumia",
}

func categoryLabel(cat domain.Category) string {
	if l, ok := categoryLabels[cat]; ok {
		return l
	}
	return string(cat)
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if tok, ok := c.Locals("CSRFToken").(string); ok && tok != "" {
		data["CSRFToken"] = tok
	} else if tok := c.Cookies("csrf_"); tok != "" {
		data["CSRFToken"] = tok
	}
	data["Nav"] = []domain.Category{domain.Cars, domain.Jumia}
	return c.Render(tmpl, data, layout)
}

func notFound(c *fiber.Ctx, msg string) error {
	c.Status(fiber.StatusNotFound)
	return render(c, "notfound", fiber.Map{"Message": msg})
}

func pageError(c *fiber.Ctx, msg string) error {
	c.Status(fiber.StatusInternalServerError)
	return render(c, "notfound", fiber.Map{"Message": msg})
}
