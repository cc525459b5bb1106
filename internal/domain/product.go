package domain

// Category identifies one product source.
type Category string

const (
	Cars  Category = "cars"
	Jumia Category = "jumia"
)

// Product is the canonical shape returned by the API and consumed by the views.
// Category specific extras are nil when the source has no value for them.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Category    Category `json:"category"`

	Brand         *string `json:"brand"`
	Model         *string `json:"model"`
	Color         *string `json:"color"`
	Storage       *string `json:"storage"`
	ScreenSize    *string `json:"screenSize"`
	Battery       *string `json:"battery"`
	Engine        *string `json:"engine"`
	Range         *string `json:"range"`
	Acceleration  *string `json:"acceleration"`
	Location      *string `json:"location"`
	SellerName    *string `json:"sellerName"`
	Year          *int    `json:"year"`
	Discount      *string `json:"discount"`
	ReviewsRating *string `json:"reviewsRating"`
	ReviewsCount  *int    `json:"reviewsCount"`
}

// Entry is a browser-local personalization record (favorite or history item).
type Entry struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	ImageURL string   `json:"imageUrl"`
}

// EntryOf builds the personalization record for a product.
func EntryOf(p Product) Entry {
	return Entry{ID: p.ID, Category: p.Category, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL}
}

// Same reports whether two entries refer to the same (id, category) pair.
func (e Entry) Same(o Entry) bool {
	return e.ID == o.ID && e.Category == o.Category
}
