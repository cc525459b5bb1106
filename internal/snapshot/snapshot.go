// Package snapshot reads the static phpMyAdmin JSON exports the datasets were
// scraped into. The same files seed the store and feed the search index.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File names of the two exports inside a snapshot directory.
const (
	CarsFile  = "coin_afrique_cars.json"
	JumiaFile = "jumia_products.json"

	CarsTable  = "coin_afrique_cars"
	JumiaTable = "jumia_products"
)

// Text accepts a JSON string, number or null. phpMyAdmin exports every column
// as a string, but hand-edited snapshots often carry bare numbers.
type Text struct {
	Value string
	Valid bool
}

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = Text{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text{Value: s, Valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("snapshot text: %w", err)
	}
	*t = Text{Value: n.String(), Valid: true}
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// String returns the trimmed value, empty when null.
func (t Text) String() string {
	return strings.TrimSpace(t.Value)
}

// CarRecord is one row of the coin_afrique_cars export.
type CarRecord struct {
	ID         Text `json:"coin_afrique_id"`
	Brand      Text `json:"brand"`
	Model      Text `json:"model"`
	SellerName Text `json:"seller_name"`
	Location   Text `json:"location"`
	Price      Text `json:"Price"`
	ImageURL   Text `json:"image_url"`
	Year       Text `json:"year"`
}

// JumiaRecord is one row of the jumia_products export.
type JumiaRecord struct {
	ID            Text `json:"jumia_product_id"`
	BrandName     Text `json:"brand_name"`
	ProductName   Text `json:"product_name"`
	Price         Text `json:"Price"`
	Discount      Text `json:"discount"`
	ReviewsRating Text `json:"reviews_rating"`
	ReviewsCount  Text `json:"reviews_count"`
	ImageURL      Text `json:"image_url"`
}

type entry struct {
	Type string          `json:"type"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// ReadTable decodes the rows of the named table from an export.
// A missing table yields no rows, not an error.
func ReadTable[T any](r io.Reader, table string) ([]T, error) {
	var entries []entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	for _, e := range entries {
		if e.Type != "table" || e.Name != table {
			continue
		}
		if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
			return []T{}, nil
		}
		var rows []T
		if err := json.Unmarshal(e.Data, &rows); err != nil {
			return nil, fmt.Errorf("decode %s rows: %w", table, err)
		}
		return rows, nil
	}
	return []T{}, nil
}

// ReadCars reads the car export.
func ReadCars(r io.Reader) ([]CarRecord, error) {
	return ReadTable[CarRecord](r, CarsTable)
}

// ReadJumia reads the Jumia export.
func ReadJumia(r io.Reader) ([]JumiaRecord, error) {
	return ReadTable[JumiaRecord](r, JumiaTable)
}

// Set holds both datasets of a snapshot directory.
type Set struct {
	Cars  []CarRecord
	Jumia []JumiaRecord
}

// Load reads a snapshot directory. Missing files leave the dataset empty;
// malformed files are errors.
func Load(dir string) (Set, error) {
	var s Set
	var err error
	if s.Cars, err = loadFile(filepath.Join(dir, CarsFile), ReadCars); err != nil {
		return Set{}, err
	}
	if s.Jumia, err = loadFile(filepath.Join(dir, JumiaFile), ReadJumia); err != nil {
		return Set{}, err
	}
	return s, nil
}

func loadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
