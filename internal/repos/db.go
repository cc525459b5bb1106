package repos

import (
	"fmt"
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"marketview/internal/catalog"
	"marketview/internal/snapshot"
)

// OpenDB opens the store with the given driver ("sqlite" or "pgx") and makes
// sure the catalog and local storage tables exist.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a fresh database
	if driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS coin_afrique_cars(
	  coin_afrique_id TEXT PRIMARY KEY,
	  brand TEXT,
	  model TEXT,
	  seller_name TEXT,
	  location TEXT,
	  Price TEXT,
	  image_url TEXT,
	  year TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cars_brand_model ON coin_afrique_cars(brand, model)`,

	`CREATE TABLE IF NOT EXISTS jumia_products(
	  jumia_product_id TEXT PRIMARY KEY,
	  brand_name TEXT,
	  product_name TEXT,
	  Price TEXT,
	  discount TEXT,
	  reviews_rating TEXT,
	  reviews_count TEXT,
	  image_url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jumia_brand_product ON jumia_products(brand_name, product_name)`,

	// browser-scoped key/value pairs, addressed by the sid cookie
	`CREATE TABLE IF NOT EXISTS local_storage(
	  session_id TEXT NOT NULL,
	  item_key TEXT NOT NULL,
	  item_value TEXT NOT NULL,
	  updated_at TEXT,
	  PRIMARY KEY (session_id, item_key)
	)`,
}

func ensureSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// SeedIfEmpty loads the snapshot datasets into tables that have no rows yet.
// Tables that already hold data are left untouched.
func SeedIfEmpty(db *sqlx.DB, set snapshot.Set) error {
	empty, err := tableEmpty(db, catalog.Cars.Table())
	if err != nil {
		return err
	}
	if empty && len(set.Cars) > 0 {
		if err := seedCars(db, set.Cars); err != nil {
			return err
		}
		log.Printf("[seed] inserted %d cars", len(set.Cars))
	}

	empty, err = tableEmpty(db, catalog.Jumia.Table())
	if err != nil {
		return err
	}
	if empty && len(set.Jumia) > 0 {
		if err := seedJumia(db, set.Jumia); err != nil {
			return err
		}
		log.Printf("[seed] inserted %d jumia products", len(set.Jumia))
	}
	return nil
}

func tableEmpty(db *sqlx.DB, table string) (bool, error) {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return n == 0, nil
}

func seedCars(db *sqlx.DB, rows []snapshot.CarRecord) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Preparex(tx.Rebind(`
		INSERT INTO coin_afrique_cars(coin_afrique_id, brand, model, seller_name, location, Price, image_url, year)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(coin_afrique_id) DO NOTHING`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if r.ID.String() == "" {
			continue
		}
		if _, err := stmt.Exec(r.ID.String(), nullable(r.Brand), nullable(r.Model), nullable(r.SellerName),
			nullable(r.Location), nullable(r.Price), nullable(r.ImageURL), nullable(r.Year)); err != nil {
			return fmt.Errorf("seed car %s: %w", r.ID.String(), err)
		}
	}
	return tx.Commit()
}

func seedJumia(db *sqlx.DB, rows []snapshot.JumiaRecord) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Preparex(tx.Rebind(`
		INSERT INTO jumia_products(jumia_product_id, brand_name, product_name, Price, discount, reviews_rating, reviews_count, image_url)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(jumia_product_id) DO NOTHING`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if r.ID.String() == "" {
			continue
		}
		if _, err := stmt.Exec(r.ID.String(), nullable(r.BrandName), nullable(r.ProductName), nullable(r.Price),
			nullable(r.Discount), nullable(r.ReviewsRating), nullable(r.ReviewsCount), nullable(r.ImageURL)); err != nil {
			return fmt.Errorf("seed jumia %s: %w", r.ID.String(), err)
		}
	}
	return tx.Commit()
}

func nullable(t snapshot.Text) any {
	if !t.Valid {
		return nil
	}
	return t.Value
}
