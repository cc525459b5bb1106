package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"

	"marketview/internal/catalog"
	"marketview/internal/config"
	"marketview/internal/metrics"
	"marketview/internal/repos"
	"marketview/internal/search"
	"marketview/internal/services"
)

type Deps struct {
	API     *APIHandler
	Pages   *PageHandler
	Search  *SearchHandler
	Metrics *metrics.Metrics
	Cfg     config.Config
}

func NewDeps(db *sqlx.DB, cfg config.Config, finder *search.Finder, m *metrics.Metrics) *Deps {
	prodRepo := repos.NewProductRepo(db)
	storage := repos.NewLocalStorageRepo(db)
	catalogSvc := services.NewCatalogService(catalog.Default(), prodRepo, m)
	return NewDepsWith(catalogSvc, storage, finder, m, cfg)
}

// NewDepsWith wires handlers around an existing catalog service.
func NewDepsWith(catalogSvc *services.CatalogService, storage *repos.LocalStorageRepo, finder *search.Finder, m *metrics.Metrics, cfg config.Config) *Deps {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Deps{
		API:     &APIHandler{Catalog: catalogSvc, Dev: cfg.Development(), Timeout: timeout},
		Pages:   &PageHandler{Catalog: catalogSvc, Storage: storage, Timeout: timeout},
		Search:  &SearchHandler{Finder: finder},
		Metrics: m,
		Cfg:     cfg,
	}
}
