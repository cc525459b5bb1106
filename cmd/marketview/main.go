package main

import (
	"io"
	"log"
	"os"

	"marketview/internal/config"
	"marketview/internal/http/handlers"
	"marketview/internal/metrics"
	"marketview/internal/repos"
	"marketview/internal/search"
	"marketview/internal/snapshot"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	set, err := snapshot.Load(cfg.SnapshotDir)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[snapshot] %s: %d cars, %d jumia products", cfg.SnapshotDir, len(set.Cars), len(set.Jumia))
	if err := repos.SeedIfEmpty(db, set); err != nil {
		log.Fatal(err)
	}

	m := metrics.New()
	finder, err := search.FromSnapshot(set, m)
	if err != nil {
		log.Fatal(err)
	}

	app := handlers.NewApp(handlers.NewDeps(db, cfg, finder, m))
	log.Fatal(app.Listen(":" + cfg.Port))
}
