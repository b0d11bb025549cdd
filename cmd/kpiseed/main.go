package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"chemkpi/cmd/kpiseed/engine"
	"chemkpi/internal/catalog"
	"chemkpi/internal/dashboard"
	"chemkpi/internal/kpilog"
	"chemkpi/internal/status"
)

func main() {
	scenario := flag.String("scenario", engine.ScenarioSteady, "Scenario to generate: steady, degrading")
	backend := flag.String("backend", "file", "Store backend: file, sqlite, badger")
	outDir := flag.String("out", "./.cache/store", "Store directory")
	key := flag.String("key", kpilog.DefaultKey, "Store key")
	catalogPath := flag.String("catalog", "", "Catalog YAML (default: built-in plant catalog)")
	weeks := flag.Int("weeks", 52, "Number of weeks to generate")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Weeks:    *weeks,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Seeding scenario '%s' (%d weeks) into %s store at %s...\n", cfg.Scenario, cfg.Weeks, *backend, *outDir)

	n, err := run(cfg, *catalogPath, *backend, *outDir, *key)
	if err != nil {
		fmt.Printf("Failed to seed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. %d entries recorded.\n", n)
}

func run(cfg engine.GeneratorConfig, catalogPath, backend, dir, key string) (int, error) {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return 0, err
	}
	rules := status.NewRegistry()

	samples, err := engine.Generate(cfg, cat, rules)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}
	persister, err := kpilog.OpenBackend(backend, dir)
	if err != nil {
		return 0, err
	}
	store := kpilog.Open(persister, key)
	defer store.Close()

	eng, err := dashboard.New(store, cat, rules)
	if err != nil {
		return 0, err
	}
	n := engine.Seed(eng, samples)
	return n, store.LastPersistError()
}
