package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/floudata/pucp-time-series/internal/catalog"
	"github.com/floudata/pucp-time-series/internal/config"
	"github.com/floudata/pucp-time-series/internal/database"
	"github.com/floudata/pucp-time-series/internal/logger"
)

// Loads SNOMED-CT.csv into the diagnosis_codes table used when DIAGNOSIS_SOURCE=postgres.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	csvPath := flag.String("csv", cfg.Data.SnomedCSV, "SNOMED-CT catalog (Snomed_CT,Full_Name,Acronym_Name)")
	flag.Parse()

	log, err := logger.NewLogger(cfg.Log.Level, "console", "diagnosis-import")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	source, err := catalog.LoadDiagnosisCSV(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *csvPath, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	target := catalog.NewPostgresDiagnosisCatalog(db, log)
	if err := target.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	n, err := target.Import(ctx, source.Entries())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Printf("imported %d diagnosis codes from %s\n", n, *csvPath)
}
