package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mroshb/match_engine/internal/config"
	"github.com/mroshb/match_engine/internal/importer"
	"github.com/mroshb/match_engine/internal/storage"
	"github.com/mroshb/match_engine/pkg/logger"
)

func main() {
	inspect := flag.Bool("inspect", false, "print the first rows of every sheet and exit")
	rows := flag.Int("rows", 6, "rows per sheet shown by -inspect")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-inspect] [-rows n] <profiles.xlsx>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *inspect {
		previews, err := importer.Preview(path, *rows)
		if err != nil {
			log.Fatal(err)
		}
		for _, sheet := range previews {
			fmt.Printf("Sheet: %s\n", sheet.Name)
			for i, row := range sheet.Rows {
				fmt.Printf("  Row %d: %s\n", i+1, strings.Join(row, " | "))
			}
		}
		return
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.LogLevel)
	defer logger.Sync()

	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Println("STORAGE_DRIVER=memory: imported profiles are discarded on exit")
	}

	backend, err := storage.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", err)
	}
	defer backend.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := importer.ImportFile(ctx, path, backend)
	if err != nil {
		logger.Error("Import aborted", "error", err)
	}
	if report != nil {
		for _, rowErr := range report.Errors {
			fmt.Printf("Skipped %v\n", rowErr)
		}
		fmt.Printf("Successfully imported %d profiles (%d skipped).\n", report.Imported, len(report.Errors))
	}
	if err != nil {
		os.Exit(1)
	}
}
