package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/insightdelivered/tutor-portal/internal/api"
	"github.com/insightdelivered/tutor-portal/internal/auth"
	"github.com/insightdelivered/tutor-portal/internal/config"
	"github.com/insightdelivered/tutor-portal/internal/extractor"
	"github.com/insightdelivered/tutor-portal/internal/models"
	"github.com/insightdelivered/tutor-portal/internal/parser"
	"github.com/insightdelivered/tutor-portal/internal/portal"
	"github.com/insightdelivered/tutor-portal/internal/store"
	"github.com/insightdelivered/tutor-portal/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	formatFlag := flag.String("format", "json", "Output format: json or csv")
	outputFlag := flag.String("output", "", "Output file path (defaults to input filename with .json/.csv extension)")
	headerFlag := flag.Bool("header", true, "Include report metadata rows in CSV")
	serveFlag := flag.Bool("serve", false, "Run the tutor portal HTTP server")
	envFlag := flag.String("env", ".env", "Environment file loaded before reading PORTAL_* settings")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Tutor Portal - Exam Eligibility Report Extractor

Extracts per-student attendance, internal marks and eligibility from
university exam eligibility report PDFs, or serves the tutor portal API.

Usage:
  tutor-portal [flags] <report.pdf|report.txt> [more ...]
  tutor-portal --serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Extract a report to report.json
  tutor-portal report.pdf

  # CSV without the metadata rows
  tutor-portal --format=csv --header=false report.pdf

  # Text already extracted by another tool
  tutor-portal --output=s5.json s5.txt

  # Start the server (settings from .env and PORTAL_* variables)
  tutor-portal --serve
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("tutor-portal v%s\n", version)
		os.Exit(0)
	}

	if *serveFlag {
		if err := serve(*envFlag); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	format := strings.ToLower(*formatFlag)
	if format != "json" && format != "csv" {
		fatalf("Unknown format %q. Supported: json, csv\n", *formatFlag)
	}

	outputPath := *outputFlag
	if outputPath != "" && flag.NArg() > 1 {
		fatalf("--output can only be used with a single input file\n")
	}

	for _, inputPath := range flag.Args() {
		if err := processFile(inputPath, format, outputPath, *headerFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func serve(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	st, err := store.New(cfg.DataFile)
	if err != nil {
		return err
	}

	h := &api.Handler{
		Service:   portal.NewService(st),
		Issuer:    auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		Extractor: &extractor.Extractor{UsePdftotext: cfg.UsePdftotext},
		PublicDir: cfg.PublicDir,
		Version:   version,
	}
	app := api.NewApp(h, cfg.MaxUploadMB)

	log.Infof("tutor-portal v%s listening on %s (data: %s)", version, cfg.Addr, st.Path())
	return app.Listen(cfg.Addr)
}

func processFile(inputPath, format, outputPath string, includeHeader bool) error {
	// Validate input file
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	var pages []string
	switch ext := strings.ToLower(filepath.Ext(inputPath)); ext {
	case ".pdf":
		extracted, err := extractor.ExtractText(inputPath)
		if err != nil {
			return fmt.Errorf("PDF extraction failed: %w", err)
		}
		fmt.Printf("  Extracted text from %d page(s)\n", len(extracted))
		pages = extracted
	case ".txt":
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return err
		}
		pages = []string{string(data)}
	default:
		return fmt.Errorf("expected .pdf or .txt file, got %q", ext)
	}

	p := parser.NewEligibilityParser()
	fmt.Printf("  Using %s parser\n", p.ReportName())

	layout := parser.DetectLayout(strings.Join(pages, "\n"))
	fmt.Printf("  Detected layout: %s\n", layout)

	report := p.ParsePages(pages)
	fmt.Printf("  Found %d student(s)\n", len(report.Students))

	if len(report.Students) == 0 {
		fmt.Println("  Warning: No student rows found. The text may not be an exam eligibility report.")
	}

	// Determine output path
	outPath := outputPath
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + format
	}

	if err := writeReport(outPath, format, report, includeHeader); err != nil {
		return fmt.Errorf("%s write failed: %w", strings.ToUpper(format), err)
	}

	fmt.Printf("  Output: %s\n", outPath)
	if report.Metadata.GenerationDate != "" {
		fmt.Printf("  %s\n", report.Metadata.GenerationDate)
	}

	fmt.Println("  Done.")
	return nil
}

func writeReport(path, format string, report *models.ExtractionReport, includeHeader bool) error {
	if format == "csv" {
		w := &writer.CSVWriter{IncludeHeader: includeHeader}
		return w.WriteToFile(path, report)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
