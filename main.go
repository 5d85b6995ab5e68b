package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/felo/som-extract/internal/config"
	"github.com/felo/som-extract/internal/handlers"
	"github.com/felo/som-extract/internal/parser"
	"github.com/felo/som-extract/internal/scanner"
	"github.com/felo/som-extract/internal/som"
	"github.com/felo/som-extract/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg := config.Default()

	flag.StringVar(&cfg.Description, "desc", cfg.Description, "Description for every entry; empty (including -desc \"\") means cert+<today>")
	flag.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output CSV path")
	legacy := flag.Bool("legacy-desc", false, "Default description as \"cert <today>\"")
	serve := flag.Bool("serve", false, "Start the local upload form instead of processing files")
	noBrowser := flag.Bool("no-browser", false, "Do not open a browser in -serve mode")
	flag.StringVar(&cfg.Host, "host", cfg.Host, "Upload form host")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "Upload form port")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] report.eml|report.msg|dir ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *legacy {
		cfg.UseLegacyDescription()
	}

	loader := parser.NewLoader()
	if !loader.ContainerSupported() {
		log.Printf("Built without .msg support")
	}
	pipeline := som.NewPipeline(loader).WithSeparator(cfg.DescriptionSeparator)

	if *serve {
		runServer(cfg, pipeline, !*noBrowser)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	rows, err := extractAll(pipeline, cfg.Description, flag.Args())
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}

	if err := som.WriteCSVFile(cfg.OutputPath, rows); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	size := ""
	if info, err := os.Stat(cfg.OutputPath); err == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	fmt.Printf("Saved %d entries to %s%s\n", len(rows), cfg.OutputPath, size)
}

// extractAll runs every report named on the command line, expanding
// directories, and concatenates the rows in argument order
func extractAll(pipeline *som.Pipeline, description string, args []string) ([]som.Row, error) {
	var rows []som.Row

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			fileRows, err := pipeline.Run(arg, description)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", arg, err)
			}
			rows = append(rows, fileRows...)
			continue
		}

		scan := scanner.NewScanner(arg)
		log.Printf("Scanning reports in: %s", scan.GetRootPath())
		err = scan.ScanWithCallback(func(path string, index, total int) error {
			fileRows, err := pipeline.Run(path, description)
			if err != nil {
				return err
			}
			log.Printf("[%d/%d] %s: %d entries", index, total, path, len(fileRows))
			rows = append(rows, fileRows...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return rows, nil
}

// runServer serves the upload form until interrupted or shut down from the page
func runServer(cfg *config.Config, pipeline *som.Pipeline, browser bool) {
	// Create shutdown signal channel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	h := handlers.New(pipeline, cfg)
	h.SetShutdownChannel(sigChan)
	if err := h.LoadTemplates(web.Assets); err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	// Set up router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Routes
	r.Get("/", h.Index)
	r.Post("/extract", h.Extract)
	r.Post("/shutdown", h.Shutdown)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", cfg.URL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if browser {
		time.Sleep(500 * time.Millisecond) // Give server time to start
		if err := openBrowser(cfg.URL()); err != nil {
			log.Printf("Failed to open browser: %v", err)
			log.Printf("Please open your browser and navigate to: %s", cfg.URL())
		}
	}

	<-sigChan
	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// openBrowser opens the default browser to the specified URL
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
