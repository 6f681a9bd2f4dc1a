package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/civic-data/equity.report/internal/config"
	"github.com/civic-data/equity.report/internal/db"
	"github.com/civic-data/equity.report/internal/pipeline"
	"github.com/civic-data/equity.report/internal/report"
	"github.com/civic-data/equity.report/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	configPath  = flag.String("config", "", "Path to pipeline config JSON (optional)")
	dbPath      = flag.String("db", "", "Path to results database (overrides config)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	// A .env file is optional; flags and config still win.
	_ = godotenv.Load()

	// The migrate subcommand bypasses the normal flag set.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		path := os.Getenv("EQUITY_REPORT_DB")
		if path == "" {
			path = config.EmptyPipelineConfig().GetDBPath()
		}
		db.RunMigrateCommand(os.Args[2:], path)
		return
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("equity-report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if addr := os.Getenv("EQUITY_REPORT_LISTEN"); addr != "" && *listen == ":8080" {
		*listen = addr
	}

	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadPipelineConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	resolvedDBPath := cfg.GetDBPath()
	if *dbPath != "" {
		resolvedDBPath = *dbPath
	} else if env := os.Getenv("EQUITY_REPORT_DB"); env != "" {
		resolvedDBPath = env
	}

	database, err := db.NewDB(resolvedDBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := pipeline.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("Pipeline run failed: %v", err)
	}
	log.Printf("Pipeline complete in %v: %d tracts, %d demographic records, %d stops, %d camera records",
		time.Since(start).Round(time.Millisecond),
		result.Sources.Tracts, result.Sources.Demographics, result.Sources.Stops, result.Sources.Cameras)

	run, err := database.SaveRun(result)
	if err != nil {
		log.Fatalf("Failed to store run: %v", err)
	}
	log.Printf("Stored run %s", run.RunID)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes
		database.AttachAdminRoutes(mux)

		// mount the report routes
		mux.Handle("/", report.NewServer(database, result, run).ServeMux())

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		go func() {
			log.Printf("Report server listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
