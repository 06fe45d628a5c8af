// backend/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/database"
	"github.com/leadscout/adscraper/backend/handlers"
	"github.com/leadscout/adscraper/backend/services"
)

func main() {
	log.Println("Starting Lead Scout Backend Application...")

	configPath := flag.String("config", "", "path to config.yaml")
	runOnce := flag.Bool("once", false, "run one scrape pipeline pass and exit")
	exportOnce := flag.Bool("export", false, "with -once, also write a CSV export")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	path := *configPath
	if path == "" {
		path = "backend/config/config.yaml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = "config/config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	log.Printf("Configuration loaded. Server port: %s, DB name: %s",
		cfg.Server.Port, cfg.Database.DBName)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Error initializing schema: %v", err)
	}

	store := database.NewLeadStore(db)
	enricher := services.NewCompanyEnricher(cfg.Enrichment)
	pipeline := services.NewPipelineService(cfg, store, enricher)

	if *runOnce {
		report, err := pipeline.Run(context.Background(), services.PipelineOptions{})
		if report != nil {
			for _, res := range report.Results {
				status := "ok"
				if !res.Success {
					status = "FAILED"
				}
				log.Printf("  %-14s %s: %d leads in %s", res.Source, status, res.LeadsFound, res.Duration)
			}
		}
		if err != nil {
			log.Fatalf("Pipeline run failed: %v", err)
		}
		log.Printf("Stored %d leads.", report.LeadsStored)

		if *exportOnce {
			leads, err := store.GetLeads(context.Background(), database.LeadFilter{})
			if err != nil {
				log.Fatalf("Export failed: %v", err)
			}
			file, err := services.WriteLeadsCSVFile(cfg.Export.Directory, leads)
			if err != nil {
				log.Fatalf("Export failed: %v", err)
			}
			log.Printf("Wrote CSV export to %s", file)
		}
		return
	}

	handler := handlers.New(store, pipeline)

	serverAddr := ":" + cfg.Server.Port
	log.Printf("Server starting on http://localhost%s\n", serverAddr)
	if err := http.ListenAndServe(serverAddr, handler.Router()); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
