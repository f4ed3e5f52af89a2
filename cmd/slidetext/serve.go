package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/gnemet/SlideText/internal/ai"
	"github.com/gnemet/SlideText/internal/api"
	"github.com/gnemet/SlideText/internal/config"
	"github.com/gnemet/SlideText/internal/database"
	"github.com/gnemet/SlideText/internal/extractor"
	"github.com/gnemet/SlideText/internal/observer"
)

var (
	port       int
	host       string
	watchStage bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction HTTP API",
	Long: `Start an HTTP server that extracts uploaded presentations
(POST /api/extract) and, when a database is configured, lists stored
extractions. With --watch the stage directory observer runs alongside
and its log is streamed on /api/events.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().BoolVarP(&watchStage, "watch", "w", false, "Also watch the stage directory")
}

// openStore connects when a database is configured; the returned db may be nil.
func openStore(cfg *config.Config) (*sql.DB, *database.Store, error) {
	if !cfg.Database.IsConfigured() {
		log.Printf("Note: no database configured, extractions are not stored")
		return nil, nil, nil
	}
	db, err := database.NewConnection(cfg.Database.GetConnectStr())
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureSchema(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, database.NewStore(db), nil
}

// newObserver wires the stage observer, attaching the AI summarizer when configured.
func newObserver(ctx context.Context, cfg *config.Config, store *database.Store, logChan chan string) (*observer.Observer, func(), error) {
	var obsStore observer.Store
	if store != nil {
		obsStore = store
	}
	o := observer.NewObserver(cfg.Application.Storage, extractor.NewSlidesExtractor(), obsStore, logChan)

	client, err := ai.NewClient(ctx, &cfg.AI)
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		o.Summarizer = client
	}
	return o, func() { client.Close() }, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Application.Port
	}
	if host == "" {
		host = cfg.Application.Host
	}

	db, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	opts := api.Options{
		UploadDir:   cfg.Application.Storage.Uploads,
		CORSOrigins: cfg.Application.CORSOrigins,
	}

	if watchStage {
		logChan := make(chan string, 100)
		o, closeAI, err := newObserver(ctx, cfg, store, logChan)
		if err != nil {
			return err
		}
		defer closeAI()
		opts.Events = logChan
		opts.Processing = o.IsProcessing

		go func() {
			if err := o.Start(ctx); err != nil {
				log.Printf("Observer stopped: %v", err)
			}
		}()
	}

	var repo api.Repository
	if store != nil {
		repo = store
	}
	server := api.NewServer(extractor.NewSlidesExtractor(), repo, opts)
	return server.ListenAndServe(ctx, fmt.Sprintf("%s:%d", host, port))
}
