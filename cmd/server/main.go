package main

import (
	"fmt"
	"log"

	"flatfeed/internal/config"
	"flatfeed/internal/handler"
	"flatfeed/internal/port"
	"flatfeed/internal/repository/postgres"
	"flatfeed/internal/router"
	"flatfeed/internal/schema"
	"flatfeed/internal/service"
	s3storage "flatfeed/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	sch, err := schema.LoadFile(cfg.Export.SchemaPath)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	log.Printf("loaded schema %s (%d columns)", cfg.Export.SchemaPath, sch.Len())

	recordStore := postgres.NewRecordRepo(db)

	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	exportSvc := service.NewExportService(recordStore, storage, cfg.Run, cfg.S3)

	exportH := handler.NewExportHandler(exportSvc, sch, cfg.Run)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(exportH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
