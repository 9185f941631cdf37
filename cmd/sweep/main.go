package main

// Run one retention sweep and exit:
//   go run ./cmd/sweep

import (
	"context"
	"log"
	"os"

	"github.com/gtakpsi-software-dev/resume-app/internal/resumes"
	"github.com/gtakpsi-software-dev/resume-app/internal/retention"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/config"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/db"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/object"
	localstore "github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/object/local"
	s3store "github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/object/s3"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultCLIOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	var store object.BlobStore
	if cfg.ObjectStoreType == "s3" {
		store, err = s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			log.Printf("failed to build s3 store: %v", err)
			os.Exit(1)
		}
	} else {
		store = localstore.New(cfg.LocalStoreDir)
	}

	sweeper := retention.NewSweeper(&resumes.PGRepo{DB: sqlDB}, store)
	summary, err := sweeper.Run(ctx)
	if err != nil {
		log.Printf("sweep failed: %v", err)
		os.Exit(1)
	}
	log.Printf("sweep done: eligible=%d deleted=%d failures=%d", summary.Eligible, summary.Deleted, summary.Failures)
}
