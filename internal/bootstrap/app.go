// Package bootstrap wires configuration, storage, the extraction pipeline,
// and HTTP handlers into a runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gtakpsi-software-dev/resume-app/internal/llm"
	"github.com/gtakpsi-software-dev/resume-app/internal/llm/gemini"
	"github.com/gtakpsi-software-dev/resume-app/internal/members"
	"github.com/gtakpsi-software-dev/resume-app/internal/parse"
	"github.com/gtakpsi-software-dev/resume-app/internal/resumes"
	"github.com/gtakpsi-software-dev/resume-app/internal/retention"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/auth"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/config"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/server"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/db"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/object"
	localstore "github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/object/local"
	s3store "github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/object/s3"
)

const sessionTTL = 24 * time.Hour

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Store          object.BlobStore
	Tokens         *auth.Service
	ResumesRepo    resumes.Repo
	ResumesService *resumes.Service
	MembersRepo    members.Repo
	MembersService *members.Service
	Sweeper        *retention.Sweeper
	ResumesHandler *resumes.Handler
	MembersHandler *members.Handler
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		if !isDevLike(cfg.Env) {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		log.Printf("bootstrap: JWT_SECRET empty; using a dev-only secret")
		cfg.JWTSecret = "dev-insecure-secret"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Tokens: auth.New(cfg.JWTSecret, sessionTTL),
	}
	buildServices(ctx, app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		Tokens:       app.Tokens,
		ResumeRoutes: app.ResumesHandler,
		AuthRoutes:   app.MembersHandler,
	})
	return app, nil
}

// StartSweeper launches the daily retention sweep in the background.
func (a *App) StartSweeper(ctx context.Context) {
	go a.Sweeper.Start(ctx)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.BlobStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(ctx context.Context, app *App) {
	if app.DB != nil {
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
		app.MembersRepo = &members.PGRepo{DB: app.DB}
	} else {
		app.ResumesRepo = resumes.NewMemoryRepo()
		app.MembersRepo = members.NewMemoryRepo()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if strings.TrimSpace(app.Config.GeminiAPIKey) != "" {
		client, err := gemini.NewClient(ctx, app.Config.GeminiAPIKey, app.Config.GeminiModel)
		if err != nil {
			log.Printf("bootstrap: gemini client unavailable; uploads will use fallback parsing: %v", err)
		} else {
			llmClient = client
		}
	} else {
		log.Printf("bootstrap: GEMINI_API_KEY empty; uploads will use fallback parsing")
	}

	app.ResumesService = resumes.NewService(app.ResumesRepo, app.Store, parse.NewExtractor(llmClient))
	app.MembersService = members.NewService(app.MembersRepo, app.Tokens, app.Config.AdminPassword, app.Config.MemberAccessCode)
	app.Sweeper = retention.NewSweeper(app.ResumesRepo, app.Store)

	app.ResumesHandler = resumes.NewHandler(app.ResumesService)
	app.MembersHandler = members.NewHandler(app.MembersService)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
