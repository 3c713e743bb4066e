package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	googleauth "resume-studio/internal/auth"
	"resume-studio/internal/chats"
	"resume-studio/internal/export"
	"resume-studio/internal/llm"
	"resume-studio/internal/llm/openai"
	"resume-studio/internal/resume"
	"resume-studio/internal/shared/config"
	"resume-studio/internal/shared/server"
	"resume-studio/internal/shared/server/middleware"
	"resume-studio/internal/shared/storage/db"
	"resume-studio/internal/shared/storage/kv"
	"resume-studio/internal/shared/storage/object"
	localstore "resume-studio/internal/shared/storage/object/local"
	miniostore "resume-studio/internal/shared/storage/object/minio"
	s3store "resume-studio/internal/shared/storage/object/s3"
	"resume-studio/internal/shared/telemetry"
	"resume-studio/internal/shared/worker"
	"resume-studio/internal/uploads"
	"resume-studio/internal/users"
)

const pruneTaskTimeout = 30 * time.Second

// App holds the wired dependencies of the API process.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Redis  *redis.Client
	Store  object.ObjectStore
	Tasks  *worker.Pool

	Resumes *resume.Service
	Chats   *chats.Service
	Uploads *uploads.Service
	Export  *export.Service
	Users   *users.Service
}

// Build connects storage and wires services and routes. Dev-like environments
// fall back to in-memory repositories when the database is unreachable.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	locker, err := buildLocker(ctx, app)
	if err != nil {
		app.Close()
		return nil, err
	}

	client, err := buildLLM(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Tasks = worker.NewPool(max(cfg.PruneWorkers, 1), 64, pruneTaskTimeout)

	var (
		resumeRepo resume.Repo
		chatRepo   chats.Repo
		userRepo   users.Repo
	)
	if app.DB != nil {
		resumeRepo = &resume.PGRepo{DB: app.DB}
		chatRepo = &chats.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		resumeRepo = resume.NewMemoryRepo()
		chatRepo = chats.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	app.Resumes = resume.NewService(resumeRepo, app.Store)
	app.Chats = chats.NewService(chatRepo, app.Resumes, client, locker, app.Tasks)
	app.Uploads = uploads.NewService(app.Resumes, app.Store)
	app.Export = export.NewService(app.Resumes, export.ChromeRenderer{ExecPath: cfg.ChromePath})
	app.Users = users.NewService(userRepo)

	var authOpts []googleauth.Option
	if app.Redis != nil {
		authOpts = append(authOpts, googleauth.WithStateStore(googleauth.NewRedisStates(app.Redis)))
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Resumes:     resume.NewHandler(app.Resumes),
		Chats:       chats.NewHandler(app.Chats),
		Uploads:     uploads.NewHandler(app.Uploads),
		Export:      export.NewHandler(app.Export),
		Users:       users.NewHandler(app.Users),
		GoogleAuth:  googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL, app.Users, authOpts...),
		ChatLimiter: middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close drains background work and releases connections.
func (a *App) Close() {
	if a.Tasks != nil {
		a.Tasks.Shutdown()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			telemetry.Warn("bootstrap.redis.close_failed", map[string]any{"err": err})
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			telemetry.Warn("bootstrap.db.close_failed", map[string]any{"err": err})
		}
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "err": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			Region:    cfg.AWSRegion,
			UseSSL:    cfg.MinIOUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildLocker serializes chat sends across API replicas when Redis is
// configured, and within the process otherwise. The Redis client is kept on
// app for the OAuth state store.
func buildLocker(ctx context.Context, app *App) (chats.Locker, error) {
	if strings.TrimSpace(app.Config.RedisURL) == "" {
		return chats.NewMemoryLocker(), nil
	}
	client, err := kv.Connect(ctx, app.Config.RedisURL)
	if err != nil {
		if isDevLike(app.Config.Env) {
			telemetry.Warn("bootstrap.redis.memory_lock", map[string]any{"err": err})
			return chats.NewMemoryLocker(), nil
		}
		return nil, err
	}
	app.Redis = client
	return chats.NewRedisLocker(client, app.Config.ChatLockTTL), nil
}

func buildLLM(cfg config.Config) (llm.ChatClient, error) {
	if cfg.LLMProvider != "openai" || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Warn("bootstrap.llm.placeholder", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
