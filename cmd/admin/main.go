package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/repository"
	"github.com/noah-isme/upstander-api/internal/service"
	"github.com/noah-isme/upstander-api/pkg/cache"
	"github.com/noah-isme/upstander-api/pkg/config"
	"github.com/noah-isme/upstander-api/pkg/database"
	"github.com/noah-isme/upstander-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	// Schools changed here must drop the API's cached searches.
	cacheRepo := repository.NewCacheRepository(redisClient)
	cacheSvc := service.NewCacheService(cacheRepo, service.NewMetricsService(), cfg.Schools.CacheTTL, logr, cacheRepo.Enabled())

	cli := &commandLine{
		db:      db.DB,
		admins:  repository.NewAdminRepository(db),
		schools: service.NewSchoolService(repository.NewSchoolRepository(db), cacheSvc, cfg.Schools.CacheTTL),
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logr.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
