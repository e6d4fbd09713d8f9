package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/abnzrdev/trainer/internal/api"
	"github.com/abnzrdev/trainer/internal/cli/repl"
	"github.com/abnzrdev/trainer/internal/common/db"
	"github.com/abnzrdev/trainer/internal/content"
	"github.com/abnzrdev/trainer/internal/problem/repository"
	"github.com/abnzrdev/trainer/internal/service"
	"github.com/abnzrdev/trainer/internal/verify"
	"github.com/abnzrdev/trainer/internal/verify/engine"
	"github.com/abnzrdev/trainer/internal/workspace"
	"github.com/abnzrdev/trainer/pkg/utils/logger"
)

const defaultConfigPath = "configs/trainer.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	database, err := db.Open(appCfg.Database)
	if err != nil {
		logger.Error(ctx, "init database failed", zap.Error(err))
		return
	}
	defer func() {
		_ = database.Close()
	}()

	if err := repository.InitSchema(ctx, database); err != nil {
		logger.Error(ctx, "init schema failed", zap.Error(err))
		return
	}

	var fetcher *content.Fetcher
	if appCfg.Content.Source.BaseURL != "" {
		fetcher, err = content.NewFetcher(appCfg.Content.Source)
		if err != nil {
			logger.Error(ctx, "init sample fetcher failed", zap.Error(err))
			return
		}
	}
	samples := content.NewStore(appCfg.Content.CacheDir, fetcher)

	template, err := appCfg.solutionTemplate()
	if err != nil {
		logger.Error(ctx, "load solution template failed", zap.Error(err))
		return
	}
	workspaces := workspace.NewManager(appCfg.Workspace.RootDir, template)

	harness := verify.NewHarness(engine.NewProcessEngine(), appCfg.Verify)

	trainer, err := service.NewTrainer(service.Config{
		Problems:   repository.NewProblemRepository(database),
		Attempts:   repository.NewAttemptRepository(database),
		Reviews:    repository.NewReviewStateRepository(database),
		Harness:    harness,
		Samples:    samples,
		Workspaces: workspaces,
	})
	if err != nil {
		logger.Error(ctx, "init trainer failed", zap.Error(err))
		return
	}

	var server *api.Server
	if appCfg.Server.Enabled {
		server = api.NewServer(appCfg.Server, trainer)
		go func() {
			logger.Info(ctx, "status api listening", zap.String("addr", server.Addr()))
			if err := server.Start(); err != nil {
				logger.Error(ctx, "status api failed", zap.Error(err))
			}
		}()
	}

	repl.New(trainer, appCfg.Editor).Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "status api shutdown failed", zap.Error(err))
		}
	}
}
