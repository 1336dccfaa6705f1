package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/crowdfund/internal/chain"
	"github.com/blues/crowdfund/internal/config"
	"github.com/blues/crowdfund/internal/host"
	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/logic"
	"github.com/blues/crowdfund/internal/repository"
	"github.com/blues/crowdfund/internal/router"
	"github.com/blues/crowdfund/internal/scheduler"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 初始化日志
	log, err := logger.Setup(cfg.Log)
	if err != nil {
		logger.Fatal("Failed to setup logger: %v", err)
	}
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 宿主时间来源
	var clock host.Clock = host.SystemClock{}
	if cfg.Chain.Clock == "block" {
		client, err := chain.Dial(ctx, cfg.Chain)
		if err != nil {
			logger.Fatal("Failed to initialize chain client: %v", err)
		}
		defer client.Close()
		clock = chain.NewBlockClock(client)
	}

	runtime := host.NewRuntime(db, clock)

	// 首次启动时部署合约
	deployed, err := runtime.Deployed(ctx)
	if err != nil {
		logger.Fatal("Failed to check deployment: %v", err)
	}
	if !deployed {
		err := runtime.Deploy(ctx, cfg.Campaign.OwnerAddress(), host.DeployParams{
			Target:   cfg.Campaign.TargetAmount(),
			Deadline: cfg.Campaign.Deadline,
			Alloc:    cfg.Campaign.GenesisAlloc(),
		})
		if err != nil {
			logger.Fatal("Failed to deploy campaign: %v", err)
		}
	}

	// 启动定时任务
	tasks, err := scheduler.Start(runtime, cfg)
	if err != nil {
		logger.Fatal("Failed to start scheduler: %v", err)
	}
	defer tasks.Stop()

	// 初始化路由
	r := router.Setup(runtime, logic.NewEventLogic(db), cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server exited")
}
