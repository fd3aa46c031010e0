package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/eps/internal/config"
	"github.com/blues/eps/internal/database"
	"github.com/blues/eps/internal/gateway"
	"github.com/blues/eps/internal/logger"
	"github.com/blues/eps/internal/logic"
	"github.com/blues/eps/internal/notifier"
	"github.com/blues/eps/internal/router"
	"github.com/blues/eps/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithFileRotation(logger.ParseLogLevel(cfg.Log.Level), cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化支付网关客户端，进程内只构造一次
	gatewayClient := gateway.NewClient(cfg.Gateway)

	// 初始化通知分发器
	dispatcher, err := notifier.NewAsyncDispatcher(db, 16)
	if err != nil {
		logger.Fatal("Failed to initialize notification dispatcher: %v", err)
	}
	defer dispatcher.Close()

	// 初始化业务逻辑
	escrowLogic := logic.NewEscrowLogic(db, gatewayClient, dispatcher, cfg.Escrow, cfg.Gateway.Currency)
	disputeLogic := logic.NewDisputeLogic(db, dispatcher)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 启动定时任务
	taskManager := task.NewManager(db, escrowLogic, dispatcher, cfg)
	taskManager.Start()

	// 初始化路由
	r := router.Setup(escrowLogic, disputeLogic, taskManager)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 等待退出信号，让执行中的扫描跑完再退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	taskManager.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
