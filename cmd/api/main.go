package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"StockSeed/pkg/api"
	"StockSeed/pkg/config"
	"StockSeed/pkg/database"
	"StockSeed/pkg/logx"
	"StockSeed/pkg/messaging"
	"StockSeed/pkg/monitor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 加载配置
	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	logger := logx.NewDefault(cfg.Log.Level)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("API服务异常退出", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("启动API服务...")

	db, err := database.NewTimescaleDB(cfg)
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			return err
		}
	}

	mon := monitor.NewMonitor(func(component, status, message string) {
		logger.Warn("组件状态异常", "component", component, "status", status, "message", message)
	})
	mon.RegisterComponent("database", db.Ping)

	handlers := api.NewHandlers(db.Stock(), mon, cfg.Import.DefaultInstrument)

	if cfg.NATS.URL != "" {
		natsClient, err := messaging.NewNATSClient(cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("连接NATS失败", "error", err)
		} else {
			defer natsClient.Close()
			mon.RegisterComponent("nats", func(context.Context) error {
				if !natsClient.IsConnected() {
					return errors.New("NATS未连接")
				}
				return nil
			})
			// 订阅导入结果
			err := natsClient.Subscribe(messaging.StreamImports, "api-imports", messaging.SubjectImportCompleted, handlers.RecordImport)
			if err != nil {
				logger.Warn("订阅导入结果失败", "error", err)
			}
		}
	}

	server := api.NewServer(cfg.API.Port, logger)
	server.SetupRoutes(handlers)
	return server.Run(ctx)
}
