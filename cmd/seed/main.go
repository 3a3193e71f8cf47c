package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"StockSeed/pkg/config"
	"StockSeed/pkg/database"
	"StockSeed/pkg/importer"
	"StockSeed/pkg/logx"
	"StockSeed/pkg/messaging"
	"StockSeed/pkg/scheduler"
	"StockSeed/pkg/source"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "seed",
		Short:         "Import daily OHLCV spreadsheets into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: configs/<APP_ENV>/app.yaml)")

	root.AddCommand(newImportCmd(a), newScheduleCmd(a))
	return root
}

// load 读取配置文件；未指定且默认文件不存在时只使用环境变量
func (a *app) load() error {
	path := a.configPath
	if path == "" {
		path = config.GetDefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			a.cfg = config.Default()
			a.logger = logx.NewDefault(a.cfg.Log.Level)
			return a.cfg.Validate()
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logx.NewDefault(cfg.Log.Level)
	return nil
}

func newImportCmd(a *app) *cobra.Command {
	var (
		file       string
		mode       string
		instrument string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import one spreadsheet (.xlsx, .csv or .parquet)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				a.cfg.Import.File = file
			}
			if mode != "" {
				a.cfg.Import.Mode = mode
			}
			if instrument != "" {
				a.cfg.Import.DefaultInstrument = instrument
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if a.cfg.Import.File == "" {
				return errors.New("未指定导入文件 (--file 或 import.file)")
			}
			return a.runImport(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "spreadsheet to import")
	cmd.Flags().StringVar(&mode, "mode", "", "check (skip existing datetimes) or force (insert unconditionally)")
	cmd.Flags().StringVar(&instrument, "instrument", "", "instrument used when a row has none")
	return cmd
}

func newScheduleCmd(a *app) *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Re-import the configured file on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if spec != "" {
				a.cfg.Import.Schedule = spec
			}
			if a.cfg.Import.Schedule == "" {
				return errors.New("未指定调度表达式 (--cron 或 import.schedule)")
			}
			if a.cfg.Import.File == "" {
				return errors.New("未指定导入文件 (import.file)")
			}

			ctx := cmd.Context()
			s := scheduler.NewScheduler(ctx, a.logger)
			if err := s.AddJob("import", a.cfg.Import.Schedule, a.runImport); err != nil {
				return err
			}

			s.Start()
			<-ctx.Done()
			a.logger.Info("正在停止调度器...")
			s.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron spec with seconds field, e.g. \"0 30 18 * * 1-5\"")
	return cmd
}

// runImport 读取文件并导入，数据库连接在本次导入结束时释放
func (a *app) runImport(ctx context.Context) error {
	cfg := a.cfg

	rows, err := source.Load(cfg.Import.File)
	if err != nil {
		return err
	}
	a.logger.Info("已读取数据文件", "file", cfg.Import.File, "rows", len(rows))

	opts := importer.Options{
		Source:            cfg.Import.File,
		Mode:              cfg.Import.Mode,
		DefaultInstrument: cfg.Import.DefaultInstrument,
	}
	if cfg.NATS.URL != "" {
		natsClient, err := messaging.NewNATSClient(cfg.NATS.URL, a.logger)
		if err != nil {
			a.logger.Warn("NATS不可用，跳过事件发布", "error", err)
		} else {
			defer natsClient.Close()
			opts.Notifier = natsClient
		}
	}

	connect := func(ctx context.Context) (importer.StoreCloser, error) {
		db, err := database.NewTimescaleDB(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(); err != nil {
				db.Close()
				return nil, err
			}
		}
		return db.Session(), nil
	}

	_, err = importer.Seed(ctx, connect, rows, a.logger, opts)
	return err
}
