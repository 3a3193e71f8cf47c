package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"StockSeed/pkg/config"
	"StockSeed/pkg/model"
	"StockSeed/pkg/source"
)

// Store 导入所需的存储能力
type Store interface {
	ExistsByDatetime(ctx context.Context, datetime time.Time) (bool, error)
	Create(ctx context.Context, bar *model.StockBar) error
}

// StoreCloser 带有连接生命周期的存储
type StoreCloser interface {
	Store
	Close() error
}

// Notifier 导入事件的接收方，通知失败不影响导入
type Notifier interface {
	BarImported(ctx context.Context, bar *model.StockBar) error
	ImportFinished(ctx context.Context, report *Report) error
}

// Options 导入选项
type Options struct {
	Source            string
	Mode              string
	DefaultInstrument string
	Notifier          Notifier
}

// Report 一次导入的结果统计
type Report struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	Mode       string    `json:"mode"`
	Total      int       `json:"total"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Invalid    int       `json:"invalid"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// Importer 按源顺序逐行导入K线
type Importer struct {
	store  Store
	logger *slog.Logger
	opts   Options
}

func New(store Store, logger *slog.Logger, opts Options) *Importer {
	if opts.Mode == "" {
		opts.Mode = config.ModeCheck
	}
	if opts.DefaultInstrument == "" {
		opts.DefaultInstrument = config.DefaultInstrument
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger, opts: opts}
}

// Run 处理全部行。时间无效、时间重复、数值无效的行被跳过；
// 存储错误终止剩余的行并返回，此前已插入的数据保留。
func (im *Importer) Run(ctx context.Context, rows []source.Row) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		Source:    im.opts.Source,
		Mode:      im.opts.Mode,
		Total:     len(rows),
		StartedAt: time.Now().UTC(),
	}
	logger := im.logger.With("run_id", report.RunID)

	err := im.importRows(ctx, logger, rows, report)
	report.FinishedAt = time.Now().UTC()

	if err != nil {
		report.Error = err.Error()
		logger.Error("❌ 数据导入失败",
			"error", err,
			"inserted", report.Inserted,
		)
	} else {
		logger.Info("✅ 数据导入完成",
			"total", report.Total,
			"inserted", report.Inserted,
			"duplicates", report.Duplicates,
			"invalid", report.Invalid,
		)
	}

	if im.opts.Notifier != nil {
		if nerr := im.opts.Notifier.ImportFinished(ctx, report); nerr != nil {
			logger.Warn("发布导入结果失败", "error", nerr)
		}
	}
	return report, err
}

func (im *Importer) importRows(ctx context.Context, logger *slog.Logger, rows []source.Row, report *Report) error {
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("导入被取消: %w", err)
		}
		line := i + 1

		datetime, err := ParseDatetime(row[source.ColDatetime])
		if err != nil {
			report.Invalid++
			logger.Warn("跳过无效时间", "row", line, "datetime", row[source.ColDatetime])
			continue
		}

		if im.opts.Mode == config.ModeCheck {
			exists, err := im.store.ExistsByDatetime(ctx, datetime)
			if err != nil {
				return fmt.Errorf("第%d行查询失败: %w", line, err)
			}
			if exists {
				report.Duplicates++
				logger.Info("跳过重复时间", "row", line, "datetime", datetime.Format(time.RFC3339))
				continue
			}
		}

		bar, err := buildBar(datetime, row, im.opts.DefaultInstrument)
		if err != nil {
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				return err
			}
			report.Invalid++
			logger.Warn("跳过无效数值",
				"row", line,
				"column", fieldErr.Column,
				"value", fieldErr.Value,
			)
			continue
		}

		if err := im.store.Create(ctx, bar); err != nil {
			return fmt.Errorf("第%d行写入失败: %w", line, err)
		}
		report.Inserted++
		logger.Debug("已写入", "row", line, "datetime", bar.Datetime.Format(time.RFC3339))

		if im.opts.Notifier != nil {
			if nerr := im.opts.Notifier.BarImported(ctx, bar); nerr != nil {
				logger.Warn("发布K线事件失败", "row", line, "error", nerr)
			}
		}
	}
	return nil
}

// Connector 建立一次导入使用的存储连接
type Connector func(ctx context.Context) (StoreCloser, error)

// Seed 获取连接、导入全部行，并在任何退出路径上释放连接一次
func Seed(ctx context.Context, connect Connector, rows []source.Row, logger *slog.Logger, opts Options) (report *Report, err error) {
	store, err := connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("释放数据库连接失败: %w", cerr)
		}
	}()

	return New(store, logger, opts).Run(ctx, rows)
}
