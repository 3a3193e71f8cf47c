// pkg/database/stock.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"StockSeed/pkg/model"
)

var (
	// ErrDuplicate 该时间戳的数据已存在
	ErrDuplicate = errors.New("数据已存在")
	// ErrNotFound 数据不存在
	ErrNotFound = errors.New("数据不存在")
)

type StockDB struct {
	db *gorm.DB
}

func (t *TimescaleDB) Stock() *StockDB {
	return &StockDB{db: t.db}
}

// BarFilter 查询条件，零值字段不参与过滤
type BarFilter struct {
	Instrument string
	From       time.Time
	To         time.Time
	Limit      int
}

func (s *StockDB) ExistsByDatetime(ctx context.Context, datetime time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.StockBar{}).
		Where("datetime = ?", datetime.UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询时间戳失败: %w", err)
	}
	return count > 0, nil
}

func (s *StockDB) Create(ctx context.Context, bar *model.StockBar) error {
	bar.Datetime = bar.Datetime.UTC()
	err := s.db.WithContext(ctx).Create(bar).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s: %w", bar.Datetime.Format(time.RFC3339), ErrDuplicate)
		}
		return fmt.Errorf("保存K线数据失败: %w", err)
	}
	return nil
}

func (s *StockDB) GetByDatetime(ctx context.Context, datetime time.Time) (*model.StockBar, error) {
	var bar model.StockBar
	err := s.db.WithContext(ctx).First(&bar, "datetime = ?", datetime.UTC()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("获取K线数据失败: %w", err)
	}
	return &bar, nil
}

// List 按时间升序返回符合条件的K线
func (s *StockDB) List(ctx context.Context, filter BarFilter) ([]*model.StockBar, error) {
	var bars []*model.StockBar
	query := applyFilter(s.db.WithContext(ctx).Model(&model.StockBar{}), filter)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Order("datetime ASC").Find(&bars).Error; err != nil {
		return nil, fmt.Errorf("查询K线数据失败: %w", err)
	}
	return bars, nil
}

// Count 统计符合条件的K线数量，忽略Limit
func (s *StockDB) Count(ctx context.Context, filter BarFilter) (int64, error) {
	var count int64
	err := applyFilter(s.db.WithContext(ctx).Model(&model.StockBar{}), filter).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计K线数据失败: %w", err)
	}
	return count, nil
}

func applyFilter(query *gorm.DB, filter BarFilter) *gorm.DB {
	if filter.Instrument != "" {
		query = query.Where("instrument = ?", filter.Instrument)
	}
	if !filter.From.IsZero() {
		query = query.Where("datetime >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("datetime <= ?", filter.To.UTC())
	}
	return query
}

// Session 持有一次导入使用的连接，Close时释放
type Session struct {
	*StockDB
	conn *TimescaleDB
}

func (t *TimescaleDB) Session() *Session {
	return &Session{StockDB: t.Stock(), conn: t}
}

func (s *Session) Close() error {
	return s.conn.Close()
}
