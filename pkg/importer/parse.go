package importer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"StockSeed/pkg/model"
	"StockSeed/pkg/source"
)

var (
	// ErrInvalidDatetime 时间无法解析
	ErrInvalidDatetime = errors.New("无效的时间")
	// ErrInvalidField 数值字段无法解析
	ErrInvalidField = errors.New("无效的数值字段")
)

// FieldError 某一列的取值无法转换
type FieldError struct {
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("列 %s 的值 %q 无效: %v", e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidField
}

// 支持的时间格式，不带时区的按UTC解释
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"20060102",
}

// ParseDatetime 解析时间文本，纯数字（年份、序号等）不被当作时间
func ParseDatetime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%q: %w", raw, ErrInvalidDatetime)
	}

	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%q: %w", raw, ErrInvalidDatetime)
}

func parsePrice(row source.Row, column string) (float64, error) {
	raw := row[column]
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &FieldError{Column: column, Value: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Column: column, Value: raw, Err: errors.New("非有限数值")}
	}
	return v, nil
}

// parseVolume 接受整数文本，也接受小数部分为零的数值（如 "15000.0"）
func parseVolume(row source.Row) (int64, error) {
	raw := strings.TrimSpace(row[source.ColVolume])
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &FieldError{Column: source.ColVolume, Value: row[source.ColVolume], Err: err}
	}
	// float64(math.MaxInt64) 即 2^63，已超出int64范围
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, &FieldError{Column: source.ColVolume, Value: row[source.ColVolume], Err: errors.New("不是整数")}
	}
	return int64(f), nil
}

// buildBar 在时间戳已解析的前提下转换其余字段
func buildBar(datetime time.Time, row source.Row, defaultInstrument string) (*model.StockBar, error) {
	bar := &model.StockBar{Datetime: datetime}

	prices := []struct {
		column string
		dst    *float64
	}{
		{source.ColOpen, &bar.Open},
		{source.ColHigh, &bar.High},
		{source.ColLow, &bar.Low},
		{source.ColClose, &bar.Close},
	}
	for _, p := range prices {
		v, err := parsePrice(row, p.column)
		if err != nil {
			return nil, err
		}
		*p.dst = v
	}

	volume, err := parseVolume(row)
	if err != nil {
		return nil, err
	}
	bar.Volume = volume

	bar.Instrument = strings.TrimSpace(row[source.ColInstrument])
	if bar.Instrument == "" {
		bar.Instrument = defaultInstrument
	}
	return bar, nil
}
