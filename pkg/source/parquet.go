package source

import (
	"fmt"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Bar 爬虫落盘的Parquet K线格式
type Bar struct {
	Timestamp int64   `parquet:"t"` // 毫秒级Unix时间戳
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    int64   `parquet:"v"`
}

// ReadParquet 读取Parquet K线文件，文件中不含品种代码
func ReadParquet(path string) ([]Row, error) {
	bars, err := parquet.ReadFile[Bar](path)
	if err != nil {
		return nil, fmt.Errorf("读取Parquet文件失败: %w", err)
	}

	rows := make([]Row, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, Row{
			ColDatetime: time.UnixMilli(bar.Timestamp).UTC().Format(time.RFC3339Nano),
			ColOpen:     formatFloat(bar.Open),
			ColHigh:     formatFloat(bar.High),
			ColLow:      formatFloat(bar.Low),
			ColClose:    formatFloat(bar.Close),
			ColVolume:   strconv.FormatInt(bar.Volume, 10),
		})
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
