package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 表头列名（区分大小写）
const (
	ColDatetime   = "datetime"
	ColOpen       = "open"
	ColHigh       = "high"
	ColLow        = "low"
	ColClose      = "close"
	ColVolume     = "volume"
	ColInstrument = "instrument"
)

// Row 一行原始数据，列名到单元格原始文本
type Row map[string]string

// Load 按扩展名读取数据文件，返回按源顺序排列的行
func Load(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("打开数据文件失败: %w", err)
		}
		defer f.Close()
		return ReadXLSX(f)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("打开数据文件失败: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".parquet":
		return ReadParquet(path)
	default:
		return nil, fmt.Errorf("不支持的文件类型: %s", path)
	}
}

// fromTable 将首行作为表头，把其余各行转换为Row，整行为空的记录被忽略
func fromTable(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		blank := true
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value != "" {
				blank = false
			}
			row[name] = value
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
