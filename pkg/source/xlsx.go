package source

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// Excel序列号上限，对应9999-12-31
const maxExcelSerial = 2958465

// ReadXLSX 读取工作簿的第一个工作表。
// 单元格按原始值读取，数值不受显示格式影响；时间列中的Excel日期序列号转换为RFC3339文本。
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析Excel文件失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("Excel文件中没有工作表")
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheets[0], err)
	}

	rows := fromTable(records)
	for _, row := range rows {
		if value, ok := row[ColDatetime]; ok {
			row[ColDatetime] = serialToRFC3339(value)
		}
	}
	return rows, nil
}

// serialToRFC3339 非序列号的值原样返回
func serialToRFC3339(value string) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 || serial > maxExcelSerial {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.UTC().Format(time.RFC3339)
}
