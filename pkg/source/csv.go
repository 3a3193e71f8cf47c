package source

import (
	"encoding/csv"
	"fmt"
	"io"
)

func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV文件失败: %w", err)
	}
	return fromTable(records), nil
}
