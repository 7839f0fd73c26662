package table_io

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"datascrub/service/models"

	"github.com/xuri/excelize/v2"
)

// WriteCSV 写出 CSV，缺失值写为空字段
func WriteCSV(w io.Writer, t *models.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	record := make([]string, t.NumColumns())
	for i := 0; i < t.NumRows(); i++ {
		for c, v := range t.Row(i) {
			record[c] = formatCell(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile 按扩展名写出 .csv 或 .xlsx 文件
func WriteFile(path string, t *models.Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("创建文件失败: %w", err)
		}
		if err := WriteCSV(f, t); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ExtXLSX:
		return writeXLSX(path, t)
	default:
		return &models.UnsupportedFormatError{Path: path}
	}
}

func writeXLSX(path string, t *models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, t.NumColumns())
	for i, name := range t.ColumnNames() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, t.NumColumns())
		for c, v := range t.Row(i) {
			if n, ok := v.Float(); ok {
				row[c] = n
			} else {
				row[c] = formatCell(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存工作簿失败: %w", err)
	}
	return nil
}

func formatCell(v models.Cell) string {
	if v.IsMissing() {
		return ""
	}
	return v.String()
}
