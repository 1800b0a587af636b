package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ContactImportHeader 导入模板表头（与 ingest.ContactRow 的列对应）
var ContactImportHeader = []string{
	"Name",
	"Address",
	"City",
	"State",
	"Country",
	"Pincode",
	"Category",
	"Phone 1",
	"Phone 2",
	"Phone 3",
	"Phone 4",
	"Office Phone",
	"Residence Phone",
	"Emails",
	"Notes",
}

// GenerateContactImportTemplate 生成导入模板 Excel 文件（只有表头）
func GenerateContactImportTemplate() ([]byte, error) {
	return GenerateContactsExcel(ContactImportHeader, nil)
}

// GenerateContactsExcel 生成联系人 Excel 文件
// headers: 表头列表
// rows: 数据行，为空时只生成表头
func GenerateContactsExcel(headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Contacts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 设置表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 设置列宽（姓名/地址类列宽一些）
	for col := range headers {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			continue
		}
		width := 18.0
		if col == 0 {
			width = 25.0
		}
		_ = f.SetColWidth(sheetName, name, name, width)
	}

	// 写入数据行
	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}
	return buf.Bytes(), nil
}
