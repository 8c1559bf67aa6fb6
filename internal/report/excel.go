package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type ExcelExporter struct {
	OutputDir string
}

func NewExcelExporter(outputDir string) *ExcelExporter {
	return &ExcelExporter{OutputDir: outputDir}
}

// Export writes a workbook with a dashboard sheet followed by one sheet per
// non-empty category and returns its path.
func (e *ExcelExporter) Export(week WeekTasks, r DateRange) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(e.OutputDir, fmt.Sprintf("summary_%s.xlsx", timestamp))

	f := excelize.NewFile()
	defer f.Close()

	if err := e.createDashboardSheet(f, "Dashboard", week, r); err != nil {
		return "", fmt.Errorf("failed to create dashboard: %w", err)
	}

	for _, c := range Categories {
		items := week.Items(c)
		if len(items) == 0 {
			continue
		}
		sheetName := sanitizeSheetName(string(c))
		if err := e.createCategorySheet(f, sheetName, items); err != nil {
			return "", fmt.Errorf("failed to create sheet for %s: %w", c, err)
		}
	}

	if idx, err := f.GetSheetIndex("Dashboard"); err == nil {
		f.SetActiveSheet(idx)
	}
	// Sheet1 is the default sheet of a new workbook; the dashboard replaces it.
	_ = f.DeleteSheet("Sheet1")

	if err := f.SaveAs(filename); err != nil {
		return "", fmt.Errorf("failed to save excel file: %w", err)
	}

	return filename, nil
}

func (e *ExcelExporter) createDashboardSheet(f *excelize.File, sheetName string, week WeekTasks, r DateRange) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(headerStyleDef())
	if err != nil {
		return err
	}

	totalStyle, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#B4C7E7"}, Pattern: 1},
		Font:   &excelize.Font{Bold: true},
		Border: thinBorder(),
	})
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Date From:")
	f.SetCellValue(sheetName, "B1", r.StartDate)
	f.SetCellValue(sheetName, "A2", "Date to:")
	f.SetCellValue(sheetName, "B2", r.EndDate)

	projectNames, counts := countByProject(week)

	row := 4
	col := 1
	headers := append([]string{"Category"}, projectNames...)
	headers = append(headers, "Total", "Original Estimate", "Completed Work")
	for _, h := range headers {
		f.SetCellValue(sheetName, cellName(col, row), h)
		f.SetCellStyle(sheetName, cellName(col, row), cellName(col, row), headerStyle)
		col++
	}
	row++

	columnTotals := make(map[string]int)
	var estimateTotal, doneTotal float64
	for _, c := range Categories {
		col = 1
		f.SetCellValue(sheetName, cellName(col, row), string(c))
		col++

		total := 0
		for _, project := range projectNames {
			n := counts[project][c]
			f.SetCellValue(sheetName, cellName(col, row), n)
			columnTotals[project] += n
			total += n
			col++
		}

		var estimate, done float64
		for _, item := range week.Items(c) {
			estimate += item.OriginalEstimate
			done += item.CompletedWork
		}
		estimateTotal += estimate
		doneTotal += done

		f.SetCellValue(sheetName, cellName(col, row), total)
		f.SetCellValue(sheetName, cellName(col+1, row), estimate)
		f.SetCellValue(sheetName, cellName(col+2, row), done)
		row++
	}

	col = 1
	f.SetCellValue(sheetName, cellName(col, row), "Total")
	col++
	for _, project := range projectNames {
		f.SetCellValue(sheetName, cellName(col, row), columnTotals[project])
		col++
	}
	f.SetCellValue(sheetName, cellName(col, row), week.Total())
	f.SetCellValue(sheetName, cellName(col+1, row), estimateTotal)
	f.SetCellValue(sheetName, cellName(col+2, row), doneTotal)
	f.SetCellStyle(sheetName, cellName(1, row), cellName(col+2, row), totalStyle)

	f.SetColWidth(sheetName, "A", "A", 20)
	for i := 2; i <= col+2; i++ {
		f.SetColWidth(sheetName, columnLetter(i), columnLetter(i), 15)
	}

	return nil
}

func (e *ExcelExporter) createCategorySheet(f *excelize.File, sheetName string, items []WorkItem) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(headerStyleDef())
	if err != nil {
		return err
	}

	headers := []string{
		"#",
		"ID",
		"Task Name",
		"Project Name",
		"Parent User Story",
		"Original Estimate",
		"Completed Work",
	}

	for col, header := range headers {
		cell := cellName(col+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, item := range items {
		row := i + 2
		f.SetCellValue(sheetName, cellName(1, row), i+1)
		f.SetCellValue(sheetName, cellName(2, row), item.ID)
		f.SetCellValue(sheetName, cellName(3, row), item.TaskName)
		f.SetCellValue(sheetName, cellName(4, row), projectName(item))
		f.SetCellValue(sheetName, cellName(5, row), item.ParentUserStory)
		f.SetCellValue(sheetName, cellName(6, row), item.OriginalEstimate)
		f.SetCellValue(sheetName, cellName(7, row), item.CompletedWork)
	}

	f.SetColWidth(sheetName, "A", "B", 8)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "E", 25)
	f.SetColWidth(sheetName, "F", "G", 15)

	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func headerStyleDef() *excelize.Style {
	return &excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	}
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

func columnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

func sanitizeSheetName(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, "?", "")
	name = strings.ReplaceAll(name, "*", "")
	name = strings.ReplaceAll(name, "[", "(")
	name = strings.ReplaceAll(name, "]", ")")

	if len(name) > 31 {
		name = name[:31]
	}

	return name
}
