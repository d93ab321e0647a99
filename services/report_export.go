package services

import (
	"fmt"
	"time"

	"schoolfees_go/services/feeledger"
	"schoolfees_go/utils"

	"github.com/xuri/excelize/v2"
)

// ReportExportService renders class fee summaries as xlsx workbooks for
// download or archival in S3.
type ReportExportService struct{}

func NewReportExportService() *ReportExportService {
	return &ReportExportService{}
}

// ExportClassSummary writes one row per student plus a totals row.
// Amounts are rendered as decimal strings so spreadsheets keep them exact.
func (res *ReportExportService) ExportClassSummary(className, academicYear string, rows []feeledger.StudentRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Fee Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %v", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Class: %s", className))
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Academic Year: %s", academicYear))
	f.SetCellValue(sheet, "A3", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")))

	headers := []string{"Student Code", "Student Name", "Total Due", "Total Paid", "Balance", "Paid %", "Has Plan"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 5)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for r, row := range rows {
		values := []any{
			row.StudentCode,
			row.FullName,
			utils.FormatMinorUnits(row.TotalDue),
			utils.FormatMinorUnits(row.TotalPaid),
			utils.FormatMinorUnits(row.Balance),
			row.Percentage,
			row.HasPlan,
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+6)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheet, cell, v)
		}
	}

	totals := feeledger.AggregateClass(rows)
	totalRow := len(rows) + 7
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "TOTAL")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), utils.FormatMinorUnits(totals.TotalAssigned))
	f.SetCellValue(sheet, fmt.Sprintf("E%d", totalRow), utils.FormatMinorUnits(totals.TotalPending))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %v", err)
	}
	return buf.Bytes(), nil
}
