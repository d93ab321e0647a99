package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"schoolfees_go/database"
	"schoolfees_go/models"
	"schoolfees_go/utils"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// PaymentImportService ingests historical payments from csv/xlsx exports of
// a school's previous bookkeeping. Rows are deduplicated by a deterministic
// RowUID so re-running the same file is harmless.
type PaymentImportService struct {
	db *gorm.DB
}

// NewPaymentImportService creates an import service bound to the shared database
func NewPaymentImportService() *PaymentImportService {
	return &PaymentImportService{db: database.DB}
}

// ImportResult summarizes one import run.
type ImportResult struct {
	FileName   string   `json:"file_name"`
	DataRows   int      `json:"data_rows"`
	Inserted   int      `json:"inserted"`
	Skipped    int      `json:"skipped"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// Expected header columns. Student Code and Component resolve against the
// school's own records; Amount is a major-unit decimal in the file and gets
// converted to minor units on insert.
const (
	colStudentCode   = "Student Code"
	colComponent     = "Component"
	colAmount        = "Amount"
	colPaymentDate   = "Payment Date"
	colPaymentMethod = "Payment Method"
	colTransactionID = "Transaction ID"
	colRemarks       = "Remarks"
)

// ImportRows ingests parsed spreadsheet rows (header first). Imported rows
// may predate any plan: the plan id is attached when one resolves for the
// active academic year and left null otherwise. The whole file runs in one
// transaction; individual bad rows are reported and skipped, they do not
// abort the file.
func (s *PaymentImportService) ImportRows(schoolCode, fileName string, rows [][]string, createdBy uint) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	header := rows[0]
	col := mapHeaderIndexes(header)
	for _, required := range []string{colStudentCode, colComponent, colAmount} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column: %s", required)
		}
	}

	// Resolve lookup tables once per file
	var students []models.Student
	if err := s.db.Where("school_code = ?", schoolCode).Find(&students).Error; err != nil {
		return nil, err
	}
	studentByCode := make(map[string]models.Student, len(students))
	for _, st := range students {
		studentByCode[strings.ToLower(st.StudentCode)] = st
	}

	var components []models.FeeComponentType
	if err := s.db.Where("school_code = ?", schoolCode).Find(&components).Error; err != nil {
		return nil, err
	}
	componentByName := make(map[string]models.FeeComponentType, len(components))
	for _, ct := range components {
		componentByName[strings.ToLower(ct.Name)] = ct
	}

	var activeYear models.AcademicYear
	hasActiveYear := s.db.Where("school_code = ? AND active = ?", schoolCode, true).
		First(&activeYear).Error == nil

	result := &ImportResult{FileName: fileName, DataRows: len(rows) - 1, Errors: []string{}}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := 1; i < len(rows); i++ {
			r := rows[i]
			get := func(key string) string {
				if idx, ok := col[key]; ok && idx < len(r) {
					return strings.TrimSpace(r[idx])
				}
				return ""
			}

			studentCode := get(colStudentCode)
			componentName := get(colComponent)
			amountStr := get(colAmount)
			dateStr := get(colPaymentDate)

			student, ok := studentByCode[strings.ToLower(studentCode)]
			if !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown student code %q", i+1, studentCode))
				result.Skipped++
				continue
			}
			component, ok := componentByName[strings.ToLower(componentName)]
			if !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown component %q", i+1, componentName))
				result.Skipped++
				continue
			}
			amount, err := parseMinorUnits(amountStr)
			if err != nil || amount <= 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: bad amount %q", i+1, amountStr))
				result.Skipped++
				continue
			}

			// Deterministic RowUID from the identifying columns keeps
			// repeated imports of the same file idempotent
			rowUID := strings.Join([]string{
				schoolCode, studentCode, componentName, amountStr, dateStr, get(colTransactionID),
			}, "|")

			var existing models.FeePayment
			if err := tx.Where("row_uid = ?", rowUID).First(&existing).Error; err == nil {
				result.Duplicates++
				result.Skipped++
				continue
			}

			paymentDate := parseDate(dateStr)
			method := strings.ToLower(get(colPaymentMethod))
			if !utils.IsValidPaymentMethod(method) {
				method = "unknown"
			}

			var planID *uint
			if hasActiveYear {
				var plan models.StudentFeePlan
				if err := tx.Where("school_code = ? AND student_id = ? AND academic_year_id = ?",
					schoolCode, student.ID, activeYear.ID).First(&plan).Error; err == nil {
					planID = &plan.ID
				}
			}

			payment := models.FeePayment{
				SchoolCode:      schoolCode,
				StudentID:       student.ID,
				PlanID:          planID,
				ComponentTypeID: component.ID,
				Amount:          amount,
				PaymentDate:     paymentDate,
				PaymentMethod:   method,
				TransactionID:   get(colTransactionID),
				ReceiptNumber:   utils.GenerateReceiptNumber(time.Now()),
				RowUID:          rowUID,
				Remarks:         utils.SanitizeString(get(colRemarks)),
				CreatedBy:       createdBy,
			}
			if err := tx.Create(&payment).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				result.Skipped++
				continue
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReadCSV reads all csv records into rows
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// ReadXLSX reads the first sheet of an xlsx file into rows
func ReadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sht := f.GetSheetName(0)
	if sht == "" {
		sht = "Sheet1"
	}
	data, err := f.GetRows(sht)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func mapHeaderIndexes(header []string) map[string]int {
	m := map[string]int{}
	for i, h := range header {
		m[strings.TrimSpace(h)] = i
	}
	return m
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	layouts := []string{"2006-01-02", "1/2/2006", "01/02/2006", "02/01/2006", time.RFC3339}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return &t
		}
	}
	if t, err := time.Parse("1/2/06", s); err == nil {
		return &t
	}
	return nil
}

// parseMinorUnits converts a major-unit decimal string like "12500.50" (or
// "12,500.50") to integer minor units without going through float64.
func parseMinorUnits(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole := s
	frac := "0"
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
		// already minor-unit precision
	default:
		return 0, fmt.Errorf("too many decimal places in %q", s)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, err
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return v, nil
}
