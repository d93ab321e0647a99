package controllers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"schoolfees_go/config"
	"schoolfees_go/middleware"
	"schoolfees_go/services"
	"schoolfees_go/utils"

	"github.com/gofiber/fiber/v2"
)

type FeePaymentController struct {
	payments  *services.PaymentService
	importer  *services.PaymentImportService
	summaries *services.SummaryService
}

func NewFeePaymentController(payments *services.PaymentService, importer *services.PaymentImportService, summaries *services.SummaryService) *FeePaymentController {
	return &FeePaymentController{payments: payments, importer: importer, summaries: summaries}
}

// RecordPaymentRequest is the body for one interactive payment entry.
// amount is integer minor units; payment_date is YYYY-MM-DD.
type RecordPaymentRequest struct {
	StudentID       uint   `json:"student_id" validate:"required"`
	ComponentTypeID uint   `json:"component_type_id" validate:"required"`
	AcademicYearID  uint   `json:"academic_year_id" validate:"required"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	PaymentDate     string `json:"payment_date"`
	PaymentMethod   string `json:"payment_method"`
	TransactionID   string `json:"transaction_id" validate:"max=100"`
	Remarks         string `json:"remarks" validate:"max=500"`
}

// RecordPayment appends one payment to the ledger
func (fpc *FeePaymentController) RecordPayment(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	in := services.RecordPaymentInput{
		StudentID:       req.StudentID,
		ComponentTypeID: req.ComponentTypeID,
		AcademicYearID:  req.AcademicYearID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		TransactionID:   req.TransactionID,
		Remarks:         req.Remarks,
		CreatedBy:       claims.UserID,
	}
	if req.PaymentDate != "" {
		d, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment_date, expected YYYY-MM-DD"})
		}
		in.PaymentDate = &d
	}

	payment, err := fpc.payments.RecordPayment(schoolCode, in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNonPositiveAmount),
			errors.Is(err, services.ErrInvalidPaymentMethod),
			errors.Is(err, services.ErrComponentNotInPlan):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	fpc.summaries.InvalidateStudent(schoolCode, req.StudentID, req.AcademicYearID)

	middleware.LogActivity(c, "CREATE", "fee_payments", payment.ID, fiber.Map{
		"student_id":     payment.StudentID,
		"amount":         payment.Amount,
		"receipt_number": payment.ReceiptNumber,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment recorded successfully",
		"payment": utils.ToPaymentDTO(*payment),
	})
}

// GetStudentPayments lists a student's ledger, newest first
func (fpc *FeePaymentController) GetStudentPayments(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	studentID, err := strconv.ParseUint(c.Params("studentId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	payments, err := fpc.payments.ListStudentPayments(schoolCode, uint(studentID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payments"})
	}

	dtos := make([]utils.PaymentDTO, 0, len(payments))
	var total int64
	for _, p := range payments {
		dtos = append(dtos, utils.ToPaymentDTO(p))
		total += p.Amount
	}

	return c.JSON(fiber.Map{
		"payments":           dtos,
		"total_paid":         total,
		"total_paid_display": utils.FormatMinorUnits(total),
	})
}

// ImportPayments ingests a csv/xlsx payment file
func (fpc *FeePaymentController) ImportPayments(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	if fh.Size > config.AppConfig.MaxFileSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("file exceeds maximum size of %d bytes", config.AppConfig.MaxFileSize),
		})
	}
	allowed := strings.Split(config.AppConfig.AllowedExtensions, ",")
	if !utils.IsValidFileExtension(fh.Filename, allowed) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("unsupported file type (%s)", config.AppConfig.AllowedExtensions),
		})
	}

	var rows [][]string
	filename := strings.ToLower(fh.Filename)
	switch {
	case strings.HasSuffix(filename, ".csv"):
		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
		}
		defer f.Close()
		rows, err = services.ReadCSV(f)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	case strings.HasSuffix(filename, ".xlsx"):
		// buffer to temp path for excelize
		tmpDir, err := os.MkdirTemp("", "fees-import-")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), utils.SanitizeString(fh.Filename)))
		if err := c.SaveFile(fh, tmp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		var rerr error
		rows, rerr = services.ReadXLSX(tmp)
		_ = os.Remove(tmp)
		_ = os.Remove(tmpDir)
		if rerr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": rerr.Error()})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv,xlsx)"})
	}

	if len(rows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is empty"})
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	result, err := fpc.importer.ImportRows(schoolCode, fh.Filename, rows, claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if result.Inserted > 0 {
		fpc.summaries.InvalidateSchool(schoolCode)
	}

	middleware.LogActivity(c, "IMPORT", "fee_payments", 0, fiber.Map{
		"file_name":  result.FileName,
		"inserted":   result.Inserted,
		"skipped":    result.Skipped,
		"duplicates": result.Duplicates,
	})

	return c.JSON(fiber.Map{
		"message": "Import completed",
		"result":  result,
	})
}
