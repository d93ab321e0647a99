package controllers

import (
	"fmt"
	"strconv"
	"time"

	"schoolfees_go/database"
	"schoolfees_go/middleware"
	"schoolfees_go/models"
	"schoolfees_go/services"
	"schoolfees_go/services/feeledger"
	"schoolfees_go/storage"
	"schoolfees_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type FeeSummaryController struct {
	summaries *services.SummaryService
	exporter  *services.ReportExportService
	storage   *storage.StorageService
}

// NewFeeSummaryController wires the summary read path. storage may be nil
// when S3 is not configured; exports then skip archival.
func NewFeeSummaryController(summaries *services.SummaryService, exporter *services.ReportExportService, store *storage.StorageService) *FeeSummaryController {
	return &FeeSummaryController{summaries: summaries, exporter: exporter, storage: store}
}

func parsePlanFilter(s string) (feeledger.PlanFilter, bool) {
	switch s {
	case "", string(feeledger.FilterAll):
		return feeledger.FilterAll, true
	case string(feeledger.FilterWithPlan):
		return feeledger.FilterWithPlan, true
	case string(feeledger.FilterWithoutPlan):
		return feeledger.FilterWithoutPlan, true
	}
	return feeledger.FilterAll, false
}

// GetClassSummary returns per-student financials for a class, with optional
// free-text search (q) and plan filter (all|with_plan|without_plan)
func (fs *FeeSummaryController) GetClassSummary(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	classID, err := strconv.ParseUint(c.Params("classId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID"})
	}
	yearID, err := strconv.ParseUint(c.Query("academic_year_id"), 10, 32)
	if err != nil || yearID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "academic_year_id is required"})
	}

	filter, ok := parsePlanFilter(c.Query("filter"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "filter must be one of: all, with_plan, without_plan",
		})
	}

	var class models.ClassInstance
	if err := database.DB.Where("id = ? AND school_code = ?", uint(classID), schoolCode).
		First(&class).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	}

	rows, totals, err := fs.summaries.GetClassSummary(schoolCode, uint(classID), uint(yearID),
		c.Query("q"), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute class summary"})
	}

	students := make([]utils.StudentSummaryDTO, 0, len(rows))
	for _, r := range rows {
		students = append(students, utils.ToStudentSummaryDTO(r.Row, r.PlanID))
	}

	return c.JSON(fiber.Map{
		"class":    class.Name,
		"students": students,
		"totals": fiber.Map{
			"total_assigned":         totals.TotalAssigned,
			"total_pending":          totals.TotalPending,
			"total_assigned_display": utils.FormatMinorUnits(totals.TotalAssigned),
			"total_pending_display":  utils.FormatMinorUnits(totals.TotalPending),
		},
	})
}

// GetStudentSummary returns one student's financial summary
func (fs *FeeSummaryController) GetStudentSummary(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	studentID, err := strconv.ParseUint(c.Params("studentId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}
	yearID, err := strconv.ParseUint(c.Query("academic_year_id"), 10, 32)
	if err != nil || yearID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "academic_year_id is required"})
	}

	fin, err := fs.summaries.GetStudentSummary(schoolCode, uint(studentID), uint(yearID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	return c.JSON(fiber.Map{"summary": utils.ToStudentSummaryDTO(fin.Row, fin.PlanID)})
}

// ExportClassSummary renders the class summary as an xlsx download. With
// archive=true the workbook is also stored in S3 and its URL returned in the
// X-Archive-URL header.
func (fs *FeeSummaryController) ExportClassSummary(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	classID, err := strconv.ParseUint(c.Params("classId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID"})
	}
	yearID, err := strconv.ParseUint(c.Query("academic_year_id"), 10, 32)
	if err != nil || yearID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "academic_year_id is required"})
	}

	var class models.ClassInstance
	if err := database.DB.Preload("AcademicYear").
		Where("id = ? AND school_code = ?", uint(classID), schoolCode).
		First(&class).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	}

	rows, _, err := fs.summaries.GetClassSummary(schoolCode, uint(classID), uint(yearID),
		"", feeledger.FilterAll)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute class summary"})
	}

	ledgerRows := make([]feeledger.StudentRow, 0, len(rows))
	for _, r := range rows {
		ledgerRows = append(ledgerRows, r.Row)
	}

	data, err := fs.exporter.ExportClassSummary(class.Name, class.AcademicYear.Name, ledgerRows)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to render export"})
	}

	if c.Query("archive") == "true" && fs.storage != nil {
		url, err := fs.storage.UploadReport(data, schoolCode, class.Name+"-fee-summary", "xlsx")
		if err != nil {
			logrus.WithError(err).Warn("Failed to archive fee summary export")
		} else {
			c.Set("X-Archive-URL", url)
		}
	}

	middleware.LogActivity(c, "EXPORT", "fee_summary", uint(classID), fiber.Map{
		"academic_year_id": yearID,
		"rows":             len(ledgerRows),
	})

	fileName := fmt.Sprintf("fee-summary-%s-%s.xlsx", class.Name, time.Now().Format("20060102"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, fileName))
	return c.Send(data)
}
