package controllers

import (
	"errors"

	"schoolfees_go/database"
	"schoolfees_go/middleware"
	"schoolfees_go/models"
	"schoolfees_go/services"
	"schoolfees_go/services/feeledger"
	"schoolfees_go/utils"

	"github.com/gofiber/fiber/v2"
)

type FeeBulkController struct {
	bulk      *services.BulkApplyService
	summaries *services.SummaryService
}

func NewFeeBulkController(bulk *services.BulkApplyService, summaries *services.SummaryService) *FeeBulkController {
	return &FeeBulkController{bulk: bulk, summaries: summaries}
}

// BulkApplyRequest applies a fee template to every enrolled student of a
// class. confirm must be true and expected_students must carry the roster
// size shown to the operator at confirmation time; a count mismatch at
// execution aborts with 409.
type BulkApplyRequest struct {
	ClassInstanceID  uint                  `json:"class_instance_id" validate:"required"`
	AcademicYearID   uint                  `json:"academic_year_id" validate:"required"`
	Confirm          bool                  `json:"confirm"`
	ExpectedStudents int                   `json:"expected_students" validate:"required,gt=0"`
	Items            []TemplateItemRequest `json:"items" validate:"required,min=1,dive"`
}

// TemplateItemRequest is one template line. Unlike a single-plan item, a
// template amount must be strictly positive.
type TemplateItemRequest struct {
	ComponentTypeID uint  `json:"component_type_id" validate:"required"`
	Amount          int64 `json:"amount" validate:"required,gt=0"`
}

// PreviewClassApply reports what a bulk apply would touch, for the
// confirmation dialog.
func (fb *FeeBulkController) PreviewClassApply(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req struct {
		ClassInstanceID uint `json:"class_instance_id" validate:"required"`
		AcademicYearID  uint `json:"academic_year_id" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var class models.ClassInstance
	if err := database.DB.Where("id = ? AND school_code = ?", req.ClassInstanceID, schoolCode).
		First(&class).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	}

	var enrolled int64
	database.DB.Model(&models.Student{}).
		Where("school_code = ? AND class_instance_id = ? AND status = ?", schoolCode, req.ClassInstanceID, "enrolled").
		Count(&enrolled)

	var withPlan int64
	database.DB.Model(&models.StudentFeePlan{}).
		Where("school_code = ? AND class_instance_id = ? AND academic_year_id = ?",
			schoolCode, req.ClassInstanceID, req.AcademicYearID).
		Count(&withPlan)

	return c.JSON(fiber.Map{
		"class":              class.Name,
		"students_enrolled":  enrolled,
		"students_with_plan": withPlan,
		"note":               "Applying a template replaces existing plan items for every enrolled student",
	})
}

// ApplyClassPlan executes the bulk apply
func (fb *FeeBulkController) ApplyClassPlan(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req BulkApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if !req.Confirm {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Bulk apply requires confirmation",
		})
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	template := make([]feeledger.PlanItem, 0, len(req.Items))
	for _, it := range req.Items {
		template = append(template, feeledger.PlanItem{
			ComponentTypeID: it.ComponentTypeID,
			Amount:          it.Amount,
		})
	}

	result, err := fb.bulk.ApplyClassPlan(schoolCode, req.ClassInstanceID, req.AcademicYearID,
		template, req.ExpectedStudents, claims.UserID)
	if err != nil {
		var rosterErr *services.RosterChangedError
		switch {
		case errors.As(err, &rosterErr):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":    "Class roster changed since confirmation, please review and retry",
				"expected": rosterErr.Expected,
				"actual":   rosterErr.Actual,
			})
		case errors.Is(err, feeledger.ErrEmptyTemplate),
			errors.Is(err, feeledger.ErrMissingComponent),
			errors.Is(err, feeledger.ErrDuplicateComponent),
			errors.Is(err, feeledger.ErrNegativeAmount),
			errors.Is(err, feeledger.ErrNonPositiveAmount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	fb.summaries.InvalidateClass(schoolCode, req.ClassInstanceID, req.AcademicYearID)

	middleware.LogActivity(c, "BULK_APPLY", "fee_plans", req.ClassInstanceID, fiber.Map{
		"academic_year_id": req.AcademicYearID,
		"plans_created":    result.PlansCreated,
		"plans_reused":     result.PlansReused,
		"items_written":    result.ItemsWritten,
	})

	return c.JSON(fiber.Map{
		"message": "Fee template applied to class",
		"result":  result,
	})
}
