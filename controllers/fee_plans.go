package controllers

import (
	"errors"
	"strconv"

	"schoolfees_go/middleware"
	"schoolfees_go/services"
	"schoolfees_go/services/feeledger"
	"schoolfees_go/utils"

	"github.com/gofiber/fiber/v2"
)

type FeePlanController struct {
	plans     *services.FeePlanService
	summaries *services.SummaryService
}

func NewFeePlanController(plans *services.FeePlanService, summaries *services.SummaryService) *FeePlanController {
	return &FeePlanController{plans: plans, summaries: summaries}
}

// PlanItemRequest is one (component, amount) row of a plan edit.
type PlanItemRequest struct {
	ComponentTypeID uint  `json:"component_type_id" validate:"required"`
	Amount          int64 `json:"amount" validate:"gte=0"`
}

// OpenPlanRequest asks for the student's plan for a year, creating an empty
// one when none exists yet.
type OpenPlanRequest struct {
	StudentID      uint `json:"student_id" validate:"required"`
	AcademicYearID uint `json:"academic_year_id" validate:"required"`
}

// SavePlanItemsRequest replaces a plan's item list.
type SavePlanItemsRequest struct {
	Items []PlanItemRequest `json:"items" validate:"dive"`
}

// OpenPlan returns the student's plan for the year, creating it on first
// access. Opening an editor never fails because two people raced to it.
func (fp *FeePlanController) OpenPlan(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req OpenPlanRequest
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

	plan, err := fp.plans.GetOrCreatePlan(schoolCode, req.StudentID, req.AcademicYearID, claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	middleware.LogActivity(c, "OPEN", "fee_plans", plan.ID, fiber.Map{
		"student_id":       req.StudentID,
		"academic_year_id": req.AcademicYearID,
	})

	return c.JSON(fiber.Map{"plan": plan})
}

// GetPlan returns a student's plan with items, or an explicit has_plan=false
func (fp *FeePlanController) GetPlan(c *fiber.Ctx) error {
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

	plan, err := fp.plans.GetPlanWithItems(schoolCode, uint(studentID), uint(yearID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch plan"})
	}
	if plan == nil {
		return c.JSON(fiber.Map{"has_plan": false})
	}

	return c.JSON(fiber.Map{"has_plan": true, "plan": plan})
}

// SavePlanItems replaces the plan's items with the submitted list
func (fp *FeePlanController) SavePlanItems(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	planID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan ID"})
	}

	var req SavePlanItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	items := make([]feeledger.PlanItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, feeledger.PlanItem{
			ComponentTypeID: it.ComponentTypeID,
			Amount:          it.Amount,
		})
	}

	if err := fp.plans.SavePlanItems(schoolCode, uint(planID), items); err != nil {
		switch {
		case errors.Is(err, feeledger.ErrMissingComponent),
			errors.Is(err, feeledger.ErrDuplicateComponent),
			errors.Is(err, feeledger.ErrNegativeAmount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save plan items"})
		}
	}

	plan, err := fp.plans.GetPlanByID(schoolCode, uint(planID))
	if err == nil && plan != nil {
		fp.summaries.InvalidateStudent(schoolCode, plan.StudentID, plan.AcademicYearID)
	}

	middleware.LogActivity(c, "UPDATE", "fee_plan_items", uint(planID), fiber.Map{
		"items": len(items),
	})

	return c.JSON(fiber.Map{
		"message": "Plan items saved successfully",
		"plan":    plan,
	})
}
