package controllers

import (
	"strconv"

	"schoolfees_go/database"
	"schoolfees_go/middleware"
	"schoolfees_go/models"
	"schoolfees_go/services/feeledger"
	"schoolfees_go/utils"

	"github.com/gofiber/fiber/v2"
)

type FeeComponentController struct{}

// FeeComponentRequest is the create/update body for a catalog entry.
// default_amount is integer minor units.
type FeeComponentRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	DefaultAmount int64  `json:"default_amount" validate:"gte=0"`
}

// GetFeeComponents lists the school's catalog, deduped and name-sorted
func (fc *FeeComponentController) GetFeeComponents(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var rows []models.FeeComponentType
	if err := database.DB.Where("school_code = ?", schoolCode).Find(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch fee components",
		})
	}

	components := make([]feeledger.Component, 0, len(rows))
	for _, r := range rows {
		components = append(components, feeledger.Component{
			ID:            r.ID,
			Name:          r.Name,
			DefaultAmount: r.DefaultAmount,
		})
	}
	components = feeledger.DedupeComponents(components)

	return c.JSON(fiber.Map{"components": utils.ToComponentShorts(components)})
}

// CreateFeeComponent adds a catalog entry. Names are unique per school.
func (fc *FeeComponentController) CreateFeeComponent(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req FeeComponentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.FeeComponentType
	if err := database.DB.Where("school_code = ? AND name = ?", schoolCode, req.Name).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A fee component with this name already exists",
		})
	}

	component := models.FeeComponentType{
		SchoolCode:    schoolCode,
		Name:          req.Name,
		DefaultAmount: req.DefaultAmount,
	}

	if err := database.DB.Create(&component).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create fee component",
		})
	}

	middleware.LogActivity(c, "CREATE", "fee_components", component.ID, fiber.Map{
		"name":           component.Name,
		"default_amount": component.DefaultAmount,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Fee component created successfully",
		"component": component,
	})
}

// UpdateFeeComponent renames a catalog entry or changes its default amount.
// Amounts already written into plan items are not touched.
func (fc *FeeComponentController) UpdateFeeComponent(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid component ID"})
	}

	var component models.FeeComponentType
	if err := database.DB.Where("school_code = ?", schoolCode).
		First(&component, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Fee component not found"})
	}

	var req FeeComponentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Name != component.Name {
		var existing models.FeeComponentType
		if err := database.DB.Where("school_code = ? AND name = ? AND id <> ?",
			schoolCode, req.Name, component.ID).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A fee component with this name already exists",
			})
		}
	}

	component.Name = req.Name
	component.DefaultAmount = req.DefaultAmount

	if err := database.DB.Save(&component).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update fee component",
		})
	}

	middleware.LogActivity(c, "UPDATE", "fee_components", component.ID, fiber.Map{
		"name":           component.Name,
		"default_amount": component.DefaultAmount,
	})

	return c.JSON(fiber.Map{
		"message":   "Fee component updated successfully",
		"component": component,
	})
}

// DeleteFeeComponent removes a catalog entry that no plan item references
func (fc *FeeComponentController) DeleteFeeComponent(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid component ID"})
	}

	var component models.FeeComponentType
	if err := database.DB.Where("school_code = ?", schoolCode).
		First(&component, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Fee component not found"})
	}

	var inUse int64
	database.DB.Model(&models.StudentFeePlanItem{}).
		Where("component_type_id = ?", component.ID).Count(&inUse)
	if inUse > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Fee component is referenced by existing plans",
		})
	}

	if err := database.DB.Delete(&component).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete fee component",
		})
	}

	middleware.LogActivity(c, "DELETE", "fee_components", component.ID, fiber.Map{
		"name": component.Name,
	})

	return c.JSON(fiber.Map{"message": "Fee component deleted successfully"})
}
