package controllers

import (
	"strconv"
	"time"

	"schoolfees_go/database"
	"schoolfees_go/middleware"
	"schoolfees_go/models"
	"schoolfees_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClassController struct{}

// AcademicYearRequest is the create body for an academic year.
type AcademicYearRequest struct {
	Name      string `json:"name" validate:"required,max=50"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Active    bool   `json:"active"`
}

// ClassRequest is the create/update body for a class section.
type ClassRequest struct {
	AcademicYearID uint   `json:"academic_year_id" validate:"required"`
	GradeLevel     string `json:"grade_level" validate:"required,max=50"`
	Section        string `json:"section" validate:"max=50"`
	Name           string `json:"name" validate:"required,max=100"`
}

// GetAcademicYears lists the school's academic years, newest first
func (cc *ClassController) GetAcademicYears(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var years []models.AcademicYear
	if err := database.DB.Where("school_code = ?", schoolCode).
		Order("start_date DESC").Find(&years).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch academic years",
		})
	}

	return c.JSON(fiber.Map{"academic_years": years})
}

// CreateAcademicYear creates an academic year. Marking it active clears the
// flag on every other year of the school.
func (cc *ClassController) CreateAcademicYear(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req AcademicYearRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date, expected YYYY-MM-DD"})
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date, expected YYYY-MM-DD"})
	}
	if !endDate.After(startDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must be after start_date"})
	}

	year := models.AcademicYear{
		SchoolCode: schoolCode,
		Name:       req.Name,
		StartDate:  startDate,
		EndDate:    endDate,
		Active:     req.Active,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if req.Active {
			if err := tx.Model(&models.AcademicYear{}).
				Where("school_code = ?", schoolCode).
				Update("active", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&year).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create academic year",
		})
	}

	middleware.LogActivity(c, "CREATE", "academic_years", year.ID, fiber.Map{"name": year.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Academic year created successfully",
		"academic_year": year,
	})
}

// GetClasses lists class sections, optionally filtered by academic year
func (cc *ClassController) GetClasses(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := database.DB.Where("school_code = ?", schoolCode)
	if yearID, err := strconv.ParseUint(c.Query("academic_year_id"), 10, 32); err == nil && yearID > 0 {
		query = query.Where("academic_year_id = ?", uint(yearID))
	}

	var classes []models.ClassInstance
	if err := query.Preload("AcademicYear").Order("grade_level, section").Find(&classes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classes",
		})
	}

	return c.JSON(fiber.Map{"classes": classes})
}

// GetClass returns one class with its roster
func (cc *ClassController) GetClass(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID"})
	}

	var class models.ClassInstance
	if err := database.DB.Preload("AcademicYear").Preload("Students").
		Where("school_code = ?", schoolCode).
		First(&class, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	}

	return c.JSON(fiber.Map{"class": class})
}

// CreateClass creates a class section within an academic year
func (cc *ClassController) CreateClass(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var year models.AcademicYear
	if err := database.DB.Where("id = ? AND school_code = ?", req.AcademicYearID, schoolCode).
		First(&year).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Academic year not found"})
	}

	class := models.ClassInstance{
		SchoolCode:     schoolCode,
		AcademicYearID: req.AcademicYearID,
		GradeLevel:     req.GradeLevel,
		Section:        req.Section,
		Name:           req.Name,
	}

	if err := database.DB.Create(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create class",
		})
	}

	middleware.LogActivity(c, "CREATE", "classes", class.ID, fiber.Map{"name": class.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Class created successfully",
		"class":   class,
	})
}

// UpdateClass updates a class section
func (cc *ClassController) UpdateClass(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID"})
	}

	var class models.ClassInstance
	if err := database.DB.Where("school_code = ?", schoolCode).
		First(&class, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	}

	var req ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.AcademicYearID != class.AcademicYearID {
		var year models.AcademicYear
		if err := database.DB.Where("id = ? AND school_code = ?", req.AcademicYearID, schoolCode).
			First(&year).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Academic year not found"})
		}
	}

	class.AcademicYearID = req.AcademicYearID
	class.GradeLevel = req.GradeLevel
	class.Section = req.Section
	class.Name = req.Name

	if err := database.DB.Save(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update class",
		})
	}

	middleware.LogActivity(c, "UPDATE", "classes", class.ID, fiber.Map{"name": class.Name})

	return c.JSON(fiber.Map{
		"message": "Class updated successfully",
		"class":   class,
	})
}
