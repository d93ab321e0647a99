package controllers

import (
	"strconv"

	"schoolfees_go/database"
	"schoolfees_go/middleware"
	"schoolfees_go/models"
	"schoolfees_go/utils"

	"github.com/gofiber/fiber/v2"
)

type StudentController struct{}

// StudentRequest is the create/update body for a student record.
type StudentRequest struct {
	StudentCode     string `json:"student_code" validate:"required,max=50"`
	ClassInstanceID uint   `json:"class_instance_id"`
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"max=100"`
	Gender          string `json:"gender" validate:"max=20"`
	GuardianName    string `json:"guardian_name" validate:"max=200"`
	GuardianPhone   string `json:"guardian_phone" validate:"max=20"`
	Status          string `json:"status" validate:"omitempty,oneof=enrolled transferred withdrawn"`
}

// GetStudents returns the school's students with pagination
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	offset := (page - 1) * limit

	var students []models.Student
	var total int64

	query := database.DB.Model(&models.Student{}).Where("school_code = ?", schoolCode)

	if classID, err := strconv.ParseUint(c.Query("class_id"), 10, 32); err == nil && classID > 0 {
		query = query.Where("class_instance_id = ?", uint(classID))
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("q"); search != "" {
		like := "%" + utils.SanitizeString(search) + "%"
		query = query.Where("student_code LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	query.Count(&total)

	if err := query.Preload("ClassInstance").
		Order("student_code").
		Offset(offset).Limit(limit).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	return c.JSON(fiber.Map{
		"students": students,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStudent returns a specific student by ID
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.Preload("ClassInstance").
		Where("school_code = ?", schoolCode).
		First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	return c.JSON(fiber.Map{
		"student": student,
	})
}

// CreateStudent creates a new student record in the caller's school
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.ClassInstanceID != 0 {
		var class models.ClassInstance
		if err := database.DB.Where("id = ? AND school_code = ?", req.ClassInstanceID, schoolCode).
			First(&class).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Class not found",
			})
		}
	}

	var existing models.Student
	if err := database.DB.Where("school_code = ? AND student_code = ?", schoolCode, req.StudentCode).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Student code already exists",
		})
	}

	status := req.Status
	if status == "" {
		status = "enrolled"
	}

	student := models.Student{
		SchoolCode:      schoolCode,
		StudentCode:     req.StudentCode,
		ClassInstanceID: req.ClassInstanceID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Gender:          req.Gender,
		GuardianName:    req.GuardianName,
		GuardianPhone:   req.GuardianPhone,
		Status:          status,
	}

	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create student",
		})
	}

	middleware.LogActivity(c, "CREATE", "students", student.ID, fiber.Map{
		"student_code": student.StudentCode,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent updates an existing student record
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.Where("school_code = ?", schoolCode).
		First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.ClassInstanceID != 0 && req.ClassInstanceID != student.ClassInstanceID {
		var class models.ClassInstance
		if err := database.DB.Where("id = ? AND school_code = ?", req.ClassInstanceID, schoolCode).
			First(&class).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Class not found",
			})
		}
	}

	student.StudentCode = req.StudentCode
	student.ClassInstanceID = req.ClassInstanceID
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Gender = req.Gender
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	if req.Status != "" {
		student.Status = req.Status
	}

	if err := database.DB.Save(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student",
		})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, fiber.Map{
		"student_code": student.StudentCode,
	})

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent soft-deletes a student record
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	schoolCode, err := middleware.GetSchoolCode(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.Where("school_code = ?", schoolCode).
		First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	// Payment history is append-only and must survive the student record
	if err := database.DB.Delete(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete student",
		})
	}

	middleware.LogActivity(c, "DELETE", "students", student.ID, fiber.Map{
		"student_code": student.StudentCode,
	})

	return c.JSON(fiber.Map{
		"message": "Student deleted successfully",
	})
}
