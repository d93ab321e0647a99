package services

import (
	"errors"
	"fmt"

	"schoolfees_go/database"
	"schoolfees_go/models"
	"schoolfees_go/services/feeledger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeePlanService owns the fee plan editor's write path: lazy plan creation
// and the delete-then-upsert item save.
type FeePlanService struct {
	db *gorm.DB
}

// NewFeePlanService creates a plan service bound to the shared database
func NewFeePlanService() *FeePlanService {
	return &FeePlanService{db: database.DB}
}

// GetOrCreatePlan resolves the student's plan for the academic year, creating
// it on first access. The unique index on (school_code, student_id,
// academic_year_id) makes this safe under concurrent edit sessions: a
// conflicting insert falls through to fetching the winner's row.
func (s *FeePlanService) GetOrCreatePlan(schoolCode string, studentID, academicYearID, createdBy uint) (*models.StudentFeePlan, error) {
	var student models.Student
	if err := s.db.Where("id = ? AND school_code = ?", studentID, schoolCode).First(&student).Error; err != nil {
		return nil, fmt.Errorf("student not found in school %s", schoolCode)
	}

	var plan models.StudentFeePlan
	err := s.db.Where("school_code = ? AND student_id = ? AND academic_year_id = ?",
		schoolCode, studentID, academicYearID).First(&plan).Error
	if err == nil {
		return &plan, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	plan = models.StudentFeePlan{
		SchoolCode:      schoolCode,
		StudentID:       studentID,
		ClassInstanceID: student.ClassInstanceID,
		AcademicYearID:  academicYearID,
		CreatedBy:       createdBy,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&plan).Error; err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		// Lost the race; another session created the plan first.
		if err := s.db.Where("school_code = ? AND student_id = ? AND academic_year_id = ?",
			schoolCode, studentID, academicYearID).First(&plan).Error; err != nil {
			return nil, err
		}
	}
	return &plan, nil
}

// GetPlanWithItems loads a plan and its items, or nil when the student has
// no plan yet. Callers render a blank editor row for the nil case.
func (s *FeePlanService) GetPlanWithItems(schoolCode string, studentID, academicYearID uint) (*models.StudentFeePlan, error) {
	var plan models.StudentFeePlan
	err := s.db.Preload("Items").Preload("Items.ComponentType").
		Where("school_code = ? AND student_id = ? AND academic_year_id = ?",
			schoolCode, studentID, academicYearID).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetPlanByID loads a plan with items by primary key, scoped to the school.
func (s *FeePlanService) GetPlanByID(schoolCode string, planID uint) (*models.StudentFeePlan, error) {
	var plan models.StudentFeePlan
	err := s.db.Preload("Items").Preload("Items.ComponentType").
		Where("id = ? AND school_code = ?", planID, schoolCode).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// SavePlanItems replaces a plan's item list with the submitted one. The
// submission is validated first (component present, no duplicates, no
// negative amounts), then the delete and the upserts run inside a single
// transaction so a failure cannot leave a half-written plan.
func (s *FeePlanService) SavePlanItems(schoolCode string, planID uint, items []feeledger.PlanItem) error {
	if err := feeledger.ValidateItems(items); err != nil {
		return err
	}

	var plan models.StudentFeePlan
	if err := s.db.Where("id = ? AND school_code = ?", planID, schoolCode).First(&plan).Error; err != nil {
		return fmt.Errorf("fee plan not found")
	}

	// Every referenced component must exist in the same school
	if len(items) > 0 {
		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ComponentTypeID)
		}
		var count int64
		if err := s.db.Model(&models.FeeComponentType{}).
			Where("school_code = ? AND id IN ?", schoolCode, ids).
			Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(ids)) {
			return fmt.Errorf("one or more fee components do not belong to school %s", schoolCode)
		}
	}

	var existing []models.StudentFeePlanItem
	if err := s.db.Where("plan_id = ?", planID).Find(&existing).Error; err != nil {
		return err
	}
	current := make([]feeledger.PlanItem, 0, len(existing))
	for _, it := range existing {
		current = append(current, feeledger.PlanItem{ComponentTypeID: it.ComponentTypeID, Amount: it.Amount})
	}

	toDelete, toUpsert := feeledger.ItemDiff(current, items)

	return s.db.Transaction(func(tx *gorm.DB) error {
		if len(toDelete) > 0 {
			if err := tx.Where("plan_id = ? AND component_type_id IN ?", planID, toDelete).
				Delete(&models.StudentFeePlanItem{}).Error; err != nil {
				return err
			}
		}
		for _, it := range toUpsert {
			row := models.StudentFeePlanItem{
				PlanID:          planID,
				ComponentTypeID: it.ComponentTypeID,
				Amount:          it.Amount,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "plan_id"}, {Name: "component_type_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
