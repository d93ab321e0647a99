package services

import (
	"fmt"

	"schoolfees_go/database"
	"schoolfees_go/models"
	"schoolfees_go/services/feeledger"

	"gorm.io/gorm"
)

// BulkApplyService applies one fee template to every student of a class,
// replacing their individual plans.
type BulkApplyService struct {
	db *gorm.DB
}

// NewBulkApplyService creates a bulk apply service bound to the shared database
func NewBulkApplyService() *BulkApplyService {
	return &BulkApplyService{db: database.DB}
}

// BulkApplyResult reports what a class-wide apply touched.
type BulkApplyResult struct {
	StudentsTotal int `json:"students_total"`
	PlansCreated  int `json:"plans_created"`
	PlansReused   int `json:"plans_reused"`
	ItemsWritten  int `json:"items_written"`
}

// ApplyClassPlan replaces every enrolled student's plan items with the
// template. The whole sequence - insert missing plans, delete old items,
// insert template items per plan - runs in one transaction: a mid-sequence
// failure rolls everything back instead of leaving orphaned empty plans.
//
// expectedStudents carries the roster size the operator confirmed; the apply
// is refused when the roster changed in between.
func (s *BulkApplyService) ApplyClassPlan(schoolCode string, classID, academicYearID uint, template []feeledger.PlanItem, expectedStudents int, createdBy uint) (*BulkApplyResult, error) {
	if err := feeledger.ValidateTemplate(template); err != nil {
		return nil, err
	}

	var class models.ClassInstance
	if err := s.db.Where("id = ? AND school_code = ?", classID, schoolCode).First(&class).Error; err != nil {
		return nil, fmt.Errorf("class not found in school %s", schoolCode)
	}
	var year models.AcademicYear
	if err := s.db.Where("id = ? AND school_code = ?", academicYearID, schoolCode).First(&year).Error; err != nil {
		return nil, fmt.Errorf("academic year not found in school %s", schoolCode)
	}

	componentIDs := make([]uint, 0, len(template))
	for _, it := range template {
		componentIDs = append(componentIDs, it.ComponentTypeID)
	}
	var componentCount int64
	if err := s.db.Model(&models.FeeComponentType{}).
		Where("school_code = ? AND id IN ?", schoolCode, componentIDs).
		Count(&componentCount).Error; err != nil {
		return nil, err
	}
	if componentCount != int64(len(componentIDs)) {
		return nil, fmt.Errorf("one or more fee components do not belong to school %s", schoolCode)
	}

	var roster []models.Student
	if err := s.db.Where("school_code = ? AND class_instance_id = ? AND status = ?",
		schoolCode, classID, "enrolled").Find(&roster).Error; err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("class has no enrolled students")
	}
	if expectedStudents != len(roster) {
		return nil, &RosterChangedError{Expected: expectedStudents, Actual: len(roster)}
	}

	result := &BulkApplyResult{StudentsTotal: len(roster)}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		studentIDs := make([]uint, 0, len(roster))
		for _, st := range roster {
			studentIDs = append(studentIDs, st.ID)
		}

		// Partition roster into has-plan / missing-plan
		var existingPlans []models.StudentFeePlan
		if err := tx.Where("school_code = ? AND academic_year_id = ? AND student_id IN ?",
			schoolCode, academicYearID, studentIDs).Find(&existingPlans).Error; err != nil {
			return err
		}
		hasPlan := make(map[uint]bool, len(existingPlans))
		planIDs := make([]uint, 0, len(roster))
		for _, p := range existingPlans {
			hasPlan[p.StudentID] = true
			planIDs = append(planIDs, p.ID)
		}
		split := feeledger.SplitRoster(studentIDs, hasPlan)
		result.PlansReused = len(split.WithPlan)

		missing := make([]models.StudentFeePlan, 0, len(split.Missing))
		for _, studentID := range split.Missing {
			missing = append(missing, models.StudentFeePlan{
				SchoolCode:      schoolCode,
				StudentID:       studentID,
				ClassInstanceID: classID,
				AcademicYearID:  academicYearID,
				CreatedBy:       createdBy,
			})
		}
		if len(missing) > 0 {
			if err := tx.Create(&missing).Error; err != nil {
				return err
			}
			for _, p := range missing {
				planIDs = append(planIDs, p.ID)
			}
			result.PlansCreated = len(missing)
		}

		// Replace semantics: clear every plan, then write the template once per plan
		if err := tx.Where("plan_id IN ?", planIDs).Delete(&models.StudentFeePlanItem{}).Error; err != nil {
			return err
		}

		assignments := feeledger.ExpandTemplate(planIDs, template)
		items := make([]models.StudentFeePlanItem, 0, len(assignments))
		for _, a := range assignments {
			items = append(items, models.StudentFeePlanItem{
				PlanID:          a.PlanID,
				ComponentTypeID: a.Item.ComponentTypeID,
				Amount:          a.Item.Amount,
			})
		}
		if err := tx.CreateInBatches(items, 200).Error; err != nil {
			return err
		}
		result.ItemsWritten = len(items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RosterChangedError is returned when the confirmed student count no longer
// matches the roster at apply time. Handlers surface it as a 409.
type RosterChangedError struct {
	Expected int
	Actual   int
}

func (e *RosterChangedError) Error() string {
	return fmt.Sprintf("roster changed: confirmed %d students but class now has %d", e.Expected, e.Actual)
}
