package services

import (
	"errors"
	"fmt"
	"time"

	"schoolfees_go/database"
	"schoolfees_go/models"
	"schoolfees_go/utils"

	"gorm.io/gorm"
)

// PaymentService appends rows to the fee payment ledger. Payments are never
// updated or deleted; corrections are recorded as new entries and balances
// are always recomputed on read.
type PaymentService struct {
	db *gorm.DB
}

// NewPaymentService creates a payment service bound to the shared database
func NewPaymentService() *PaymentService {
	return &PaymentService{db: database.DB}
}

// RecordPaymentInput is the validated command for one ledger append.
type RecordPaymentInput struct {
	StudentID       uint
	ComponentTypeID uint
	AcademicYearID  uint
	Amount          int64
	PaymentDate     *time.Time
	PaymentMethod   string
	TransactionID   string
	Remarks         string
	CreatedBy       uint
}

var (
	ErrNonPositiveAmount    = errors.New("payment amount must be positive")
	ErrComponentNotInPlan   = errors.New("selected component is not part of the student's current plan")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// RecordPayment validates and appends one payment. The component must belong
// to the student's current plan items; the plan id is attached when a plan
// resolves and left null otherwise (historical imports may come in before a
// plan exists, the interactive recorder will not).
func (s *PaymentService) RecordPayment(schoolCode string, in RecordPaymentInput) (*models.FeePayment, error) {
	if in.Amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "cash"
	}
	if !utils.IsValidPaymentMethod(in.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	var student models.Student
	if err := s.db.Where("id = ? AND school_code = ?", in.StudentID, schoolCode).First(&student).Error; err != nil {
		return nil, fmt.Errorf("student not found in school %s", schoolCode)
	}

	// Resolve the student's plan for the year, if any
	var planID *uint
	var plan models.StudentFeePlan
	err := s.db.Preload("Items").
		Where("school_code = ? AND student_id = ? AND academic_year_id = ?",
			schoolCode, in.StudentID, in.AcademicYearID).
		First(&plan).Error
	switch {
	case err == nil:
		planID = &plan.ID
		found := false
		for _, it := range plan.Items {
			if it.ComponentTypeID == in.ComponentTypeID {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrComponentNotInPlan
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrComponentNotInPlan
	default:
		return nil, err
	}

	now := time.Now()
	if in.PaymentDate == nil {
		in.PaymentDate = &now
	}

	payment := models.FeePayment{
		SchoolCode:      schoolCode,
		StudentID:       in.StudentID,
		PlanID:          planID,
		ComponentTypeID: in.ComponentTypeID,
		Amount:          in.Amount,
		PaymentDate:     in.PaymentDate,
		PaymentMethod:   in.PaymentMethod,
		TransactionID:   in.TransactionID,
		ReceiptNumber:   utils.GenerateReceiptNumber(now),
		Remarks:         utils.SanitizeString(in.Remarks),
		CreatedBy:       in.CreatedBy,
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListStudentPayments returns the student's full ledger, newest first.
func (s *PaymentService) ListStudentPayments(schoolCode string, studentID uint) ([]models.FeePayment, error) {
	var payments []models.FeePayment
	err := s.db.Preload("ComponentType").
		Where("school_code = ? AND student_id = ?", schoolCode, studentID).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error
	return payments, err
}
