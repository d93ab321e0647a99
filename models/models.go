package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// School model. Code is the tenant key carried on every fee table.
type School struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null"`
	Code    string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Address string `json:"address" gorm:"size:500"`
	Phone   string `json:"phone" gorm:"size:20"`
	Active  bool   `json:"active" gorm:"default:true"`

	// Relationships
	Users         []User          `json:"users,omitempty" gorm:"foreignKey:SchoolCode;references:Code"`
	AcademicYears []AcademicYear  `json:"academic_years,omitempty" gorm:"foreignKey:SchoolCode;references:Code"`
	Classes       []ClassInstance `json:"classes,omitempty" gorm:"foreignKey:SchoolCode;references:Code"`
}

// User model
type User struct {
	BaseModel
	Username   string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password   string `json:"-" gorm:"size:255;not null"`
	Email      string `json:"email" gorm:"size:255;uniqueIndex"`
	Phone      string `json:"phone" gorm:"size:20"`
	Role       string `json:"role" gorm:"size:50;not null;default:'teacher';type:enum('owner','admin','accountant','teacher')"` // owner, admin, accountant, teacher
	SchoolCode string `json:"school_code" gorm:"size:50;not null;index"`
	Status     string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"` // active, inactive, suspended

	// Relationships
	School School `json:"school,omitempty" gorm:"foreignKey:SchoolCode;references:Code"`
}

// AcademicYear model. Fee plans are scoped to exactly one academic year.
type AcademicYear struct {
	BaseModel
	SchoolCode string    `json:"school_code" gorm:"size:50;not null;index"`
	Name       string    `json:"name" gorm:"size:50;not null"` // e.g. "2025-2026"
	StartDate  time.Time `json:"start_date" gorm:"not null"`
	EndDate    time.Time `json:"end_date" gorm:"not null"`
	Active     bool      `json:"active" gorm:"default:false"`
}

// ClassInstance model. A concrete class section within one academic year.
type ClassInstance struct {
	BaseModel
	SchoolCode     string `json:"school_code" gorm:"size:50;not null;index"`
	AcademicYearID uint   `json:"academic_year_id" gorm:"not null;index"`
	GradeLevel     string `json:"grade_level" gorm:"size:50;not null"`
	Section        string `json:"section" gorm:"size:50"`
	Name           string `json:"name" gorm:"size:100;not null"`

	// Relationships
	AcademicYear AcademicYear `json:"academic_year,omitempty" gorm:"foreignKey:AcademicYearID"`
	Students     []Student    `json:"students,omitempty" gorm:"foreignKey:ClassInstanceID"`
}

// Student model
type Student struct {
	BaseModel
	SchoolCode      string     `json:"school_code" gorm:"size:50;not null;uniqueIndex:idx_students_school_student_code,priority:1"`
	ClassInstanceID uint       `json:"class_instance_id" gorm:"index"`
	StudentCode     string     `json:"student_code" gorm:"size:50;not null;uniqueIndex:idx_students_school_student_code,priority:2"`
	FirstName       string     `json:"first_name" gorm:"size:100;not null"`
	LastName        string     `json:"last_name" gorm:"size:100"`
	Gender          string     `json:"gender" gorm:"size:20"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	GuardianName    string     `json:"guardian_name" gorm:"size:200"`
	GuardianPhone   string     `json:"guardian_phone" gorm:"size:20"`
	Status          string     `json:"status" gorm:"size:50;not null;default:'enrolled';type:enum('enrolled','transferred','withdrawn')"` // enrolled, transferred, withdrawn

	// Relationships
	ClassInstance ClassInstance `json:"class_instance,omitempty" gorm:"foreignKey:ClassInstanceID"`
}

// FullName joins the student's names for display and sorting.
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// FeeComponentType is the catalog of chargeable items (tuition, transport, ...).
// Amounts are integer minor units (e.g. satang/paise).
type FeeComponentType struct {
	BaseModel
	SchoolCode    string `json:"school_code" gorm:"size:50;not null;uniqueIndex:idx_fee_components_school_name,priority:1"`
	Name          string `json:"name" gorm:"size:100;not null;uniqueIndex:idx_fee_components_school_name,priority:2"`
	DefaultAmount int64  `json:"default_amount" gorm:"not null;default:0"`
}

// StudentFeePlan is one student's fee assignment for one academic year.
// The unique index makes plan creation an idempotent get-or-create: a
// conflicting insert is treated as "fetch existing" by the plan service.
type StudentFeePlan struct {
	BaseModel
	SchoolCode      string `json:"school_code" gorm:"size:50;not null;uniqueIndex:idx_fee_plans_school_student_year,priority:1"`
	StudentID       uint   `json:"student_id" gorm:"not null;uniqueIndex:idx_fee_plans_school_student_year,priority:2"`
	ClassInstanceID uint   `json:"class_instance_id" gorm:"index"`
	AcademicYearID  uint   `json:"academic_year_id" gorm:"not null;uniqueIndex:idx_fee_plans_school_student_year,priority:3"`
	CreatedBy       uint   `json:"created_by"`

	// Relationships
	Student Student              `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Items   []StudentFeePlanItem `json:"items,omitempty" gorm:"foreignKey:PlanID"`
}

// StudentFeePlanItem says "student owes Amount for Component this year".
// Unique on (plan_id, component_type_id); saves go through upsert-on-conflict.
// No soft delete: a removed item must free its slot in the unique index
// immediately so the component can be re-added later.
type StudentFeePlanItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PlanID          uint  `json:"plan_id" gorm:"not null;uniqueIndex:idx_fee_plan_items_plan_component,priority:1"`
	ComponentTypeID uint  `json:"component_type_id" gorm:"not null;uniqueIndex:idx_fee_plan_items_plan_component,priority:2"`
	Amount          int64 `json:"amount" gorm:"not null;default:0"`

	// Relationships
	ComponentType FeeComponentType `json:"component_type,omitempty" gorm:"foreignKey:ComponentTypeID"`
}

// FeePayment is an append-only ledger row. Rows are never updated or
// deleted; corrections are recorded as new entries. PlanID stays null when
// the payment predates the student's plan.
type FeePayment struct {
	BaseModel
	SchoolCode      string     `json:"school_code" gorm:"size:50;not null;index"`
	StudentID       uint       `json:"student_id" gorm:"not null;index"`
	PlanID          *uint      `json:"plan_id" gorm:"default:null"`
	ComponentTypeID uint       `json:"component_type_id" gorm:"not null"`
	Amount          int64      `json:"amount" gorm:"not null"`
	PaymentDate     *time.Time `json:"payment_date"`
	PaymentMethod   string     `json:"payment_method" gorm:"size:50;not null;default:'cash';type:enum('cash','transfer','cheque','card','online','unknown')"` // cash, transfer, cheque, card, online, unknown
	TransactionID   string     `json:"transaction_id" gorm:"size:100;index"`
	ReceiptNumber   string     `json:"receipt_number" gorm:"size:100;uniqueIndex"`
	RowUID          string     `json:"row_uid" gorm:"size:500;index"` // dedupe key for bulk imports
	Remarks         string     `json:"remarks" gorm:"size:500"`
	CreatedBy       uint       `json:"created_by"`

	// Relationships
	Student       Student          `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	ComponentType FeeComponentType `json:"component_type,omitempty" gorm:"foreignKey:ComponentTypeID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
