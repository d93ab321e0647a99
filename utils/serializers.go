package utils

import (
	"time"

	"schoolfees_go/models"
	"schoolfees_go/services/feeledger"
)

// Compact representations used across APIs
type StudentShort struct {
	ID          uint   `json:"id"`
	StudentCode string `json:"student_code"`
	FullName    string `json:"full_name"`
}

type ComponentShort struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	DefaultAmount int64  `json:"default_amount"`
}

// StudentSummaryDTO is one row of a class fee summary response. Display
// strings carry the major-unit rendering; clients doing arithmetic use the
// minor-unit fields.
type StudentSummaryDTO struct {
	Student      StudentShort `json:"student"`
	PlanID       *uint        `json:"plan_id,omitempty"`
	TotalDue     int64        `json:"total_due"`
	TotalPaid    int64        `json:"total_paid"`
	Balance      int64        `json:"balance"`
	Percentage   int          `json:"percentage"`
	HasPlan      bool         `json:"has_plan"`
	TotalDueStr  string       `json:"total_due_display"`
	TotalPaidStr string       `json:"total_paid_display"`
	BalanceStr   string       `json:"balance_display"`
}

type PaymentDTO struct {
	ID            uint       `json:"id"`
	StudentID     uint       `json:"student_id"`
	PlanID        *uint      `json:"plan_id,omitempty"`
	ComponentID   uint       `json:"component_type_id"`
	ComponentName string     `json:"component_name,omitempty"`
	Amount        int64      `json:"amount"`
	AmountStr     string     `json:"amount_display"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	TransactionID string     `json:"transaction_id,omitempty"`
	ReceiptNumber string     `json:"receipt_number"`
	Remarks       string     `json:"remarks,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToStudentSummaryDTO flattens a ledger row plus plan id into the API shape.
func ToStudentSummaryDTO(row feeledger.StudentRow, planID *uint) StudentSummaryDTO {
	return StudentSummaryDTO{
		Student: StudentShort{
			ID:          row.StudentID,
			StudentCode: row.StudentCode,
			FullName:    row.FullName,
		},
		PlanID:       planID,
		TotalDue:     row.TotalDue,
		TotalPaid:    row.TotalPaid,
		Balance:      row.Balance,
		Percentage:   row.Percentage,
		HasPlan:      row.HasPlan,
		TotalDueStr:  FormatMinorUnits(row.TotalDue),
		TotalPaidStr: FormatMinorUnits(row.TotalPaid),
		BalanceStr:   FormatMinorUnits(row.Balance),
	}
}

// ToPaymentDTO maps a ledger row to its API shape.
func ToPaymentDTO(p models.FeePayment) PaymentDTO {
	dto := PaymentDTO{
		ID:            p.ID,
		StudentID:     p.StudentID,
		PlanID:        p.PlanID,
		ComponentID:   p.ComponentTypeID,
		Amount:        p.Amount,
		AmountStr:     FormatMinorUnits(p.Amount),
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		ReceiptNumber: p.ReceiptNumber,
		Remarks:       p.Remarks,
		CreatedAt:     p.CreatedAt,
	}
	if p.ComponentType.ID != 0 {
		dto.ComponentName = p.ComponentType.Name
	}
	return dto
}

// ToComponentShorts maps deduped catalog entries to the API shape.
func ToComponentShorts(components []feeledger.Component) []ComponentShort {
	out := make([]ComponentShort, 0, len(components))
	for _, c := range components {
		out = append(out, ComponentShort{ID: c.ID, Name: c.Name, DefaultAmount: c.DefaultAmount})
	}
	return out
}
