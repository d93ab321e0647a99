package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"schoolfees_go/config"
	"schoolfees_go/database"
	"schoolfees_go/models"
	"schoolfees_go/services/feeledger"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// SummaryService turns the three row sets (catalog, plans with items,
// payments) into per-student summaries and class roll-ups. The unfiltered
// per-class payload is cached in Redis and invalidated on every fee
// mutation; search and plan-status filters are applied after the cache.
type SummaryService struct {
	db *gorm.DB
}

// NewSummaryService creates a summary service bound to the shared database
func NewSummaryService() *SummaryService {
	return &SummaryService{db: database.DB}
}

const summaryCacheTTL = 15 * time.Minute

// StudentFinancials is one cached row: identity, summary, and the resolved
// plan id for follow-up edits.
type StudentFinancials struct {
	Row    feeledger.StudentRow `json:"row"`
	PlanID *uint                `json:"plan_id,omitempty"`
}

// ClassSummary is the cached unfiltered payload for one (class, year).
type ClassSummary struct {
	Rows       []StudentFinancials `json:"rows"`
	ComputedAt time.Time           `json:"computed_at"`
}

func classSummaryCacheKey(schoolCode string, classID, academicYearID uint) string {
	return fmt.Sprintf("feesummary:%s:%d:%d", schoolCode, classID, academicYearID)
}

// GetClassSummary returns the class roster with computed summaries, served
// from cache when possible, plus the roll-up over the filtered rows.
func (s *SummaryService) GetClassSummary(schoolCode string, classID, academicYearID uint, query string, filter feeledger.PlanFilter) ([]StudentFinancials, feeledger.ClassTotals, error) {
	summary, err := s.loadClassSummary(schoolCode, classID, academicYearID)
	if err != nil {
		return nil, feeledger.ClassTotals{}, err
	}

	rows := make([]feeledger.StudentRow, 0, len(summary.Rows))
	planIDs := make(map[uint]*uint, len(summary.Rows))
	for _, r := range summary.Rows {
		rows = append(rows, r.Row)
		planIDs[r.Row.StudentID] = r.PlanID
	}

	rows = feeledger.FilterRows(rows, query, filter)
	feeledger.SortRowsByName(rows, language.English)
	totals := feeledger.AggregateClass(rows)

	out := make([]StudentFinancials, 0, len(rows))
	for _, r := range rows {
		out = append(out, StudentFinancials{Row: r, PlanID: planIDs[r.StudentID]})
	}
	return out, totals, nil
}

// GetStudentSummary computes one student's summary directly (no cache).
func (s *SummaryService) GetStudentSummary(schoolCode string, studentID, academicYearID uint) (*StudentFinancials, error) {
	var student models.Student
	if err := s.db.Where("id = ? AND school_code = ?", studentID, schoolCode).First(&student).Error; err != nil {
		return nil, fmt.Errorf("student not found in school %s", schoolCode)
	}

	var plans []models.StudentFeePlan
	if err := s.db.Preload("Items").
		Where("school_code = ? AND student_id = ? AND academic_year_id = ?",
			schoolCode, studentID, academicYearID).
		Find(&plans).Error; err != nil {
		return nil, err
	}
	var payments []models.FeePayment
	if err := s.db.Where("school_code = ? AND student_id = ?", schoolCode, studentID).
		Find(&payments).Error; err != nil {
		return nil, err
	}

	fin := buildStudentFinancials(student, plans, payments)
	return &fin, nil
}

// InvalidateClass drops the cached summary after a fee mutation. Readers
// recompute on the next fetch; there is no stronger coherency than
// invalidate-and-refetch.
func (s *SummaryService) InvalidateClass(schoolCode string, classID, academicYearID uint) {
	rc := database.GetRedisClient()
	if rc == nil || !config.AppConfig.UseSummaryCache {
		return
	}
	key := classSummaryCacheKey(schoolCode, classID, academicYearID)
	if err := rc.Del(context.Background(), key).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to invalidate class summary cache")
	}
}

// InvalidateSchool drops every cached class summary of one school. Bulk
// imports can touch students across many classes, so the whole tenant's
// cache goes.
func (s *SummaryService) InvalidateSchool(schoolCode string) {
	rc := database.GetRedisClient()
	if rc == nil || !config.AppConfig.UseSummaryCache {
		return
	}
	ctx := context.Background()
	pattern := fmt.Sprintf("feesummary:%s:*", schoolCode)
	// SCAN instead of KEYS so a large keyspace never blocks the server
	var cursor uint64
	for {
		keys, next, err := rc.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			logrus.WithError(err).Warn("Failed to scan summary cache keys")
			return
		}
		if len(keys) > 0 {
			if err := rc.Del(ctx, keys...).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to invalidate school summary cache")
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// InvalidateStudent drops the cache for whichever class the student sits in.
func (s *SummaryService) InvalidateStudent(schoolCode string, studentID, academicYearID uint) {
	var student models.Student
	if err := s.db.Where("id = ? AND school_code = ?", studentID, schoolCode).First(&student).Error; err != nil {
		return
	}
	if student.ClassInstanceID != 0 {
		s.InvalidateClass(schoolCode, student.ClassInstanceID, academicYearID)
	}
}

func (s *SummaryService) loadClassSummary(schoolCode string, classID, academicYearID uint) (*ClassSummary, error) {
	rc := database.GetRedisClient()
	useCache := rc != nil && config.AppConfig.UseSummaryCache
	key := classSummaryCacheKey(schoolCode, classID, academicYearID)

	if useCache {
		if raw, err := rc.Get(context.Background(), key).Bytes(); err == nil {
			var cached ClassSummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	summary, err := s.computeClassSummary(schoolCode, classID, academicYearID)
	if err != nil {
		return nil, err
	}

	if useCache {
		if raw, err := json.Marshal(summary); err == nil {
			if err := rc.Set(context.Background(), key, raw, summaryCacheTTL).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to cache class summary")
			}
		}
	}
	return summary, nil
}

// computeClassSummary fetches the three row sets independently and joins
// them in memory, mirroring how the read path always recomputes balances
// instead of storing them.
func (s *SummaryService) computeClassSummary(schoolCode string, classID, academicYearID uint) (*ClassSummary, error) {
	var class models.ClassInstance
	if err := s.db.Where("id = ? AND school_code = ?", classID, schoolCode).First(&class).Error; err != nil {
		return nil, fmt.Errorf("class not found in school %s", schoolCode)
	}

	var roster []models.Student
	if err := s.db.Where("school_code = ? AND class_instance_id = ?", schoolCode, classID).
		Find(&roster).Error; err != nil {
		return nil, err
	}

	studentIDs := make([]uint, 0, len(roster))
	for _, st := range roster {
		studentIDs = append(studentIDs, st.ID)
	}

	var plans []models.StudentFeePlan
	var payments []models.FeePayment
	if len(studentIDs) > 0 {
		if err := s.db.Preload("Items").
			Where("school_code = ? AND academic_year_id = ? AND student_id IN ?",
				schoolCode, academicYearID, studentIDs).
			Find(&plans).Error; err != nil {
			return nil, err
		}
		if err := s.db.Where("school_code = ? AND student_id IN ?", schoolCode, studentIDs).
			Find(&payments).Error; err != nil {
			return nil, err
		}
	}

	plansByStudent := make(map[uint][]models.StudentFeePlan, len(plans))
	for _, p := range plans {
		plansByStudent[p.StudentID] = append(plansByStudent[p.StudentID], p)
	}
	paymentsByStudent := make(map[uint][]models.FeePayment, len(payments))
	for _, p := range payments {
		paymentsByStudent[p.StudentID] = append(paymentsByStudent[p.StudentID], p)
	}

	summary := &ClassSummary{ComputedAt: time.Now()}
	for _, st := range roster {
		summary.Rows = append(summary.Rows,
			buildStudentFinancials(st, plansByStudent[st.ID], paymentsByStudent[st.ID]))
	}
	return summary, nil
}

// buildStudentFinancials reduces one student's rows to ledger inputs and
// computes the summary. Payments are matched by student alone, not by plan:
// rows recorded before the plan existed still count toward TotalPaid.
func buildStudentFinancials(student models.Student, plans []models.StudentFeePlan, payments []models.FeePayment) StudentFinancials {
	var plan *feeledger.Plan
	var planID *uint
	if len(plans) > 0 {
		p := plans[0]
		items := make([]feeledger.PlanItem, 0, len(p.Items))
		for _, it := range p.Items {
			items = append(items, feeledger.PlanItem{ComponentTypeID: it.ComponentTypeID, Amount: it.Amount})
		}
		plan = &feeledger.Plan{ID: p.ID, Items: items}
		id := p.ID
		planID = &id
	}

	ledgerPayments := make([]feeledger.Payment, 0, len(payments))
	for _, p := range payments {
		ledgerPayments = append(ledgerPayments, feeledger.Payment{ComponentTypeID: p.ComponentTypeID, Amount: p.Amount})
	}

	row := feeledger.StudentRow{
		StudentID:   student.ID,
		StudentCode: student.StudentCode,
		FullName:    student.FullName(),
		Summary:     feeledger.ComputeSummary(plan, ledgerPayments),
	}
	return StudentFinancials{Row: row, PlanID: planID}
}
