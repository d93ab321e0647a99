package services

import (
	"fmt"

	"schoolfees_go/config"
	"schoolfees_go/database"
	"schoolfees_go/models"
	"schoolfees_go/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaulterNotifier periodically scans for students with outstanding fee
// balances and creates in-app notifications for the school's accountants and
// admins. The scan is read-only over the ledger; it never mutates fee rows.
type DefaulterNotifier struct {
	db      *gorm.DB
	summary *SummaryService
	cron    *cron.Cron
}

// NewDefaulterNotifier creates a notifier bound to the shared database
func NewDefaulterNotifier() *DefaulterNotifier {
	return &DefaulterNotifier{
		db:      database.DB,
		summary: NewSummaryService(),
		cron:    cron.New(),
	}
}

// Start schedules the scan with the configured cron spec and runs until Stop.
func (dn *DefaulterNotifier) Start() error {
	spec := config.AppConfig.DefaulterCronSpec
	if _, err := dn.cron.AddFunc(spec, dn.ScanOnce); err != nil {
		return fmt.Errorf("invalid DEFAULTER_CRON_SPEC %q: %w", spec, err)
	}
	dn.cron.Start()
	logrus.WithField("spec", spec).Info("Defaulter notification scheduler started")
	return nil
}

// Stop halts the scheduler; a running scan finishes first.
func (dn *DefaulterNotifier) Stop() {
	ctx := dn.cron.Stop()
	<-ctx.Done()
}

// ScanOnce walks every active school/year pair and notifies staff about
// classes with outstanding balances.
func (dn *DefaulterNotifier) ScanOnce() {
	var years []models.AcademicYear
	if err := dn.db.Where("active = ?", true).Find(&years).Error; err != nil {
		logrus.WithError(err).Error("Defaulter scan: failed to load academic years")
		return
	}

	for _, year := range years {
		var classes []models.ClassInstance
		if err := dn.db.Where("school_code = ? AND academic_year_id = ?", year.SchoolCode, year.ID).
			Find(&classes).Error; err != nil {
			logrus.WithError(err).WithField("school", year.SchoolCode).Error("Defaulter scan: failed to load classes")
			continue
		}

		for _, class := range classes {
			dn.scanClass(year, class)
		}
	}
}

func (dn *DefaulterNotifier) scanClass(year models.AcademicYear, class models.ClassInstance) {
	summary, err := dn.summary.computeClassSummary(year.SchoolCode, class.ID, year.ID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"school": year.SchoolCode,
			"class":  class.Name,
		}).Error("Defaulter scan: summary failed")
		return
	}

	var defaulters int
	var pending int64
	for _, r := range summary.Rows {
		if r.Row.Balance > 0 {
			defaulters++
			pending += r.Row.Balance
		}
	}
	if defaulters == 0 {
		return
	}

	var recipients []models.User
	if err := dn.db.Where("school_code = ? AND status = ? AND role IN ?",
		year.SchoolCode, "active", []string{"owner", "admin", "accountant"}).
		Find(&recipients).Error; err != nil {
		logrus.WithError(err).Error("Defaulter scan: failed to load recipients")
		return
	}

	title := fmt.Sprintf("Outstanding fees in %s", class.Name)
	message := fmt.Sprintf("%d student(s) in %s still owe %s for %s.",
		defaulters, class.Name, utils.FormatMinorUnits(pending), year.Name)

	for _, u := range recipients {
		notification := models.Notification{
			UserID:  u.ID,
			Title:   title,
			Message: message,
			Type:    "warning",
		}
		if err := dn.db.Create(&notification).Error; err != nil {
			logrus.WithError(err).WithField("user_id", u.ID).Error("Defaulter scan: failed to create notification")
		}
	}

	logrus.WithFields(logrus.Fields{
		"school":     year.SchoolCode,
		"class":      class.Name,
		"defaulters": defaulters,
		"pending":    pending,
	}).Info("Defaulter notifications created")
}
