package routes

import (
	"schoolfees_go/controllers"
	"schoolfees_go/middleware"
	"schoolfees_go/services"
	"schoolfees_go/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, logArchive *services.LogArchiveService) {
	planService := services.NewFeePlanService()
	bulkService := services.NewBulkApplyService()
	paymentService := services.NewPaymentService()
	importService := services.NewPaymentImportService()
	summaryService := services.NewSummaryService()
	exportService := services.NewReportExportService()

	reportStorage, err := storage.NewStorageService()
	if err != nil {
		logrus.WithError(err).Warn("Report storage unavailable; exports will not be archived")
		reportStorage = nil
	}

	authController := &controllers.AuthController{}
	studentController := &controllers.StudentController{}
	classController := &controllers.ClassController{}
	componentController := &controllers.FeeComponentController{}
	planController := controllers.NewFeePlanController(planService, summaryService)
	bulkController := controllers.NewFeeBulkController(bulkService, summaryService)
	paymentController := controllers.NewFeePaymentController(paymentService, importService, summaryService)
	summaryController := controllers.NewFeeSummaryController(summaryService, exportService, reportStorage)
	notificationController := &controllers.NotificationController{}
	logController := controllers.NewLogController(logArchive)

	api := app.Group("/api")

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Get("/profile", middleware.JWTMiddleware(), authController.GetProfile)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)
	protected.Post("/auth/logout", authController.Logout)

	// User management
	users := protected.Group("/users")
	users.Post("/", middleware.RequireOwnerOrAdmin(), authController.Register)

	// Academic structure
	years := protected.Group("/academic-years")
	years.Get("/", middleware.RequireStaff(), classController.GetAcademicYears)
	years.Post("/", middleware.RequireOwnerOrAdmin(), classController.CreateAcademicYear)

	classes := protected.Group("/classes")
	classes.Get("/", middleware.RequireStaff(), classController.GetClasses)
	classes.Get("/:id", middleware.RequireStaff(), classController.GetClass)
	classes.Post("/", middleware.RequireOwnerOrAdmin(), classController.CreateClass)
	classes.Put("/:id", middleware.RequireOwnerOrAdmin(), classController.UpdateClass)

	// Students
	students := protected.Group("/students")
	students.Get("/", middleware.RequireStaff(), studentController.GetStudents)
	students.Get("/:id", middleware.RequireStaff(), studentController.GetStudent)
	students.Post("/", middleware.RequireOwnerOrAdmin(), studentController.CreateStudent)
	students.Put("/:id", middleware.RequireOwnerOrAdmin(), studentController.UpdateStudent)
	students.Delete("/:id", middleware.RequireOwnerOrAdmin(), studentController.DeleteStudent)

	// Fee component catalog
	components := protected.Group("/fee-components")
	components.Get("/", middleware.RequireStaff(), componentController.GetFeeComponents)
	components.Post("/", middleware.RequireAccountantOrAbove(), componentController.CreateFeeComponent)
	components.Put("/:id", middleware.RequireAccountantOrAbove(), componentController.UpdateFeeComponent)
	components.Delete("/:id", middleware.RequireAccountantOrAbove(), componentController.DeleteFeeComponent)

	// Fee plans: reads for staff, writes for accountant and above
	plans := protected.Group("/fee-plans")
	plans.Post("/open", middleware.RequireAccountantOrAbove(), planController.OpenPlan)
	plans.Get("/student/:studentId", middleware.RequireStaff(), planController.GetPlan)
	plans.Put("/:id/items", middleware.RequireAccountantOrAbove(), planController.SavePlanItems)

	// Bulk class apply
	bulk := protected.Group("/fee-plans/bulk", middleware.RequireAccountantOrAbove())
	bulk.Post("/preview", bulkController.PreviewClassApply)
	bulk.Post("/apply", bulkController.ApplyClassPlan)

	// Payments
	payments := protected.Group("/fee-payments")
	payments.Post("/", middleware.RequireAccountantOrAbove(), paymentController.RecordPayment)
	payments.Get("/student/:studentId", middleware.RequireStaff(), paymentController.GetStudentPayments)
	payments.Post("/import", middleware.RequireAccountantOrAbove(), paymentController.ImportPayments)

	// Summaries
	summaries := protected.Group("/fee-summary")
	summaries.Get("/class/:classId", middleware.RequireStaff(), summaryController.GetClassSummary)
	summaries.Get("/class/:classId/export", middleware.RequireStaff(), summaryController.ExportClassSummary)
	summaries.Get("/student/:studentId", middleware.RequireStaff(), summaryController.GetStudentSummary)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Post("/", middleware.RequireOwnerOrAdmin(), notificationController.CreateNotification)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)
	notifications.Patch("/mark-all-read", notificationController.MarkAllAsRead)

	// Audit log management (Admin/Owner only)
	logs := protected.Group("/logs", middleware.RequireOwnerOrAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Get("/archives", logController.GetArchives)
	logs.Get("/archives/:id/download", logController.DownloadArchive)
	logs.Get("/:id", logController.GetLog)
	logs.Post("/flush-cache", logController.FlushCachedLogs)
	logs.Post("/archive", logController.TriggerArchive)
}
