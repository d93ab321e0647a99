package seeders

import (
	"log"
	"strconv"
	"time"

	"schoolfees_go/database"
	"schoolfees_go/models"
	"schoolfees_go/utils"
)

const demoSchoolCode = "DEMO"

// SeedAll populates a demo tenant so a fresh install has data to click
// through. Each seeder skips its table when rows already exist.
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedSchools()
	SeedUsers()
	SeedAcademicYears()
	SeedClasses()
	SeedStudents()
	SeedFeeComponents()

	log.Println("Database seeding completed successfully!")
}

// SeedSchools seeds the schools table
func SeedSchools() {
	var count int64
	database.DB.Model(&models.School{}).Count(&count)
	if count > 0 {
		log.Println("Schools already seeded, skipping...")
		return
	}

	school := models.School{
		Name:    "Demo Public School",
		Code:    demoSchoolCode,
		Address: "42 School Lane",
		Phone:   "02-9998877",
		Active:  true,
	}
	if err := database.DB.Create(&school).Error; err != nil {
		log.Printf("Error seeding school %s: %v", school.Code, err)
	}

	log.Println("Schools seeded successfully")
}

// SeedUsers seeds one user per role
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	hashedPassword, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			Username:   "owner",
			Password:   hashedPassword,
			Email:      "owner@demo.school",
			Phone:      "0810000001",
			Role:       "owner",
			SchoolCode: demoSchoolCode,
			Status:     "active",
		},
		{
			Username:   "admin",
			Password:   hashedPassword,
			Email:      "admin@demo.school",
			Phone:      "0810000002",
			Role:       "admin",
			SchoolCode: demoSchoolCode,
			Status:     "active",
		},
		{
			Username:   "accounts",
			Password:   hashedPassword,
			Email:      "accounts@demo.school",
			Phone:      "0810000003",
			Role:       "accountant",
			SchoolCode: demoSchoolCode,
			Status:     "active",
		},
		{
			Username:   "teacher1",
			Password:   hashedPassword,
			Email:      "teacher1@demo.school",
			Phone:      "0810000004",
			Role:       "teacher",
			SchoolCode: demoSchoolCode,
			Status:     "active",
		},
	}

	for _, user := range users {
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", user.Username, err)
		}
	}

	log.Println("Users seeded successfully")
}

// SeedAcademicYears seeds the current and previous academic years
func SeedAcademicYears() {
	var count int64
	database.DB.Model(&models.AcademicYear{}).Count(&count)
	if count > 0 {
		log.Println("Academic years already seeded, skipping...")
		return
	}

	years := []models.AcademicYear{
		{
			SchoolCode: demoSchoolCode,
			Name:       "2025-2026",
			StartDate:  time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			Active:     true,
		},
		{
			SchoolCode: demoSchoolCode,
			Name:       "2024-2025",
			StartDate:  time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			Active:     false,
		},
	}

	for _, year := range years {
		if err := database.DB.Create(&year).Error; err != nil {
			log.Printf("Error seeding academic year %s: %v", year.Name, err)
		}
	}

	log.Println("Academic years seeded successfully")
}

// SeedClasses seeds class sections in the active academic year
func SeedClasses() {
	var count int64
	database.DB.Model(&models.ClassInstance{}).Count(&count)
	if count > 0 {
		log.Println("Classes already seeded, skipping...")
		return
	}

	var activeYear models.AcademicYear
	if err := database.DB.Where("school_code = ? AND active = ?", demoSchoolCode, true).First(&activeYear).Error; err != nil {
		log.Printf("Error finding active academic year: %v", err)
		return
	}

	classes := []models.ClassInstance{
		{SchoolCode: demoSchoolCode, AcademicYearID: activeYear.ID, GradeLevel: "Grade 1", Section: "A", Name: "Grade 1-A"},
		{SchoolCode: demoSchoolCode, AcademicYearID: activeYear.ID, GradeLevel: "Grade 1", Section: "B", Name: "Grade 1-B"},
		{SchoolCode: demoSchoolCode, AcademicYearID: activeYear.ID, GradeLevel: "Grade 2", Section: "A", Name: "Grade 2-A"},
	}

	for _, class := range classes {
		if err := database.DB.Create(&class).Error; err != nil {
			log.Printf("Error seeding class %s: %v", class.Name, err)
		}
	}

	log.Println("Classes seeded successfully")
}

// SeedStudents seeds a small roster per class
func SeedStudents() {
	var count int64
	database.DB.Model(&models.Student{}).Count(&count)
	if count > 0 {
		log.Println("Students already seeded, skipping...")
		return
	}

	var classes []models.ClassInstance
	if err := database.DB.Where("school_code = ?", demoSchoolCode).Order("id").Find(&classes).Error; err != nil || len(classes) == 0 {
		log.Printf("Error finding classes for student seeding: %v", err)
		return
	}

	names := []struct {
		First string
		Last  string
	}{
		{"Aisha", "Khan"},
		{"Ben", "Carter"},
		{"Chitra", "Rao"},
		{"Daniel", "Osei"},
		{"Fatima", "Noor"},
		{"Grace", "Lin"},
	}

	code := 1000
	for _, class := range classes {
		for i := 0; i < len(names); i++ {
			code++
			student := models.Student{
				SchoolCode:      demoSchoolCode,
				ClassInstanceID: class.ID,
				StudentCode:     "S" + time.Now().Format("2006") + "-" + strconv.Itoa(code),
				FirstName:       names[i].First,
				LastName:        names[i].Last,
				Status:          "enrolled",
			}
			if err := database.DB.Create(&student).Error; err != nil {
				log.Printf("Error seeding student %s: %v", student.StudentCode, err)
			}
		}
	}

	log.Println("Students seeded successfully")
}

// SeedFeeComponents seeds the fee component catalog. Amounts are minor units.
func SeedFeeComponents() {
	var count int64
	database.DB.Model(&models.FeeComponentType{}).Count(&count)
	if count > 0 {
		log.Println("Fee components already seeded, skipping...")
		return
	}

	components := []models.FeeComponentType{
		{SchoolCode: demoSchoolCode, Name: "Tuition Fee", DefaultAmount: 1200000},
		{SchoolCode: demoSchoolCode, Name: "Transport Fee", DefaultAmount: 300000},
		{SchoolCode: demoSchoolCode, Name: "Library Fee", DefaultAmount: 50000},
		{SchoolCode: demoSchoolCode, Name: "Sports Fee", DefaultAmount: 75000},
		{SchoolCode: demoSchoolCode, Name: "Examination Fee", DefaultAmount: 100000},
	}

	for _, component := range components {
		if err := database.DB.Create(&component).Error; err != nil {
			log.Printf("Error seeding fee component %s: %v", component.Name, err)
		}
	}

	log.Println("Fee components seeded successfully")
}
