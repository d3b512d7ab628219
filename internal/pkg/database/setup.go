package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/env"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,   // data source name
			DefaultStringSize:         256,   // default size for string fields
			DisableDatetimePrecision:  true,  // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
		}), &gorm.Config{})
		if err == nil {
			DB.AutoMigrate(
				&models.Plan{},
				&models.PlanPricing{},
				&models.Organization{},
				&models.PaymentOrder{},
				&models.PlanChangeRequest{},
			)

			if seedErr := seedDefaultPlans(DB); seedErr != nil {
				log.Printf("Failed to seed default plans: %v", seedErr)
			}

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retry number %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// GetDB returns the global database handle
func GetDB() *gorm.DB {
	return DB
}

// seedDefaultPlans makes sure the catalog always carries a default plan so
// new organizations can be assigned one (the assignment is a total
// function). Existing catalogs are left untouched.
func seedDefaultPlans(db *gorm.DB) error {
	var def models.Plan
	err := db.Where("is_default = ?", true).First(&def).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	maxUsers := 5
	maxApps := 2
	maxStorage := int64(1024)
	free := models.Plan{
		Slug:         models.PlanSlugFree,
		Name:         "Free",
		Description:  "Default plan for new organizations",
		MaxUsers:     &maxUsers,
		MaxApps:      &maxApps,
		MaxStorageMB: &maxStorage,
		IsDefault:    true,
		IsActive:     true,
	}
	if err := db.Create(&free).Error; err != nil {
		return err
	}
	log.Printf("Seeded default plan %q (id %d)", free.Slug, free.ID)
	return nil
}
