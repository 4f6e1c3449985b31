// internal/services/testutil_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/leaselink/leaselink-backend/internal/database"
	"github.com/leaselink/leaselink-backend/internal/models"
)

// newTestDB opens an isolated in-memory sqlite database with the production
// schema. The pool is pinned to one connection so every query sees the same
// in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, role models.Role) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		FullName: string(role) + " user",
		Role:     role,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func seedProperty(t *testing.T, db *gorm.DB, landlordID uuid.UUID) *models.Property {
	t.Helper()

	availableFrom := time.Now().AddDate(0, 1, 0)
	property := &models.Property{
		LandlordID:       landlordID,
		Title:            "Sunny two bedroom",
		Description:      "Close to transit",
		Address:          "12 Elm St",
		City:             "Springfield",
		State:            "IL",
		ZipCode:          "62701",
		PropertyType:     "apartment",
		Bedrooms:         2,
		Bathrooms:        1,
		AreaSqft:         850,
		RentAmount:       1500,
		SecurityDeposit:  3000,
		AvailableFrom:    &availableFrom,
		MinLeaseDuration: 12,
		Status:           models.PropertyStatusAvailable,
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

func seedAgreement(t *testing.T, db *gorm.DB, svc *AgreementService, landlordID uuid.UUID, property *models.Property, tenantID uuid.UUID) *models.RentalAgreement {
	t.Helper()

	agreement, err := svc.Create(landlordID, &CreateAgreementRequest{
		PropertyID: property.ID,
		TenantID:   tenantID,
		Title:      "Lease for " + property.Title,
		Content: models.JSONB{
			"clauses": []interface{}{"no smoking", "no subletting"},
		},
		StartDate:       time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2027, 10, 1, 0, 0, 0, 0, time.UTC),
		RentAmount:      property.RentAmount,
		SecurityDeposit: property.SecurityDeposit,
		PaymentDueDay:   1,
	})
	require.NoError(t, err)
	return agreement
}

func notificationsFor(t *testing.T, db *gorm.DB, userID uuid.UUID) []models.Notification {
	t.Helper()

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Order("created_at ASC").Find(&notifications).Error)
	return notifications
}

func countNotifications(t *testing.T, db *gorm.DB, userID uuid.UUID, title string) int {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND title = ?", userID, title).
		Count(&count).Error)
	return int(count)
}
