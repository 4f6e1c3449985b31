// internal/services/property_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/models"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

type PropertyServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      *PropertyService
	landlord *models.Profile
}

func (s *PropertyServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewPropertyService(s.db)
	s.landlord = seedProfile(s.T(), s.db, models.RoleLandlord)
}

func (s *PropertyServiceTestSuite) TestSearchReturnsOnlyAvailable() {
	available := seedProperty(s.T(), s.db, s.landlord.ID)
	rented := seedProperty(s.T(), s.db, s.landlord.ID)
	require.NoError(s.T(), s.db.Model(rented).
		Update("status", models.PropertyStatusRented).Error)

	properties, total, err := s.svc.Search(PropertySearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"},
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), properties, 1)
	assert.Equal(s.T(), available.ID, properties[0].ID)
}

func (s *PropertyServiceTestSuite) TestUpdateOwnershipGuard() {
	property := seedProperty(s.T(), s.db, s.landlord.ID)
	other := seedProfile(s.T(), s.db, models.RoleLandlord)

	title := "Renamed listing"
	_, err := s.svc.Update(other.ID, property.ID, &UpdatePropertyRequest{Title: &title})
	assert.ErrorIs(s.T(), err, ErrForbidden)

	updated, err := s.svc.Update(s.landlord.ID, property.ID, &UpdatePropertyRequest{Title: &title})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.landlord.ID, updated.LandlordID)
}

func (s *PropertyServiceTestSuite) TestDeleteCascades() {
	property := seedProperty(s.T(), s.db, s.landlord.ID)
	tenant := seedProfile(s.T(), s.db, models.RoleTenant)

	negSvc := NewNegotiationService(s.db, NewNotificationService(s.db))
	_, err := negSvc.Create(tenant.ID, &CreateNegotiationRequest{
		PropertyID:   property.ID,
		ProposedRent: 1400,
	})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.svc.Delete(s.landlord.ID, property.ID))

	_, err = s.svc.Get(property.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	var negotiationCount int64
	require.NoError(s.T(), s.db.Model(&models.Negotiation{}).
		Where("property_id = ?", property.ID).
		Count(&negotiationCount).Error)
	assert.Zero(s.T(), negotiationCount)
}

func (s *PropertyServiceTestSuite) TestMarkRented() {
	property := seedProperty(s.T(), s.db, s.landlord.ID)

	require.NoError(s.T(), s.svc.MarkRented(property.ID))

	fetched, err := s.svc.Get(property.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.PropertyStatusRented, fetched.Status)
}

func TestPropertyServiceSuite(t *testing.T) {
	suite.Run(t, new(PropertyServiceTestSuite))
}

type ViewingServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      *ViewingService
	landlord *models.Profile
	tenant   *models.Profile
	property *models.Property
}

func (s *ViewingServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewViewingService(s.db, NewNotificationService(s.db))
	s.landlord = seedProfile(s.T(), s.db, models.RoleLandlord)
	s.tenant = seedProfile(s.T(), s.db, models.RoleTenant)
	s.property = seedProperty(s.T(), s.db, s.landlord.ID)
}

func (s *ViewingServiceTestSuite) request() *models.PropertyViewing {
	viewing, err := s.svc.Request(s.tenant.ID, &RequestViewingRequest{
		PropertyID:  s.property.ID,
		ViewingDate: time.Now().AddDate(0, 0, 7),
	})
	require.NoError(s.T(), err)
	return viewing
}

func (s *ViewingServiceTestSuite) TestRequestNotifiesLandlord() {
	viewing := s.request()

	assert.Equal(s.T(), models.ViewingStatusRequested, viewing.Status)
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.landlord.ID, "New Viewing Request"))
}

func (s *ViewingServiceTestSuite) TestTenantMayOnlyCancel() {
	viewing := s.request()

	_, err := s.svc.UpdateStatus(s.tenant.ID, viewing.ID, models.ViewingStatusConfirmed)
	assert.ErrorIs(s.T(), err, ErrForbidden)

	updated, err := s.svc.UpdateStatus(s.tenant.ID, viewing.ID, models.ViewingStatusCancelled)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.ViewingStatusCancelled, updated.Status)

	// Cancelled is terminal.
	_, err = s.svc.UpdateStatus(s.landlord.ID, viewing.ID, models.ViewingStatusConfirmed)
	assert.ErrorIs(s.T(), err, ErrInvalidState)
}

func (s *ViewingServiceTestSuite) TestLandlordConfirmsAndCompletes() {
	viewing := s.request()

	_, err := s.svc.UpdateStatus(s.landlord.ID, viewing.ID, models.ViewingStatusConfirmed)
	require.NoError(s.T(), err)

	updated, err := s.svc.UpdateStatus(s.landlord.ID, viewing.ID, models.ViewingStatusCompleted)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.ViewingStatusCompleted, updated.Status)
}

func TestViewingServiceSuite(t *testing.T) {
	suite.Run(t, new(ViewingServiceTestSuite))
}
