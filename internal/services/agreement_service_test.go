// internal/services/agreement_service_test.go
package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/models"
)

type AgreementServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      *AgreementService
	landlord *models.Profile
	tenant   *models.Profile
	property *models.Property
}

func (s *AgreementServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewAgreementService(s.db, NewNotificationService(s.db))
	s.landlord = seedProfile(s.T(), s.db, models.RoleLandlord)
	s.tenant = seedProfile(s.T(), s.db, models.RoleTenant)
	s.property = seedProperty(s.T(), s.db, s.landlord.ID)
}

func (s *AgreementServiceTestSuite) setStatus(agreement *models.RentalAgreement, status models.AgreementStatus) {
	require.NoError(s.T(), s.db.Model(&models.RentalAgreement{}).
		Where("id = ?", agreement.ID).
		Update("status", status).Error)
	agreement.Status = status
}

func (s *AgreementServiceTestSuite) versions(agreement *models.RentalAgreement) []models.AgreementVersion {
	var versions []models.AgreementVersion
	require.NoError(s.T(), s.db.Where("agreement_id = ?", agreement.ID).
		Order("version_number ASC").Find(&versions).Error)
	return versions
}

func boolPtr(b bool) *bool { return &b }

func (s *AgreementServiceTestSuite) TestCreateSeedsVersionOne() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)

	assert.Equal(s.T(), models.AgreementStatusDraft, agreement.Status)
	assert.False(s.T(), agreement.TenantSigned)
	assert.False(s.T(), agreement.LandlordSigned)

	versions := s.versions(agreement)
	require.Len(s.T(), versions, 1)
	assert.Equal(s.T(), 1, versions[0].VersionNumber)
	assert.Equal(s.T(), s.landlord.ID, versions[0].CreatedBy)

	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.tenant.ID, "New Rental Agreement"))
}

func (s *AgreementServiceTestSuite) TestCreateRequiresOwnedAvailableProperty() {
	otherLandlord := seedProfile(s.T(), s.db, models.RoleLandlord)
	req := &CreateAgreementRequest{
		PropertyID:      s.property.ID,
		TenantID:        s.tenant.ID,
		Title:           "Lease",
		Content:         models.JSONB{"clauses": []interface{}{"x"}},
		StartDate:       s.property.AvailableFrom.AddDate(0, 0, 1),
		EndDate:         s.property.AvailableFrom.AddDate(1, 0, 1),
		RentAmount:      1500,
		SecurityDeposit: 3000,
		PaymentDueDay:   1,
	}

	_, err := s.svc.Create(otherLandlord.ID, req)
	assert.ErrorIs(s.T(), err, ErrForbidden)

	require.NoError(s.T(), s.db.Model(s.property).
		Update("status", models.PropertyStatusRented).Error)
	_, err = s.svc.Create(s.landlord.ID, req)
	assert.ErrorIs(s.T(), err, ErrInvalidState)
}

func (s *AgreementServiceTestSuite) TestContentChangeCreatesVersionAndResetsSignatures() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)
	s.setStatus(agreement, models.AgreementStatusPendingSignature)

	// Tenant signs first.
	updated, err := s.svc.Update(s.tenant.ID, models.RoleTenant, agreement.ID, &AgreementPatch{
		TenantSigned: boolPtr(true),
	})
	require.NoError(s.T(), err)
	assert.True(s.T(), updated.TenantSigned)
	assert.NotNil(s.T(), updated.TenantSignedAt)

	// Landlord edits the content; both signatures must fall away.
	updated, err = s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
		Content: models.JSONB{"clauses": []interface{}{"no smoking", "pets allowed"}},
	})
	require.NoError(s.T(), err)
	assert.False(s.T(), updated.TenantSigned)
	assert.Nil(s.T(), updated.TenantSignedAt)
	assert.False(s.T(), updated.LandlordSigned)

	versions := s.versions(agreement)
	require.Len(s.T(), versions, 2)
	assert.Equal(s.T(), []int{1, 2}, []int{versions[0].VersionNumber, versions[1].VersionNumber})
	assert.Equal(s.T(), s.landlord.ID, versions[1].CreatedBy)
}

func (s *AgreementServiceTestSuite) TestIdenticalContentDoesNotVersion() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)

	_, err := s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
		Content: models.JSONB{
			"clauses": []interface{}{"no smoking", "no subletting"},
		},
	})
	require.NoError(s.T(), err)

	assert.Len(s.T(), s.versions(agreement), 1)
}

func (s *AgreementServiceTestSuite) TestCounterpartSignatureSilentlyStripped() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)
	s.setStatus(agreement, models.AgreementStatusPendingSignature)

	// The tenant tries to sign for both sides. No error, but only their own
	// signature lands.
	updated, err := s.svc.Update(s.tenant.ID, models.RoleTenant, agreement.ID, &AgreementPatch{
		TenantSigned:   boolPtr(true),
		LandlordSigned: boolPtr(true),
	})
	require.NoError(s.T(), err)
	assert.True(s.T(), updated.TenantSigned)
	assert.False(s.T(), updated.LandlordSigned)
	assert.Equal(s.T(), models.AgreementStatusPendingSignature, updated.Status)
}

func (s *AgreementServiceTestSuite) TestTenantContentEditOnlyInDraft() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)

	// Draft: allowed.
	_, err := s.svc.Update(s.tenant.ID, models.RoleTenant, agreement.ID, &AgreementPatch{
		Content: models.JSONB{"clauses": []interface{}{"tenant proposal"}},
	})
	require.NoError(s.T(), err)

	s.setStatus(agreement, models.AgreementStatusPendingReview)
	_, err = s.svc.Update(s.tenant.ID, models.RoleTenant, agreement.ID, &AgreementPatch{
		Content: models.JSONB{"clauses": []interface{}{"another proposal"}},
	})
	assert.ErrorIs(s.T(), err, ErrForbidden)

	// Landlord can still edit at this point.
	_, err = s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
		Content: models.JSONB{"clauses": []interface{}{"landlord revision"}},
	})
	assert.NoError(s.T(), err)
}

func (s *AgreementServiceTestSuite) TestTerminalStatusLocksContent() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)
	s.setStatus(agreement, models.AgreementStatusSigned)

	_, err := s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
		Content: models.JSONB{"clauses": []interface{}{"sneaky edit"}},
	})
	assert.ErrorIs(s.T(), err, ErrInvalidState)

	// A signed lease can still be terminated.
	terminated := models.AgreementStatusTerminated
	updated, err := s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
		Status: &terminated,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.AgreementStatusTerminated, updated.Status)
}

func (s *AgreementServiceTestSuite) TestSigningOutsidePendingSignatureRejected() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)

	_, err := s.svc.Update(s.tenant.ID, models.RoleTenant, agreement.ID, &AgreementPatch{
		TenantSigned: boolPtr(true),
	})
	assert.ErrorIs(s.T(), err, ErrInvalidState)
}

func (s *AgreementServiceTestSuite) TestBothSignaturesFlipStatusExactlyOnce() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)
	s.setStatus(agreement, models.AgreementStatusPendingSignature)

	_, err := s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
		LandlordSigned: boolPtr(true),
	})
	require.NoError(s.T(), err)

	updated, err := s.svc.Update(s.tenant.ID, models.RoleTenant, agreement.ID, &AgreementPatch{
		TenantSigned: boolPtr(true),
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.AgreementStatusSigned, updated.Status)

	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.tenant.ID, "Agreement Fully Signed"))
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.landlord.ID, "Agreement Fully Signed"))

	// A later unrelated patch must not re-announce the signing.
	title := "Renamed lease"
	_, err = s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
		Title: &title,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.tenant.ID, "Agreement Fully Signed"))
}

func (s *AgreementServiceTestSuite) TestConcurrentContentEditsKeepVersionsGapless() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)

	const writers = 4
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
				Content: models.JSONB{"clauses": []interface{}{fmt.Sprintf("revision-%d", i)}},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(s.T(), err)
	}

	// Every edit landed a distinct, consecutive version: no gaps, no
	// duplicates, regardless of interleaving.
	versions := s.versions(agreement)
	require.Len(s.T(), versions, writers+1)
	for i, version := range versions {
		assert.Equal(s.T(), i+1, version.VersionNumber)
	}
}

func (s *AgreementServiceTestSuite) TestRacingSignRequestsFlipStatusOnce() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)
	s.setStatus(agreement, models.AgreementStatusPendingSignature)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.svc.Update(s.tenant.ID, models.RoleTenant, agreement.ID, &AgreementPatch{
			TenantSigned: boolPtr(true),
		})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
			LandlordSigned: boolPtr(true),
		})
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(s.T(), err)
	}

	var stored models.RentalAgreement
	require.NoError(s.T(), s.db.First(&stored, "id = ?", agreement.ID).Error)
	assert.Equal(s.T(), models.AgreementStatusSigned, stored.Status)
	assert.True(s.T(), stored.TenantSigned)
	assert.True(s.T(), stored.LandlordSigned)

	// Whichever request completed the pair fired the announcement; the other
	// must not have fired a second one.
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.tenant.ID, "Agreement Fully Signed"))
	assert.Equal(s.T(), 1, countNotifications(s.T(), s.db, s.landlord.ID, "Agreement Fully Signed"))
}

func (s *AgreementServiceTestSuite) TestNonParticipantForbidden() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)
	stranger := seedProfile(s.T(), s.db, models.RoleTenant)

	_, err := s.svc.Get(stranger.ID, agreement.ID)
	assert.ErrorIs(s.T(), err, ErrForbidden)

	_, err = s.svc.Update(stranger.ID, models.RoleTenant, agreement.ID, &AgreementPatch{
		Content: models.JSONB{"clauses": []interface{}{"x"}},
	})
	assert.ErrorIs(s.T(), err, ErrForbidden)
}

func (s *AgreementServiceTestSuite) TestCreateFromNegotiationRequiresAccepted() {
	negSvc := NewNegotiationService(s.db, NewNotificationService(s.db))
	negotiation, err := negSvc.Create(s.tenant.ID, &CreateNegotiationRequest{
		PropertyID:   s.property.ID,
		ProposedRent: 1400,
	})
	require.NoError(s.T(), err)

	req := &CreateFromNegotiationRequest{
		Title:           "Lease",
		Content:         models.JSONB{"clauses": []interface{}{"x"}},
		StartDate:       s.property.AvailableFrom.AddDate(0, 0, 1),
		EndDate:         s.property.AvailableFrom.AddDate(1, 0, 1),
		SecurityDeposit: 3000,
		PaymentDueDay:   1,
	}

	_, err = s.svc.CreateFromNegotiation(s.landlord.ID, negotiation.ID, req)
	assert.ErrorIs(s.T(), err, ErrInvalidState)

	accepted := models.NegotiationStatusAccepted
	_, err = negSvc.Update(s.landlord.ID, negotiation.ID, &UpdateNegotiationRequest{Status: &accepted})
	require.NoError(s.T(), err)

	// Property, tenant and rent are never part of the request; the
	// negotiation supplies all three.
	agreement, err := s.svc.CreateFromNegotiation(s.landlord.ID, negotiation.ID, req)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), agreement.NegotiationID)
	assert.Equal(s.T(), negotiation.ID, *agreement.NegotiationID)
	assert.Equal(s.T(), s.property.ID, agreement.PropertyID)
	assert.Equal(s.T(), s.tenant.ID, agreement.TenantID)
	assert.Equal(s.T(), 1400.0, agreement.RentAmount)

	// An explicit rent in the request wins over the negotiated one.
	req.RentAmount = 1450
	overridden, err := s.svc.CreateFromNegotiation(s.landlord.ID, negotiation.ID, req)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1450.0, overridden.RentAmount)
}

func (s *AgreementServiceTestSuite) TestGetVersionReturnsSnapshot() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)

	_, err := s.svc.Update(s.landlord.ID, models.RoleLandlord, agreement.ID, &AgreementPatch{
		Content: models.JSONB{"clauses": []interface{}{"revised"}},
	})
	require.NoError(s.T(), err)

	v1, err := s.svc.GetVersion(s.tenant.ID, agreement.ID, 1)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, v1.VersionNumber)
	assert.NotNil(s.T(), v1.Content["clauses"])

	_, err = s.svc.GetVersion(s.tenant.ID, agreement.ID, 99)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *AgreementServiceTestSuite) TestCommentsOnlyDuringReview() {
	agreement := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)

	comment, err := s.svc.AddComment(s.tenant.ID, agreement.ID, &AddCommentRequest{
		SectionID:   "clauses.0",
		CommentText: "Can we drop this clause?",
	})
	require.NoError(s.T(), err)
	assert.False(s.T(), comment.Resolved)

	s.setStatus(agreement, models.AgreementStatusPendingSignature)
	_, err = s.svc.AddComment(s.tenant.ID, agreement.ID, &AddCommentRequest{
		SectionID:   "clauses.1",
		CommentText: "Too late for this one",
	})
	assert.ErrorIs(s.T(), err, ErrInvalidState)

	resolved, err := s.svc.SetCommentResolved(s.landlord.ID, agreement.ID, comment.ID, true)
	require.NoError(s.T(), err)
	assert.True(s.T(), resolved.Resolved)

	// A comment id from a different agreement must not resolve through this one.
	other := seedAgreement(s.T(), s.db, s.svc, s.landlord.ID, s.property, s.tenant.ID)
	_, err = s.svc.SetCommentResolved(s.landlord.ID, other.ID, comment.ID, false)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func TestAgreementServiceSuite(t *testing.T) {
	suite.Run(t, new(AgreementServiceTestSuite))
}
