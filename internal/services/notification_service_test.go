// internal/services/notification_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaselink/leaselink-backend/internal/models"
)

func TestNotificationInbox(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	owner := seedProfile(t, db, models.RoleTenant)
	other := seedProfile(t, db, models.RoleLandlord)

	svc.Notify(owner.ID, "First", "first message", "/x")
	svc.Notify(owner.ID, "Second", "second message", "/y")

	notifications, unread, err := svc.List(owner.ID)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
	assert.Equal(t, int64(2), unread)

	// Another user cannot flip someone else's notification.
	err = svc.MarkRead(other.ID, notifications[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.MarkRead(owner.ID, notifications[0].ID))
	_, unread, err = svc.List(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, svc.MarkAllRead(owner.ID))
	_, unread, err = svc.List(owner.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
