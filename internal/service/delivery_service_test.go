package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
)

func TestRecordReceipt(t *testing.T) {
	logRepo := newMockLogRepo()
	svc := NewDeliveryService(logRepo)

	campaignID, customerID := uuid.New(), uuid.New()
	require.NoError(t, svc.RecordReceipt(campaignID, customerID, model.StatusFailed, "Invalid email address"))

	require.Len(t, logRepo.upserts, 1)
	assert.Equal(t, model.StatusFailed, logRepo.upserts[0].Status)
	assert.Equal(t, "Invalid email address", logRepo.upserts[0].Error)
}

func TestRecordReceiptReplayIsIdempotent(t *testing.T) {
	logRepo := newMockLogRepo()
	svc := NewDeliveryService(logRepo)

	campaignID, customerID := uuid.New(), uuid.New()
	require.NoError(t, svc.RecordReceipt(campaignID, customerID, model.StatusSent, ""))
	require.NoError(t, svc.RecordReceipt(campaignID, customerID, model.StatusSent, ""))

	// Both writes target the same (campaign, customer) key.
	require.Len(t, logRepo.upserts, 2)
	assert.Equal(t, logRepo.upserts[0], logRepo.upserts[1])
}

func TestRecordReceiptRejectsUnknownStatus(t *testing.T) {
	svc := NewDeliveryService(newMockLogRepo())

	err := svc.RecordReceipt(uuid.New(), uuid.New(), "BOUNCED", "")
	require.Error(t, err)

	var ve *apperrors.ValidationError
	assert.ErrorAs(t, err, &ve)
}
