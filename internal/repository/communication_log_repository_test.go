package repository

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
)

func TestStatsByCampaign(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	campaignID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM communication_logs")).
		WithArgs(campaignID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(model.StatusSent, 9).
			AddRow(model.StatusFailed, 1))

	repo := &CommunicationLogRepository{DB: db}
	stats, err := repo.StatsByCampaign(campaignID)
	require.NoError(t, err)

	assert.Equal(t, model.DeliveryStats{Sent: 9, Failed: 1}, stats)
}

func TestStatsByCampaignNoLogs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	campaignID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM communication_logs")).
		WithArgs(campaignID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

	repo := &CommunicationLogRepository{DB: db}
	stats, err := repo.StatsByCampaign(campaignID)
	require.NoError(t, err)

	assert.Zero(t, stats.Sent)
	assert.Zero(t, stats.Failed)
}

func TestUpsertReceipt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	campaignID, customerID := uuid.New(), uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (campaign_id, customer_id)")).
		WithArgs(sqlmock.AnyArg(), campaignID, customerID, model.StatusFailed, "Invalid email address", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &CommunicationLogRepository{DB: db}
	err = repo.UpsertReceipt(campaignID, customerID, model.StatusFailed, "Invalid email address")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertReceiptStoreDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (campaign_id, customer_id)")).
		WillReturnError(sql.ErrConnDone)

	repo := &CommunicationLogRepository{DB: db}
	err = repo.UpsertReceipt(uuid.New(), uuid.New(), model.StatusSent, "")
	require.Error(t, err)

	var se *apperrors.StorageUnavailableError
	assert.ErrorAs(t, err, &se)
}

func TestLogCreateDefaultsToPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO communication_logs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &CommunicationLogRepository{DB: db}
	l := &model.CommunicationLog{CampaignID: uuid.New(), CustomerID: uuid.New(), CustomerEmail: "ada@example.com", Message: "hi"}
	require.NoError(t, repo.Create(l))

	assert.Equal(t, model.StatusPending, l.Status)
	assert.NotEqual(t, uuid.Nil, l.ID)
}
