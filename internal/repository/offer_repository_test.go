package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferRepository_ReplacePending(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "prior pending offer is cancelled in the same transaction",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `offers` SET `status`=.*WHERE listing_id = \\? AND buyer_id = \\? AND status = \\?").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO `offers`").
					WillReturnResult(sqlmock.NewResult(12, 1))
				mock.ExpectExec("INSERT INTO `messages`").
					WillReturnResult(sqlmock.NewResult(30, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "failed announcement rolls back the offer",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `offers`").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO `offers`").
					WillReturnResult(sqlmock.NewResult(12, 1))
				mock.ExpectExec("INSERT INTO `messages`").
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
		{
			name: "failed insert rolls back the cancellation",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `offers`").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO `offers`").
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			offer := &model.Offer{ListingID: 1, ConversationID: 2, BuyerID: 3, Amount: decimal.NewFromInt(80)}
			note := &model.Message{ConversationID: 2, SenderID: 3, Content: "Offer: $80.00"}
			err := NewOfferRepository(db).ReplacePending(context.Background(), offer, note)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uint64(12), offer.ID)
				assert.Equal(t, model.OfferStatusPending, offer.Status)
				assert.Equal(t, uint64(30), note.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOfferRepository_Respond(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(sqlmock.Sqlmock)
		want        bool
		expectError bool
	}{
		{
			name: "pending offer owned by seller",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `offers` SET `status`=.*WHERE.*id = \\? AND status = \\?.*EXISTS \\(SELECT 1 FROM listings l").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO `messages`").
					WillReturnResult(sqlmock.NewResult(40, 1))
				mock.ExpectCommit()
			},
			want: true,
		},
		{
			name: "already terminal or not the seller",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `offers`").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			want: false,
		},
		{
			name: "failed announcement rolls back the status change",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `offers`").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO `messages`").
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			note := &model.Message{ConversationID: 2, SenderID: 4, Content: "Offer declined."}
			ok, err := NewOfferRepository(db).Respond(context.Background(), 9, 4, model.OfferStatusRejected, note)
			if tt.expectError {
				assert.Error(t, err)
				assert.False(t, ok)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, ok)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOfferRepository_CancelByBuyer(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `offers` SET `status`=.*WHERE.*id = \\? AND buyer_id = \\? AND status = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `messages`").
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectCommit()

	note := &model.Message{ConversationID: 2, SenderID: 3, Content: "Offer withdrawn."}
	ok, err := NewOfferRepository(db).CancelByBuyer(context.Background(), 9, 3, note)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(41), note.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepository_AcceptedPaymentInfo(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT u.payment_info FROM offers o JOIN listings l ON l.id = o.listing_id JOIN users u ON u.id = l.seller_id").
		WillReturnRows(sqlmock.NewRows([]string{"payment_info"}).AddRow("Venmo @sam"))
	mock.ExpectQuery("SELECT u.payment_info FROM offers o").
		WillReturnRows(sqlmock.NewRows([]string{"payment_info"}))

	repo := NewOfferRepository(db)
	info, found, err := repo.AcceptedPaymentInfo(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Venmo @sam", info)

	_, found, err = repo.AcceptedPaymentInfo(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
