package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var messageColumns = []string{"id", "conversation_id", "sender_id", "content", "created_at"}

func TestMessageRepository_ListAfter(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ref := &model.Message{ID: 4, ConversationID: 2, CreatedAt: at}

	mock.ExpectQuery("SELECT \\* FROM `messages` WHERE conversation_id = \\? AND \\(+created_at > \\? OR \\(created_at = \\? AND id > \\?\\)+ ORDER BY created_at ASC, id ASC").
		WithArgs(2, at, at, 4).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(5, 2, 7, "same instant", at).
			AddRow(6, 2, 8, "later", at.Add(time.Second)))

	msgs, err := NewMessageRepository(db).ListAfter(context.Background(), 2, ref)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, uint64(5), msgs[0].ID)
	assert.Equal(t, uint64(6), msgs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_UpsertRead(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO `message_reads`.*ON DUPLICATE KEY UPDATE `last_read_at`=VALUES\\(`last_read_at`\\)").
		WithArgs(3, 2, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewMessageRepository(db).UpsertRead(context.Background(), 3, 2, at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_CountUnread(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(sqlmock.Sqlmock)
		want        int64
		expectError bool
	}{
		{
			name: "counts messages from others after the read marker",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM messages m.*m.sender_id <> \\? AND m.created_at > COALESCE\\(r.last_read_at").
					WithArgs(5, 5, 5, 5).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
			},
			want: 3,
		},
		{
			name: "query error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT COUNT").WillReturnError(assert.AnError)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			got, err := NewMessageRepository(db).CountUnread(context.Background(), 5)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
