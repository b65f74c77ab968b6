package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordInsertsJoinedTargets(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_log")).
		WithArgs(int64(9), ActionToggleStatus, "1,2,3", "미수신 전환").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(77), now))

	repo := NewAuditRepository(db)
	entry := &AuditEntry{ActorID: 9, Action: ActionToggleStatus, TargetIDs: []int64{1, 2, 3}, Reason: "미수신 전환"}
	require.NoError(t, repo.Record(context.Background(), entry))

	assert.Equal(t, int64(77), entry.ID)
	assert.Equal(t, now, entry.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentSplitsTargets(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_log")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "action", "target_ids", "reason", "created_at"}).
			AddRow(int64(2), int64(9), ActionSMSBroadcast, "4,5", "공지 발송", now).
			AddRow(int64(1), int64(9), ActionToggleStatus, "", "사유", now))

	repo := NewAuditRepository(db)
	entries, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, []int64{4, 5}, entries[0].TargetIDs)
	assert.Nil(t, entries[1].TargetIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
