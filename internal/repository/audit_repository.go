package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Audit actions recorded locally. The upstream API keeps its own history;
// this log exists so the console can show who toggled what and why without a
// network roundtrip.
const (
	ActionToggleStatus = "toggle_status"
	ActionSMSBroadcast = "sms_broadcast"
	ActionTagDeleted   = "tag_deleted"
)

type AuditEntry struct {
	ID        int64
	ActorID   int64
	Action    string
	TargetIDs []int64
	Reason    string
	CreatedAt time.Time
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*AuditEntry, error)
}

type pgAuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) AuditRepository {
	return &pgAuditRepository{db: db}
}

func (r *pgAuditRepository) Record(ctx context.Context, entry *AuditEntry) error {
	query := `
		INSERT INTO audit_log (actor_id, action, target_ids, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		entry.ActorID, entry.Action, joinIDs(entry.TargetIDs), entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pgAuditRepository) ListRecent(ctx context.Context, limit int) ([]*AuditEntry, error) {
	query := `
		SELECT id, actor_id, action, target_ids, reason, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		entry := &AuditEntry{}
		var targets string
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &targets, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.TargetIDs = splitIDs(targets)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
