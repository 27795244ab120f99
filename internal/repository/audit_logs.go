package repository

import (
	"context"

	"github.com/shiftsync/backend/internal/domain"
)

func (r *Repository) CreateAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (action, username, target_shift_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{entry.Action, entry.User, entry.TargetShiftID, entry.Timestamp}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&entry.ID)
}

func (r *Repository) GetAuditLogs(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, action, username, target_shift_id, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		entry := &domain.AuditLog{}
		dst := []any{&entry.ID, &entry.Action, &entry.User, &entry.TargetShiftID, &entry.Timestamp}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}
