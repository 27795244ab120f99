package repository

import (
	"context"

	"github.com/shiftsync/backend/internal/domain"
)

// GetEmployeeHours sums assigned shifts and hours per employee, busiest first.
func (r *Repository) GetEmployeeHours(ctx context.Context) ([]domain.EmployeeHours, error) {
	query := `
		SELECT
			sm.username,
			COUNT(*),
			COALESCE(SUM(EXTRACT(EPOCH FROM (s.end_time - s.start_time)) / 3600), 0)::float8
		FROM shift_members sm
		JOIN shifts s ON s.id = sm.shift_id
		WHERE sm.status = 'assigned'
		GROUP BY sm.username
		ORDER BY 3 DESC, sm.username
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]domain.EmployeeHours, 0)
	for rows.Next() {
		var h domain.EmployeeHours
		if err := rows.Scan(&h.Employee, &h.TotalShiftsClaimed, &h.TotalHours); err != nil {
			return nil, err
		}
		stats = append(stats, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
