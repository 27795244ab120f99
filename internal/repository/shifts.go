package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shiftsync/backend/internal/domain"
)

const selectShifts = `
	SELECT
		s.id,
		s.title,
		s.start_time,
		s.end_time,
		s.created_at,
		s.version,
		sm.username,
		sm.status
	FROM shifts s
	LEFT JOIN shift_members sm ON s.id = sm.shift_id
`

func scanShifts(rows *sql.Rows) ([]*domain.Shift, error) {
	shifts := make([]*domain.Shift, 0)
	shiftsMap := make(map[string]*domain.Shift)

	for rows.Next() {
		var row struct {
			ID        string
			Title     string
			StartTime time.Time
			EndTime   time.Time
			CreatedAt time.Time
			Version   int32

			Username sql.NullString
			Status   sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Title,
			&row.StartTime,
			&row.EndTime,
			&row.CreatedAt,
			&row.Version,
			&row.Username,
			&row.Status,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		shift, exists := shiftsMap[row.ID]
		if !exists {
			shift = &domain.Shift{
				ID:        row.ID,
				Title:     row.Title,
				StartTime: row.StartTime,
				EndTime:   row.EndTime,
				CreatedAt: row.CreatedAt,
				Version:   row.Version,
			}
			shift.Normalize()
			shiftsMap[row.ID] = shift
			shifts = append(shifts, shift)
		}

		// a shift without members comes back as a single row of NULLs
		if !row.Username.Valid {
			continue
		}

		shift.SetMembership(row.Username.String, domain.Membership(row.Status.String))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) ListShifts(ctx context.Context) ([]*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, selectShifts+` ORDER BY s.start_time, s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanShifts(rows)
}

func (r *Repository) GetShift(ctx context.Context, id string) (*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, selectShifts+` WHERE s.id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts, err := scanShifts(rows)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, domain.ErrNotFound
	}

	return shifts[0], nil
}

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO shifts (id, title, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version
	`

	params := []any{shift.ID, shift.Title, shift.StartTime, shift.EndTime, shift.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&shift.Version); err != nil {
		return err
	}

	return nil
}

// UpdateShift rewrites the shift row and its member rows in one transaction.
// The write only happens if nobody else bumped the version in between.
func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE shifts
		SET
			title = $1,
			start_time = $2,
			end_time = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	params := []any{shift.Title, shift.StartTime, shift.EndTime, shift.ID, shift.Version}
	var version int32
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.New("shift was modified concurrently, please retry")
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_members WHERE shift_id = $1`, shift.ID); err != nil {
		return err
	}

	members := []struct {
		status    domain.Membership
		usernames []string
	}{
		{domain.MembershipAssigned, shift.AssignedEmployees},
		{domain.MembershipPending, shift.PendingEmployees},
		{domain.MembershipDropRequested, shift.DropRequests},
	}
	for _, m := range members {
		for _, username := range m.usernames {
			query := `
				INSERT INTO shift_members (shift_id, username, status)
				VALUES ($1, $2, $3)
			`
			if _, err := tx.ExecContext(ctx, query, shift.ID, username, m.status); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	shift.Version = version
	return nil
}

// DeleteShift removes the shift; member rows go with it through ON DELETE CASCADE.
func (r *Repository) DeleteShift(ctx context.Context, id string) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *Repository) FindOverlappingAssignment(ctx context.Context, username string, start, end time.Time, excludeID string) (*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT s.id, s.title, s.start_time, s.end_time
		FROM shifts s
		JOIN shift_members sm ON s.id = sm.shift_id
		WHERE sm.username = $1
			AND sm.status IN ('assigned', 'drop_requested')
			AND s.start_time < $2
			AND s.end_time > $3
			AND s.id <> $4
		LIMIT 1
	`

	shift := &domain.Shift{}
	dst := []any{&shift.ID, &shift.Title, &shift.StartTime, &shift.EndTime}
	if err := r.dbpool.QueryRowContext(ctx, query, username, end, start, excludeID).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return shift, nil
}
