package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/checkin/internal/domain"
	"example.com/checkin/internal/events"
)

// CheckInRepository persists check-ins in Postgres. A unique index on
// (user_id, UTC day of created_at) closes the read-then-write race in the
// workflow's daily-limit check: the loser of a concurrent same-day pair gets
// domain.ErrDailyCheckInLimit from Create.
type CheckInRepository struct {
	pool *pgxpool.Pool
}

// NewCheckInRepository constructs a CheckInRepository.
func NewCheckInRepository(pool *pgxpool.Pool) *CheckInRepository {
	return &CheckInRepository{pool: pool}
}

const checkInColumns = `checkin_id, user_id, gym_id, created_at, validated_at`

// Create persists the check-in and records a checkin.created outbox event in
// the same transaction.
func (r *CheckInRepository) Create(ctx context.Context, checkIn domain.CheckIn) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO check_ins (checkin_id, user_id, gym_id, created_at, validated_at)
        VALUES ($1,$2,$3,$4,$5)`

	_, err = tx.Exec(ctx, stmt,
		checkIn.ID,
		checkIn.UserID,
		checkIn.GymID,
		checkIn.CreatedAt,
		checkIn.ValidatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_check_ins_user_day" {
			err = domain.ErrDailyCheckInLimit
		}
		return err
	}

	if err = insertOutbox(ctx, tx, "checkin", checkIn.ID, "checkin.created", checkIn.UserID, events.CheckInCreated{
		CheckInID: checkIn.ID,
		UserID:    checkIn.UserID,
		GymID:     checkIn.GymID,
		CreatedAt: checkIn.CreatedAt,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// Save updates the validation timestamp and records a checkin.validated
// outbox event when one was set.
func (r *CheckInRepository) Save(ctx context.Context, checkIn domain.CheckIn) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE check_ins SET validated_at=$2 WHERE checkin_id=$1`,
		checkIn.ID, checkIn.ValidatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrCheckInNotFound
		return err
	}

	if checkIn.ValidatedAt != nil {
		if err = insertOutbox(ctx, tx, "checkin", checkIn.ID, "checkin.validated", checkIn.UserID, events.CheckInValidated{
			CheckInID:   checkIn.ID,
			UserID:      checkIn.UserID,
			GymID:       checkIn.GymID,
			ValidatedAt: *checkIn.ValidatedAt,
		}); err != nil {
			return err
		}
	}

	err = tx.Commit(ctx)
	return err
}

// FindByID returns the check-in or nil when no row matches.
func (r *CheckInRepository) FindByID(ctx context.Context, id string) (*domain.CheckIn, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+checkInColumns+` FROM check_ins WHERE checkin_id=$1`, id)

	var checkIn domain.CheckIn
	if err := row.Scan(&checkIn.ID, &checkIn.UserID, &checkIn.GymID, &checkIn.CreatedAt, &checkIn.ValidatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &checkIn, nil
}

// FindByUserIDOnDate returns the user's check-in on the same UTC calendar day
// as date, or nil when there is none.
func (r *CheckInRepository) FindByUserIDOnDate(ctx context.Context, userID string, date time.Time) (*domain.CheckIn, error) {
	day := date.UTC()
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	const stmt = `SELECT ` + checkInColumns + ` FROM check_ins
        WHERE user_id=$1 AND created_at >= $2 AND created_at < $3`

	row := r.pool.QueryRow(ctx, stmt, userID, startOfDay, endOfDay)

	var checkIn domain.CheckIn
	if err := row.Scan(&checkIn.ID, &checkIn.UserID, &checkIn.GymID, &checkIn.CreatedAt, &checkIn.ValidatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &checkIn, nil
}

// ListByUser returns the user's check-ins newest first, one page at a time.
func (r *CheckInRepository) ListByUser(ctx context.Context, userID string, page int) ([]domain.CheckIn, error) {
	const stmt = `SELECT ` + checkInColumns + ` FROM check_ins
        WHERE user_id=$1
        ORDER BY created_at DESC, checkin_id DESC
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, stmt, userID, domain.PageSize, (page-1)*domain.PageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checkIns := make([]domain.CheckIn, 0)
	for rows.Next() {
		var checkIn domain.CheckIn
		if err := rows.Scan(&checkIn.ID, &checkIn.UserID, &checkIn.GymID, &checkIn.CreatedAt, &checkIn.ValidatedAt); err != nil {
			return nil, err
		}
		checkIns = append(checkIns, checkIn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return checkIns, nil
}

// CountByUser returns the user's lifetime check-in total.
func (r *CheckInRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM check_ins WHERE user_id=$1`, userID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
