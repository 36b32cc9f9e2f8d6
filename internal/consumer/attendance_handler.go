package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/checkin/internal/events"
)

// AttendanceHandler folds check-in events into the gym_attendance read model,
// a per-gym daily tally used by reporting.
type AttendanceHandler struct {
	pool *pgxpool.Pool
}

// NewAttendanceHandler constructs a handler backed by the provided pool.
func NewAttendanceHandler(pool *pgxpool.Pool) *AttendanceHandler {
	return &AttendanceHandler{pool: pool}
}

// Handle updates the attendance tally for the event's gym and day. Events with
// types the handler does not track are ignored.
func (h *AttendanceHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case "checkin.created":
		var event events.CheckInCreated
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("decode checkin.created: %w", err)
		}
		return h.recordCreated(ctx, event)
	case "checkin.validated":
		var event events.CheckInValidated
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("decode checkin.validated: %w", err)
		}
		return h.recordValidated(ctx, event)
	default:
		return nil
	}
}

func (h *AttendanceHandler) recordCreated(ctx context.Context, event events.CheckInCreated) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO gym_attendance (gym_id, day, check_ins, validated)
         VALUES ($1, ($2 AT TIME ZONE 'UTC')::date, 1, 0)
         ON CONFLICT (gym_id, day) DO UPDATE SET check_ins = gym_attendance.check_ins + 1`,
		event.GymID, event.CreatedAt,
	)
	return err
}

func (h *AttendanceHandler) recordValidated(ctx context.Context, event events.CheckInValidated) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO gym_attendance (gym_id, day, check_ins, validated)
         VALUES ($1, ($2 AT TIME ZONE 'UTC')::date, 0, 1)
         ON CONFLICT (gym_id, day) DO UPDATE SET validated = gym_attendance.validated + 1`,
		event.GymID, event.ValidatedAt,
	)
	return err
}
