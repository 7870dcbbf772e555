package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ReminderEnqueuer schedules a reminder with an external job queue and returns
// the queue's job ID. The dispatcher passes a closure over its
// external.JobQueue, which returns an empty ID when no queue is wired.
type ReminderEnqueuer func(ctx context.Context, customerID int, at time.Time, notes string) (externalJobID string, err error)

// ScheduleReminder inserts a SCHEDULED reminder row, then asks enqueue to hand
// it to the external job queue. If enqueue fails, the reminder is kept but
// marked FAILED rather than silently lost, so the shopkeeper can retry.
func (s *Store) ScheduleReminder(ctx context.Context, customerID int, at time.Time, notes string, enqueue ReminderEnqueuer) (*Reminder, error) {
	var reminderID int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO reminders (customer_id, scheduled_time, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, customerID, at, ReminderScheduled, notes).Scan(&reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}

	reminder := &Reminder{ID: reminderID, CustomerID: customerID, ScheduledTime: at, Status: ReminderScheduled, Notes: notes}

	if enqueue == nil {
		return reminder, nil
	}

	jobID, err := enqueue(ctx, customerID, at, notes)
	if err != nil {
		if _, updErr := s.pool.Exec(ctx, `UPDATE reminders SET status = $2 WHERE id = $1`, reminderID, ReminderFailed); updErr != nil {
			return nil, fmt.Errorf("failed to enqueue reminder (%v) and failed to mark it FAILED: %w", err, updErr)
		}
		reminder.Status = ReminderFailed
		return reminder, fmt.Errorf("failed to enqueue reminder: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `UPDATE reminders SET external_job_id = $2 WHERE id = $1`, reminderID, jobID); err != nil {
		return nil, fmt.Errorf("failed to record reminder job id: %w", err)
	}
	reminder.ExternalJobID = jobID
	return reminder, nil
}

// CancelReminder marks a SCHEDULED reminder CANCELLED and returns its external
// job id so the caller can remove it from the job queue.
func (s *Store) CancelReminder(ctx context.Context, reminderID int) (externalJobID string, err error) {
	var status ReminderStatus
	err = s.pool.QueryRow(ctx, `
		UPDATE reminders SET status = $2 WHERE id = $1 AND status = $3
		RETURNING external_job_id
	`, reminderID, ReminderCancelled, ReminderScheduled).Scan(&externalJobID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrReminderNotFound
		}
		return "", fmt.Errorf("failed to cancel reminder: %w", err)
	}
	_ = status
	return externalJobID, nil
}

// ModifyReminder reschedules a SCHEDULED reminder to a new time.
func (s *Store) ModifyReminder(ctx context.Context, reminderID int, newTime time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE reminders SET scheduled_time = $2 WHERE id = $1 AND status = $3
	`, reminderID, newTime, ReminderScheduled)
	if err != nil {
		return fmt.Errorf("failed to modify reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// ListReminders returns a customer's reminders, soonest first.
func (s *Store) ListReminders(ctx context.Context, customerID int) ([]Reminder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, scheduled_time, status, COALESCE(notes, ''), COALESCE(external_job_id, '')
		FROM reminders WHERE customer_id = $1 ORDER BY scheduled_time ASC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.ScheduledTime, &r.Status, &r.Notes, &r.ExternalJobID); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
