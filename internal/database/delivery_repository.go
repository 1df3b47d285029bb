package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DeliveryRepository records which reminder fired in which minute slot
type DeliveryRepository struct {
	db *sqlx.DB
}

// NewDeliveryRepository creates a new repository instance
func NewDeliveryRepository(db *sqlx.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Claim marks the reminder as delivered for slot. It reports false when
// the slot was already claimed.
func (r *DeliveryRepository) Claim(ctx context.Context, reminderID int64, slot string, at time.Time) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO reminder_deliveries (reminder_id, slot, delivered_at)
		VALUES (?, ?, ?)
		ON CONFLICT (reminder_id, slot) DO NOTHING
	`)
	result, err := r.db.ExecContext(ctx, query, reminderID, slot, at.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to claim delivery: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// Release drops a claim so the slot can be retried
func (r *DeliveryRepository) Release(ctx context.Context, reminderID int64, slot string) error {
	query := r.db.Rebind("DELETE FROM reminder_deliveries WHERE reminder_id = ? AND slot = ?")
	if _, err := r.db.ExecContext(ctx, query, reminderID, slot); err != nil {
		return fmt.Errorf("failed to release delivery: %w", err)
	}
	return nil
}

// Prune deletes claims recorded before the cutoff
func (r *DeliveryRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := r.db.Rebind("DELETE FROM reminder_deliveries WHERE delivered_at < ?")
	result, err := r.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune deliveries: %w", err)
	}
	return result.RowsAffected()
}
