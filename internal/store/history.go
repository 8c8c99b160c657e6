package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RecordView upserts the (userID, phone) history row with the current time
// and trims the user's history to the newest maxEntries rows.
func (s *Store) RecordView(ctx context.Context, userID, phoneID int64, maxEntries int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var model, brand string
		err := tx.QueryRowContext(ctx, `SELECT phone_model, brand_name FROM phone_library WHERE id = ?`, phoneID).
			Scan(&model, &brand)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to look up phone: %w", err)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO user_history (user_id, phone_id, view_time, phone_model, phone_brand)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, phone_id) DO UPDATE SET view_time = excluded.view_time,
				phone_model = excluded.phone_model, phone_brand = excluded.phone_brand`,
			userID, phoneID, toMillis(s.now()), model, brand)
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to record view: %w", err)
		}

		if maxEntries > 0 {
			_, err = tx.ExecContext(ctx, `DELETE FROM user_history WHERE user_id = ? AND id NOT IN (
				SELECT id FROM user_history WHERE user_id = ? ORDER BY view_time DESC, id DESC LIMIT ?)`,
				userID, userID, maxEntries)
			if err != nil {
				return fmt.Errorf("failed to trim history: %w", err)
			}
		}
		return nil
	})
}

// RecentHistory returns up to limit entries for userID, newest first.
func (s *Store) RecentHistory(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, phone_id, view_time, phone_model, phone_brand
		FROM user_history WHERE user_id = ? ORDER BY view_time DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		var viewed int64
		if err := rows.Scan(&h.ID, &h.UserID, &h.PhoneID, &viewed, &h.PhoneModel, &h.PhoneBrand); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		h.ViewedAt = fromMillis(viewed)
		out = append(out, h)
	}
	return out, rows.Err()
}

// CountHistory returns how many history rows userID has.
func (s *Store) CountHistory(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_history WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// DeleteHistory removes one phone from userID's history.
func (s *Store) DeleteHistory(ctx context.Context, userID, phoneID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_history WHERE user_id = ? AND phone_id = ?`, userID, phoneID); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// ClearHistory removes all of userID's history.
func (s *Store) ClearHistory(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
