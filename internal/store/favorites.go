package store

import (
	"context"
	"fmt"

	"techhourse/internal/catalog"
)

// AddFavorite marks phoneID as a favorite of userID. Adding an existing
// favorite is a no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, phoneID int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_favorites (user_id, phone_id, create_time)
		VALUES (?, ?, ?) ON CONFLICT(user_id, phone_id) DO NOTHING`, userID, phoneID, toMillis(s.now()))
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a favorite mark. Removing an absent mark is a no-op.
func (s *Store) RemoveFavorite(ctx context.Context, userID, phoneID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_favorites WHERE user_id = ? AND phone_id = ?`, userID, phoneID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether phoneID is favorited by userID.
func (s *Store) IsFavorite(ctx context.Context, userID, phoneID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_favorites WHERE user_id = ? AND phone_id = ?`,
		userID, phoneID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return n > 0, nil
}

// ListFavorites returns the favorited phones of userID, newest first.
func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]catalog.Phone, error) {
	return s.queryPhones(ctx, `SELECT p.id, p.phone_model, p.brand_name, p.market_name, p.memory_config,
		p.front_camera, p.rear_camera, p.resolution, p.screen_size, p.selling_point, p.price, p.image_key
		FROM user_favorites f JOIN phone_library p ON p.id = f.phone_id
		WHERE f.user_id = ? ORDER BY f.create_time DESC, f.id DESC`, userID)
}

// CountFavorites returns how many phones userID has favorited.
func (s *Store) CountFavorites(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_favorites WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return n, nil
}

// ClearFavorites removes every favorite of userID.
func (s *Store) ClearFavorites(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_favorites WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}
