package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"techhourse/internal/behavior"
)

const behaviorColumns = `id, screen_usage_time, battery_capacity, memory_usage, phone_usage_period,
	gallery_storage_ratio, daily_game_time, night_photography, record_time, signals_known,
	focus, battery_percent, memory_ratio, usage_period, gallery_percent, game_hours, night_photo_frequency`

func scanBehavior(row rowScanner) (*behavior.Snapshot, error) {
	var (
		s        behavior.Snapshot
		recorded int64
		known    bool
		focus    string
		battery  sql.NullInt64
		memory   sql.NullFloat64
		period   string
		gallery  sql.NullFloat64
		game     sql.NullFloat64
		night    string
	)
	err := row.Scan(&s.ID, &s.ScreenUsage, &s.Battery, &s.Memory, &s.UsagePeriod,
		&s.GalleryRatio, &s.GameTime, &s.NightPhoto, &recorded, &known,
		&focus, &battery, &memory, &period, &gallery, &game, &night)
	if err != nil {
		return nil, err
	}
	s.RecordedAt = fromMillis(recorded)
	if known {
		sig := behavior.Signals{
			Focus:      behavior.Focus(focus),
			Period:     behavior.Period(period),
			NightPhoto: behavior.Frequency(night),
		}
		if battery.Valid {
			v := int(battery.Int64)
			sig.BatteryPercent = &v
		}
		sig.MemoryRatio = nullFloat(memory)
		sig.GalleryPercent = nullFloat(gallery)
		sig.GameHours = nullFloat(game)
		s.Signals = &sig
	}
	return &s, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// SaveBehavior appends a snapshot and sets its ID. Snapshots are never
// updated once written.
func (s *Store) SaveBehavior(ctx context.Context, snap *behavior.Snapshot) error {
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = s.now()
	}
	var (
		known                 bool
		focus, period, night  string
		battery               sql.NullInt64
		memory, gallery, game sql.NullFloat64
	)
	if sig := snap.Signals; sig != nil {
		known = true
		focus, period, night = string(sig.Focus), string(sig.Period), string(sig.NightPhoto)
		if sig.BatteryPercent != nil {
			battery = sql.NullInt64{Int64: int64(*sig.BatteryPercent), Valid: true}
		}
		if sig.MemoryRatio != nil {
			memory = sql.NullFloat64{Float64: *sig.MemoryRatio, Valid: true}
		}
		if sig.GalleryPercent != nil {
			gallery = sql.NullFloat64{Float64: *sig.GalleryPercent, Valid: true}
		}
		if sig.GameHours != nil {
			game = sql.NullFloat64{Float64: *sig.GameHours, Valid: true}
		}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO user_behavior
		(screen_usage_time, battery_capacity, memory_usage, phone_usage_period, gallery_storage_ratio,
		 daily_game_time, night_photography, record_time, signals_known, focus, battery_percent,
		 memory_ratio, usage_period, gallery_percent, game_hours, night_photo_frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ScreenUsage, snap.Battery, snap.Memory, snap.UsagePeriod, snap.GalleryRatio,
		snap.GameTime, snap.NightPhoto, toMillis(snap.RecordedAt), known, focus, battery,
		memory, period, gallery, game, night)
	if err != nil {
		return fmt.Errorf("failed to save behavior: %w", err)
	}
	snap.ID, err = res.LastInsertId()
	return err
}

// LatestBehavior returns the newest snapshot, or nil when none exist.
func (s *Store) LatestBehavior(ctx context.Context) (*behavior.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+behaviorColumns+` FROM user_behavior
		ORDER BY record_time DESC, id DESC LIMIT 1`)
	snap, err := scanBehavior(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest behavior: %w", err)
	}
	return snap, nil
}

// BehaviorsBetween returns snapshots recorded in [from, to], oldest first.
func (s *Store) BehaviorsBetween(ctx context.Context, from, to time.Time) ([]behavior.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+behaviorColumns+` FROM user_behavior
		WHERE record_time BETWEEN ? AND ? ORDER BY record_time, id`, toMillis(from), toMillis(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query behaviors: %w", err)
	}
	defer rows.Close()

	var out []behavior.Snapshot
	for rows.Next() {
		snap, err := scanBehavior(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan behavior: %w", err)
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

// CountBehaviors returns how many snapshots are stored.
func (s *Store) CountBehaviors(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_behavior`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count behaviors: %w", err)
	}
	return n, nil
}
