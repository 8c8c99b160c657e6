package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"techhourse/internal/catalog"
)

const phoneColumns = `id, phone_model, brand_name, market_name, memory_config, front_camera,
	rear_camera, resolution, screen_size, selling_point, price, image_key`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPhone(row rowScanner) (catalog.Phone, error) {
	var p catalog.Phone
	err := row.Scan(&p.ID, &p.Model, &p.Brand, &p.MarketName, &p.Memory, &p.FrontCamera,
		&p.RearCamera, &p.Resolution, &p.ScreenSize, &p.SellingPoint, &p.Price, &p.ImageKey)
	return p, err
}

func (s *Store) queryPhones(ctx context.Context, query string, args ...interface{}) ([]catalog.Phone, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query phones: %w", err)
	}
	defer rows.Close()

	var phones []catalog.Phone
	for rows.Next() {
		p, err := scanPhone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phone: %w", err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating phones: %w", err)
	}
	return phones, nil
}

// ListPhones returns the whole catalog in import order.
func (s *Store) ListPhones(ctx context.Context) ([]catalog.Phone, error) {
	return s.queryPhones(ctx, `SELECT `+phoneColumns+` FROM phone_library ORDER BY position, id`)
}

// GetPhone returns one phone or ErrNotFound.
func (s *Store) GetPhone(ctx context.Context, id int64) (*catalog.Phone, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+phoneColumns+` FROM phone_library WHERE id = ?`, id)
	p, err := scanPhone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phone: %w", err)
	}
	return &p, nil
}

// GetPhones returns the phones with the given ids in the order requested.
// Any missing id yields ErrNotFound.
func (s *Store) GetPhones(ctx context.Context, ids []int64) ([]catalog.Phone, error) {
	phones := make([]catalog.Phone, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetPhone(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("phone %d: %w", id, err)
		}
		phones = append(phones, *p)
	}
	return phones, nil
}

// PhonesByBrand returns phones whose brand matches exactly.
func (s *Store) PhonesByBrand(ctx context.Context, brand string) ([]catalog.Phone, error) {
	return s.queryPhones(ctx, `SELECT `+phoneColumns+` FROM phone_library WHERE brand_name = ? ORDER BY position, id`, brand)
}

// SearchPhones matches the query against model and market names.
func (s *Store) SearchPhones(ctx context.Context, query string) ([]catalog.Phone, error) {
	like := "%" + escapeLike(query) + "%"
	return s.queryPhones(ctx, `SELECT `+phoneColumns+` FROM phone_library
		WHERE phone_model LIKE ? ESCAPE '\' OR market_name LIKE ? ESCAPE '\'
		ORDER BY position, id`, like, like)
}

// Brands lists distinct brand names.
func (s *Store) Brands(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT brand_name FROM phone_library WHERE brand_name != '' ORDER BY brand_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// CountPhones returns the catalog size.
func (s *Store) CountPhones(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM phone_library`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count phones: %w", err)
	}
	return n, nil
}

// InsertPhones appends phones after the current catalog.
func (s *Store) InsertPhones(ctx context.Context, phones []catalog.Phone) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var base int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) FROM phone_library`).Scan(&base); err != nil {
			return fmt.Errorf("failed to read catalog position: %w", err)
		}
		for i := range phones {
			if err := insertPhone(ctx, tx, &phones[i], base+i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertPhone(ctx context.Context, tx *sql.Tx, p *catalog.Phone, position int) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO phone_library
		(phone_model, brand_name, market_name, memory_config, front_camera, rear_camera,
		 resolution, screen_size, selling_point, price, image_key, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Model, p.Brand, p.MarketName, p.Memory, p.FrontCamera, p.RearCamera,
		p.Resolution, p.ScreenSize, p.SellingPoint, p.Price, p.ImageKey, position)
	if err != nil {
		return fmt.Errorf("failed to insert phone %q: %w", p.Model, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// ReplacePhones swaps in a new catalog atomically. Phones whose model name
// already exists keep their id, so favorites and history that point at
// them survive the reload. Phones absent from the new catalog are removed
// along with their favorites and history.
func (s *Store) ReplacePhones(ctx context.Context, phones []catalog.Phone) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, phone_model FROM phone_library ORDER BY position, id`)
		if err != nil {
			return fmt.Errorf("failed to read current catalog: %w", err)
		}
		existing := map[string][]int64{}
		for rows.Next() {
			var id int64
			var model string
			if err := rows.Scan(&id, &model); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan phone: %w", err)
			}
			existing[model] = append(existing[model], id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating phones: %w", err)
		}

		for i := range phones {
			p := &phones[i]
			ids := existing[p.Model]
			if len(ids) == 0 {
				if err := insertPhone(ctx, tx, p, i+1); err != nil {
					return err
				}
				continue
			}
			p.ID, existing[p.Model] = ids[0], ids[1:]
			_, err := tx.ExecContext(ctx, `UPDATE phone_library SET brand_name = ?, market_name = ?,
				memory_config = ?, front_camera = ?, rear_camera = ?, resolution = ?, screen_size = ?,
				selling_point = ?, price = ?, image_key = ?, position = ? WHERE id = ?`,
				p.Brand, p.MarketName, p.Memory, p.FrontCamera, p.RearCamera, p.Resolution,
				p.ScreenSize, p.SellingPoint, p.Price, p.ImageKey, i+1, p.ID)
			if err != nil {
				return fmt.Errorf("failed to update phone %q: %w", p.Model, err)
			}
		}

		for _, ids := range existing {
			for _, id := range ids {
				if _, err := tx.ExecContext(ctx, `DELETE FROM phone_library WHERE id = ?`, id); err != nil {
					return fmt.Errorf("failed to delete phone %d: %w", id, err)
				}
			}
		}
		return nil
	})
}

// DeleteAllPhones empties the catalog.
func (s *Store) DeleteAllPhones(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM phone_library`); err != nil {
		return fmt.Errorf("failed to delete phones: %w", err)
	}
	return nil
}

// UpdateImageKey sets the asset key of one phone.
func (s *Store) UpdateImageKey(ctx context.Context, id int64, key string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE phone_library SET image_key = ? WHERE id = ?`, key, id)
	if err != nil {
		return fmt.Errorf("failed to update image key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
