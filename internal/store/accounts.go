package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const accountColumns = `id, phone_number, password_hash, security_question, security_answer_hash,
	is_current_user, create_time, update_time`

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var created, updated int64
	if err := row.Scan(&a.ID, &a.PhoneNumber, &a.PasswordHash, &a.SecurityQuestion,
		&a.SecurityAnswerHash, &a.IsCurrent, &created, &updated); err != nil {
		return nil, err
	}
	a.CreatedAt, a.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &a, nil
}

func (s *Store) getAccount(ctx context.Context, where string, arg interface{}) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM user_info WHERE `+where, arg)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// CreateAccount inserts a new account and sets its ID and timestamps. A
// phone number already in use yields ErrDuplicate.
func (s *Store) CreateAccount(ctx context.Context, a *Account) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `INSERT INTO user_info
		(phone_number, password_hash, security_question, security_answer_hash, is_current_user, create_time, update_time)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		a.PhoneNumber, a.PasswordHash, a.SecurityQuestion, a.SecurityAnswerHash, toMillis(now), toMillis(now))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	a.IsCurrent = false
	a.CreatedAt, a.UpdatedAt = fromMillis(toMillis(now)), fromMillis(toMillis(now))
	return nil
}

// GetAccount returns an account by id.
func (s *Store) GetAccount(ctx context.Context, id int64) (*Account, error) {
	return s.getAccount(ctx, "id = ?", id)
}

// GetAccountByPhone returns an account by phone number.
func (s *Store) GetAccountByPhone(ctx context.Context, phone string) (*Account, error) {
	return s.getAccount(ctx, "phone_number = ?", phone)
}

// CurrentAccount returns the logged-in account or ErrNotFound.
func (s *Store) CurrentAccount(ctx context.Context) (*Account, error) {
	return s.getAccount(ctx, "is_current_user = ? LIMIT 1", 1)
}

// SetCurrentAccount clears the flag on every account and sets it on id, in
// one transaction.
func (s *Store) SetCurrentAccount(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE user_info SET is_current_user = 0 WHERE is_current_user != 0`); err != nil {
			return fmt.Errorf("failed to clear current account: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE user_info SET is_current_user = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to set current account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ClearCurrentAccount logs every account out.
func (s *Store) ClearCurrentAccount(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE user_info SET is_current_user = 0 WHERE is_current_user != 0`); err != nil {
		return fmt.Errorf("failed to clear current account: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash.
func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return s.updateAccount(ctx, id, `password_hash = ?`, hash)
}

// UpdateSecurity replaces the security question and answer hash.
func (s *Store) UpdateSecurity(ctx context.Context, id int64, question, answerHash string) error {
	return s.updateAccount(ctx, id, `security_question = ?, security_answer_hash = ?`, question, answerHash)
}

func (s *Store) updateAccount(ctx context.Context, id int64, set string, args ...interface{}) error {
	args = append(args, toMillis(s.now()), id)
	res, err := s.db.ExecContext(ctx, `UPDATE user_info SET `+set+`, update_time = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount removes an account; its favorites and history go with it.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_info WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAccounts returns the number of registered accounts.
func (s *Store) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_info`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}
