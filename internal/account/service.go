// Package account manages the local user accounts: registration, the
// single logged-in user, password reset through a security question and
// account deletion.
package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"techhourse/internal/logging"
	"techhourse/internal/store"
)

// Common errors
var (
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSecurityMismatch   = errors.New("security answer does not match")
	ErrNotLoggedIn        = errors.New("no user is logged in")
	ErrInvalidInput       = errors.New("invalid input")
)

// MinPasswordLength is the shortest password accepted, in characters.
const MinPasswordLength = 6

// MaxSecretBytes is the longest password or security answer bcrypt can hash.
const MaxSecretBytes = 72

var phoneRe = regexp.MustCompile(`^1[3-9]\d{9}$`)

// Repository defines the account storage the service needs.
type Repository interface {
	CreateAccount(ctx context.Context, a *store.Account) error
	GetAccountByPhone(ctx context.Context, phone string) (*store.Account, error)
	CurrentAccount(ctx context.Context) (*store.Account, error)
	SetCurrentAccount(ctx context.Context, id int64) error
	ClearCurrentAccount(ctx context.Context) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateSecurity(ctx context.Context, id int64, question, answerHash string) error
	DeleteAccount(ctx context.Context, id int64) error
}

// Registration holds the fields needed to create an account.
type Registration struct {
	PhoneNumber      string `json:"phone_number"`
	Password         string `json:"password"`
	SecurityQuestion string `json:"security_question"`
	SecurityAnswer   string `json:"security_answer"`
}

// Service implements the account operations on top of a Repository.
type Service struct {
	repo   Repository
	logger *logging.Logger
	cost   int
}

// NewService creates an account service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrDiscard(logger), cost: bcrypt.DefaultCost}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ValidPhoneNumber reports whether phone looks like a mainland mobile number.
func ValidPhoneNumber(phone string) bool {
	return phoneRe.MatchString(phone)
}

func validPassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return invalid("password must be at least %d characters", MinPasswordLength)
	}
	if len(pw) > MaxSecretBytes {
		return invalid("password must be at most %d bytes", MaxSecretBytes)
	}
	return nil
}

func validSecurity(question, answer string) error {
	if err := validSecurity(question, answer); err != nil {
		return err
	}
	if len(answer) > MaxSecretBytes {
		return invalid("security answer must be at most %d bytes", MaxSecretBytes)
	}
	return nil
}

// Register creates a new account. The account is not logged in.
func (s *Service) Register(ctx context.Context, reg Registration) (*store.Account, error) {
	phone := strings.TrimSpace(reg.PhoneNumber)
	question := strings.TrimSpace(reg.SecurityQuestion)
	answer := strings.TrimSpace(reg.SecurityAnswer)

	if !ValidPhoneNumber(phone) {
		return nil, invalid("phone number %q is not valid", phone)
	}
	if err := validPassword(reg.Password); err != nil {
		return nil, err
	}
	if err := validSecurity(question, answer); err != nil {
		return nil, err
	}

	pwHash, err := hashSecret(reg.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	answerHash, err := hashSecret(answer, s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash security answer: %w", err)
	}

	a := &store.Account{
		PhoneNumber:        phone,
		PasswordHash:       pwHash,
		SecurityQuestion:   question,
		SecurityAnswerHash: answerHash,
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}
	s.logger.Info("registered account %d", a.ID)
	return a, nil
}

// Login verifies the credentials and makes the account the only current one.
func (s *Service) Login(ctx context.Context, phone, password string) (*store.Account, error) {
	a, err := s.repo.GetAccountByPhone(ctx, strings.TrimSpace(phone))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkSecretHash(password, a.PasswordHash) {
		s.logger.WithContext("account_id", a.ID).Warn("login rejected: wrong password")
		return nil, ErrInvalidCredentials
	}
	if err := s.repo.SetCurrentAccount(ctx, a.ID); err != nil {
		return nil, fmt.Errorf("failed to set current account: %w", err)
	}
	a.IsCurrent = true
	s.logger.Info("account %d logged in", a.ID)
	return a, nil
}

// Logout clears the current-user flag. The account itself is kept.
func (s *Service) Logout(ctx context.Context) error {
	return s.repo.ClearCurrentAccount(ctx)
}

// Current returns the logged-in account or ErrNotLoggedIn.
func (s *Service) Current(ctx context.Context) (*store.Account, error) {
	a, err := s.repo.CurrentAccount(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	return a, err
}

// SecurityQuestion returns the question registered for phone.
func (s *Service) SecurityQuestion(ctx context.Context, phone string) (string, error) {
	a, err := s.repo.GetAccountByPhone(ctx, strings.TrimSpace(phone))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	return a.SecurityQuestion, nil
}

// ResetPassword sets a new password after checking the security answer.
func (s *Service) ResetPassword(ctx context.Context, phone, answer, newPassword string) error {
	if err := validPassword(newPassword); err != nil {
		return err
	}
	a, err := s.repo.GetAccountByPhone(ctx, strings.TrimSpace(phone))
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if !checkSecretHash(strings.TrimSpace(answer), a.SecurityAnswerHash) {
		s.logger.WithContext("account_id", a.ID).Warn("password reset rejected: wrong security answer")
		return ErrSecurityMismatch
	}
	return s.setPassword(ctx, a.ID, newPassword)
}

// ChangePassword replaces the current user's password.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	a, err := s.confirmCurrent(ctx, oldPassword)
	if err != nil {
		return err
	}
	if err := validPassword(newPassword); err != nil {
		return err
	}
	if oldPassword == newPassword {
		return invalid("new password must differ from the current one")
	}
	return s.setPassword(ctx, a.ID, newPassword)
}

// UpdateSecurity replaces the current user's security question and answer.
func (s *Service) UpdateSecurity(ctx context.Context, password, question, answer string) error {
	a, err := s.confirmCurrent(ctx, password)
	if err != nil {
		return err
	}
	question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
	if err := validSecurity(question, answer); err != nil {
		return err
	}
	hash, err := hashSecret(answer, s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash security answer: %w", err)
	}
	return s.repo.UpdateSecurity(ctx, a.ID, question, hash)
}

// Delete removes the current user together with its favorites and history.
func (s *Service) Delete(ctx context.Context, password string) error {
	a, err := s.confirmCurrent(ctx, password)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAccount(ctx, a.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.logger.Info("account %d deleted", a.ID)
	return nil
}

func (s *Service) confirmCurrent(ctx context.Context, password string) (*store.Account, error) {
	a, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !checkSecretHash(password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

func (s *Service) setPassword(ctx context.Context, id int64, password string) error {
	hash, err := hashSecret(password, s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.Info("password changed for account %d", id)
	return nil
}
