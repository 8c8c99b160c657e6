package catalog

import (
	"context"
	"errors"
	"fmt"

	"techhourse/internal/logging"
)

// Repository is the storage the loader writes phones into.
type Repository interface {
	CountPhones(ctx context.Context) (int, error)
	InsertPhones(ctx context.Context, phones []Phone) error
	ReplacePhones(ctx context.Context, phones []Phone) error
	ListPhones(ctx context.Context) ([]Phone, error)
	UpdateImageKey(ctx context.Context, id int64, key string) error
}

// Loader moves the import file into the repository.
type Loader struct {
	repo    Repository
	path    string
	badKeys map[string]bool
	logger  *logging.Logger
}

// NewLoader creates a loader for the file at path. badKeys lists image keys
// known to be wrong; the repair pass rewrites them.
func NewLoader(repo Repository, path string, badKeys []string, logger *logging.Logger) *Loader {
	bad := make(map[string]bool, len(badKeys))
	for _, k := range badKeys {
		bad[k] = true
	}
	return &Loader{repo: repo, path: path, badKeys: bad, logger: logging.OrDiscard(logger)}
}

// Path returns the import file location.
func (l *Loader) Path() string { return l.path }

// Initialize imports the file unless the repository already holds phones.
// It returns the number of phones inserted.
func (l *Loader) Initialize(ctx context.Context) (int, error) {
	n, err := l.repo.CountPhones(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count phones: %w", err)
	}
	if n > 0 {
		l.logger.Debug("catalog already holds %d phones, skipping import", n)
		return 0, nil
	}

	phones, err := ReadFile(l.path)
	if err != nil {
		return 0, err
	}
	if err := l.repo.InsertPhones(ctx, phones); err != nil {
		return 0, fmt.Errorf("failed to insert phones: %w", err)
	}
	l.logger.Info("imported %d phones from %s", len(phones), l.path)

	if _, err := l.Repair(ctx); err != nil {
		l.logger.Warn("image key repair failed: %v", err)
	}
	return len(phones), nil
}

// Reload replaces the whole catalog with the current file contents. A file
// without usable rows leaves the existing catalog untouched.
func (l *Loader) Reload(ctx context.Context) (int, error) {
	phones, err := ReadFile(l.path)
	if errors.Is(err, ErrNoRows) {
		l.logger.Warn("catalog file %s has no phone rows, keeping current catalog", l.path)
		return 0, err
	}
	if err != nil {
		return 0, err
	}
	if err := l.repo.ReplacePhones(ctx, phones); err != nil {
		return 0, fmt.Errorf("failed to replace phones: %w", err)
	}
	l.logger.Info("reloaded %d phones from %s", len(phones), l.path)

	if _, err := l.Repair(ctx); err != nil {
		l.logger.Warn("image key repair failed: %v", err)
	}
	return len(phones), nil
}

// Repair rewrites empty or known-bad image keys to the key derived from the
// model name and returns how many phones changed.
func (l *Loader) Repair(ctx context.Context) (int, error) {
	phones, err := l.repo.ListPhones(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list phones: %w", err)
	}
	fixed := 0
	for _, p := range phones {
		if p.ImageKey != "" && !l.badKeys[p.ImageKey] {
			continue
		}
		key := ImageKey(p.Model)
		if key == p.ImageKey {
			continue
		}
		if err := l.repo.UpdateImageKey(ctx, p.ID, key); err != nil {
			return fixed, fmt.Errorf("failed to fix image key for phone %d: %w", p.ID, err)
		}
		fixed++
	}
	if fixed > 0 {
		l.logger.Info("repaired %d image keys", fixed)
	}
	return fixed, nil
}
