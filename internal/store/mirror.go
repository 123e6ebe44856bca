package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Mirror writes every save to both a primary and a backup store. Loads
// prefer the primary; when the primary has nothing for a collection but the
// backup does, the backup copy is migrated into the primary and returned.
type Mirror struct {
	primary Store
	backup  Store
	logger  *slog.Logger
}

var _ Store = (*Mirror)(nil)

func NewMirror(primary, backup Store, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{primary: primary, backup: backup, logger: logger}
}

func (m *Mirror) LoadAll(ctx context.Context, c Collection) ([]Record, error) {
	records, err := m.primary.LoadAll(ctx, c)
	if err != nil {
		m.logger.WarnContext(ctx, "Primary store load failed, using backup",
			"collection", c, "error", err)
		return m.backup.LoadAll(ctx, c)
	}
	if len(records) > 0 {
		return records, nil
	}

	backup, err := m.backup.LoadAll(ctx, c)
	if err != nil {
		m.logger.WarnContext(ctx, "Backup store load failed", "collection", c, "error", err)
		return records, nil
	}
	if len(backup) == 0 {
		return records, nil
	}

	if err := m.primary.SaveAll(ctx, c, backup); err != nil {
		m.logger.WarnContext(ctx, "Failed to migrate backup into primary store",
			"collection", c, "error", err)
	} else {
		m.logger.InfoContext(ctx, "Migrated collection from backup store",
			"collection", c, "records", len(backup))
	}
	return backup, nil
}

func (m *Mirror) SaveAll(ctx context.Context, c Collection, records []Record) error {
	var errs []error
	if err := m.primary.SaveAll(ctx, c, records); err != nil {
		errs = append(errs, fmt.Errorf("primary: %w", err))
	}
	if err := m.backup.SaveAll(ctx, c, records); err != nil {
		errs = append(errs, fmt.Errorf("backup: %w", err))
	}
	return errors.Join(errs...)
}

// LoadCounter returns the larger of the two stored values so a counter
// never moves backwards after a partial write.
func (m *Mirror) LoadCounter(ctx context.Context, name string) (int64, error) {
	p, perr := m.primary.LoadCounter(ctx, name)
	b, berr := m.backup.LoadCounter(ctx, name)
	switch {
	case perr != nil && berr != nil:
		return DefaultCounter, errors.Join(perr, berr)
	case perr != nil:
		return b, nil
	case berr != nil:
		return p, nil
	}
	return max(p, b), nil
}

func (m *Mirror) SaveCounter(ctx context.Context, name string, value int64) error {
	var errs []error
	if err := m.primary.SaveCounter(ctx, name, value); err != nil {
		errs = append(errs, fmt.Errorf("primary: %w", err))
	}
	if err := m.backup.SaveCounter(ctx, name, value); err != nil {
		errs = append(errs, fmt.Errorf("backup: %w", err))
	}
	return errors.Join(errs...)
}

func (m *Mirror) Close() error {
	return errors.Join(m.primary.Close(), m.backup.Close())
}
