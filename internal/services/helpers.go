package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pawwalk/pawwalk/internal/permissions"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// normalisePageSize applies the default and upper bound for list sizes.
func normalisePageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

// zeroBasedOffset returns the offset for page numbers starting at 0.
func zeroBasedOffset(page, size int) int {
	if page < 0 {
		page = 0
	}
	return page * size
}

// oneBasedOffset returns the offset for page numbers starting at 1.
func oneBasedOffset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}

func normaliseIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func stringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// lockForUpdate adds SELECT ... FOR UPDATE on dialects that support row locks.
// SQLite serialises writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func systemNow() time.Time {
	return time.Now().UTC()
}

// petAccessErrors maps authority sentinels onto the domain codes of a caller.
type petAccessErrors struct {
	notFound  *apperrors.AppError
	forbidden *apperrors.AppError
}

func (m petAccessErrors) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, permissions.ErrPetNotFound):
		return m.notFound
	case errors.Is(err, permissions.ErrNotMember), errors.Is(err, permissions.ErrNotOwner):
		return m.forbidden
	default:
		return err
	}
}

// asAppError passes AppErrors through and wraps anything else in fallback.
func asAppError(err error, fallback *apperrors.AppError) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return fallback.WithInternal(err)
}
