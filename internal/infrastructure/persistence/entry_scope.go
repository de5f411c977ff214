package persistence

import (
	"errors"
	"fmt"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// storeErr maps driver failures to the domain's store error, keeping the cause in
// the message.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
}

// dueMonthScope restricts a query to the half-open due-date window of the filter month.
func dueMonthScope(filter finance.EntryFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Month == nil {
			return db
		}
		from, to := filter.Month.Window()
		return db.Where("due_date >= ? AND due_date < ?", from, to)
	}
}

// batchFailure describes a rejected batch item with its domain code, falling back to
// STORE_UNAVAILABLE for errors that carry none.
func batchFailure(index int, err error) finance.BatchFailure {
	code := shared.CodeOf(err)
	if code == "" {
		code = shared.CodeStoreUnavailable
	}
	return finance.BatchFailure{Index: index, Code: code, Message: err.Error()}
}

// versionConflict tells a stale write apart from a row that no longer exists.
func versionConflict(db *gorm.DB, model any, id any) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return storeErr(err)
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}
