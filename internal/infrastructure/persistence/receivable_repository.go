package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReceivableRepository implements finance.ReceivableRepository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// FindByID finds a receivable by its ID
func (r *GormReceivableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Receivable, error) {
	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, storeErr(err)
	}
	return model.ToDomain()
}

// List returns receivables ordered by due date, then customer name
func (r *GormReceivableRepository) List(ctx context.Context, filter finance.EntryFilter) ([]finance.Receivable, error) {
	var rows []models.ReceivableModel
	err := r.db.WithContext(ctx).
		Scopes(dueMonthScope(filter)).
		Order("due_date ASC, customer_name ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	items := make([]finance.Receivable, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToDomain()
		if err != nil {
			return nil, storeErr(err)
		}
		items = append(items, *rec)
	}
	return items, nil
}

// Save inserts a new receivable
func (r *GormReceivableRepository) Save(ctx context.Context, rec *finance.Receivable) error {
	model := models.ReceivableModelFromDomain(rec)
	return storeErr(r.db.WithContext(ctx).Create(model).Error)
}

// SaveBatch inserts each receivable in its own statement. A failed item does not
// roll back the ones before it.
func (r *GormReceivableRepository) SaveBatch(ctx context.Context, items []*finance.Receivable) finance.BatchResult {
	res := finance.BatchResult{Created: make([]uuid.UUID, 0, len(items))}
	for i, rec := range items {
		if err := r.Save(ctx, rec); err != nil {
			res.Failures = append(res.Failures, batchFailure(i, err))
			continue
		}
		res.Created = append(res.Created, rec.ID)
	}
	return res
}

// Update writes the receivable when its stored version still matches and bumps
// the version on success.
func (r *GormReceivableRepository) Update(ctx context.Context, rec *finance.Receivable) error {
	model := models.ReceivableModelFromDomain(rec)
	model.Version = rec.Version + 1
	db := r.db.WithContext(ctx)
	result := db.Model(&models.ReceivableModel{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return versionConflict(db, &models.ReceivableModel{}, rec.ID)
	}
	rec.Version = model.Version
	return nil
}
