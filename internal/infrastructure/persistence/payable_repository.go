package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPayableRepository implements finance.PayableRepository using GORM
type GormPayableRepository struct {
	db *gorm.DB
}

// NewGormPayableRepository creates a new GormPayableRepository
func NewGormPayableRepository(db *gorm.DB) *GormPayableRepository {
	return &GormPayableRepository{db: db}
}

// FindByID finds a payable by its ID
func (r *GormPayableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payable, error) {
	var model models.PayableModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, storeErr(err)
	}
	return model.ToDomain()
}

// List returns payables ordered by due date, then vendor name
func (r *GormPayableRepository) List(ctx context.Context, filter finance.EntryFilter) ([]finance.Payable, error) {
	var rows []models.PayableModel
	err := r.db.WithContext(ctx).
		Scopes(dueMonthScope(filter)).
		Order("due_date ASC, vendor_name ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	items := make([]finance.Payable, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, storeErr(err)
		}
		items = append(items, *p)
	}
	return items, nil
}

// Save inserts a new payable
func (r *GormPayableRepository) Save(ctx context.Context, p *finance.Payable) error {
	model := models.PayableModelFromDomain(p)
	return storeErr(r.db.WithContext(ctx).Create(model).Error)
}

// SaveBatch inserts each payable in its own statement. A failed item does not
// roll back the ones before it.
func (r *GormPayableRepository) SaveBatch(ctx context.Context, items []*finance.Payable) finance.BatchResult {
	res := finance.BatchResult{Created: make([]uuid.UUID, 0, len(items))}
	for i, p := range items {
		if err := r.Save(ctx, p); err != nil {
			res.Failures = append(res.Failures, batchFailure(i, err))
			continue
		}
		res.Created = append(res.Created, p.ID)
	}
	return res
}

// Update writes the payable when its stored version still matches and bumps
// the version on success.
func (r *GormPayableRepository) Update(ctx context.Context, p *finance.Payable) error {
	model := models.PayableModelFromDomain(p)
	model.Version = p.Version + 1
	db := r.db.WithContext(ctx)
	result := db.Model(&models.PayableModel{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return versionConflict(db, &models.PayableModel{}, p.ID)
	}
	p.Version = model.Version
	return nil
}
