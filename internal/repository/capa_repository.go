package repository

import (
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// CAPARepository is the storage interface for CAPA records.
type CAPARepository interface {
	Save(capa *model.CAPA) error
	FindByID(id uint) (*model.CAPA, error)
	FindByBusinessID(capaID string) (*model.CAPA, error)
	FindAll() ([]*model.CAPA, error)
	FindByFilter(filter *CAPAFilter) ([]*model.CAPA, error)
	Delete(id uint) error
	CountByPhase() (map[string]int64, error)
}

// CAPAFilter narrows CAPA listings.
type CAPAFilter struct {
	Phase      *string
	Priority   *string
	Source     *string
	AssignedTo *string
	CreatedBy  *string
}

type capaRepository struct {
	db *gorm.DB
}

// NewCAPARepository creates a CAPA repository.
func NewCAPARepository(db *gorm.DB) CAPARepository {
	return &capaRepository{db: db}
}

// Save persists a CAPA record.
func (r *capaRepository) Save(capa *model.CAPA) error {
	return r.db.Save(capa).Error
}

// FindByID looks up a CAPA by primary key.
func (r *capaRepository) FindByID(id uint) (*model.CAPA, error) {
	var capa model.CAPA
	if err := r.db.Where("id = ?", id).First(&capa).Error; err != nil {
		return nil, err
	}
	return &capa, nil
}

// FindByBusinessID looks up a CAPA by its business identifier.
func (r *capaRepository) FindByBusinessID(capaID string) (*model.CAPA, error) {
	var capa model.CAPA
	if err := r.db.Where("capa_id = ?", capaID).First(&capa).Error; err != nil {
		return nil, err
	}
	return &capa, nil
}

// FindAll lists all CAPA records, newest first.
func (r *capaRepository) FindAll() ([]*model.CAPA, error) {
	var capas []*model.CAPA
	err := r.db.Order("created_at DESC").Find(&capas).Error
	return capas, err
}

// FindByFilter lists CAPA records matching a filter.
func (r *capaRepository) FindByFilter(filter *CAPAFilter) ([]*model.CAPA, error) {
	var capas []*model.CAPA
	query := r.db.Model(&model.CAPA{})

	if filter != nil {
		if filter.Phase != nil {
			query = query.Where("current_phase = ?", *filter.Phase)
		}
		if filter.Priority != nil {
			query = query.Where("priority = ?", *filter.Priority)
		}
		if filter.Source != nil {
			query = query.Where("source = ?", *filter.Source)
		}
		if filter.AssignedTo != nil {
			query = query.Where("assigned_to = ?", *filter.AssignedTo)
		}
		if filter.CreatedBy != nil {
			query = query.Where("created_by = ?", *filter.CreatedBy)
		}
	}

	err := query.Order("created_at DESC").Find(&capas).Error
	return capas, err
}

// Delete removes a CAPA and clears every reference pointing at it. The
// referencing records survive with the link absent.
func (r *capaRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Deviation{}).
			Where("capa_id = ?", id).
			Update("capa_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.ChangeControl{}).
			Where("capa_id = ?", id).
			Update("capa_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.CAPA{}, id).Error
	})
}

// CountByPhase returns the number of CAPA records in each phase.
func (r *capaRepository) CountByPhase() (map[string]int64, error) {
	type row struct {
		CurrentPhase string
		Count        int64
	}
	var rows []row
	err := r.db.Model(&model.CAPA{}).
		Select("current_phase, COUNT(*) AS count").
		Group("current_phase").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.CurrentPhase] = rw.Count
	}
	return counts, nil
}
