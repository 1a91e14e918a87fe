package repository

import (
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// DeviationRepository is the storage interface for deviations.
type DeviationRepository interface {
	Save(dev *model.Deviation) error
	FindByID(id uint) (*model.Deviation, error)
	FindByBusinessID(deviationID string) (*model.Deviation, error)
	FindByFilter(filter *DeviationFilter) ([]*model.Deviation, error)
	Delete(id uint) error
}

// DeviationFilter narrows deviation listings.
type DeviationFilter struct {
	Stage      *string
	Severity   *string
	Source     *string
	ReportedBy *string
}

type deviationRepository struct {
	db *gorm.DB
}

// NewDeviationRepository creates a deviation repository.
func NewDeviationRepository(db *gorm.DB) DeviationRepository {
	return &deviationRepository{db: db}
}

// Save persists a deviation record.
func (r *deviationRepository) Save(dev *model.Deviation) error {
	return r.db.Save(dev).Error
}

// FindByID looks up a deviation by primary key.
func (r *deviationRepository) FindByID(id uint) (*model.Deviation, error) {
	var dev model.Deviation
	if err := r.db.Where("id = ?", id).First(&dev).Error; err != nil {
		return nil, err
	}
	return &dev, nil
}

// FindByBusinessID looks up a deviation by its business identifier.
func (r *deviationRepository) FindByBusinessID(deviationID string) (*model.Deviation, error) {
	var dev model.Deviation
	if err := r.db.Where("deviation_id = ?", deviationID).First(&dev).Error; err != nil {
		return nil, err
	}
	return &dev, nil
}

// FindByFilter lists deviations matching a filter.
func (r *deviationRepository) FindByFilter(filter *DeviationFilter) ([]*model.Deviation, error) {
	var devs []*model.Deviation
	query := r.db.Model(&model.Deviation{})

	if filter != nil {
		if filter.Stage != nil {
			query = query.Where("current_phase = ?", *filter.Stage)
		}
		if filter.Severity != nil {
			query = query.Where("severity = ?", *filter.Severity)
		}
		if filter.Source != nil {
			query = query.Where("source = ?", *filter.Source)
		}
		if filter.ReportedBy != nil {
			query = query.Where("reported_by = ?", *filter.ReportedBy)
		}
	}

	err := query.Order("created_at DESC").Find(&devs).Error
	return devs, err
}

// Delete removes a deviation and clears every reference pointing at it.
func (r *deviationRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.CAPA{}).
			Where("deviation_id = ?", id).
			Update("deviation_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.ChangeControl{}).
			Where("deviation_id = ?", id).
			Update("deviation_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Hazard{}).
			Where("deviation_id = ?", id).
			Update("deviation_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Deviation{}, id).Error
	})
}
