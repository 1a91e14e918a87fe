package repository

import (
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// HistoryRepository reads the immutable phase transition trail.
type HistoryRepository interface {
	Save(history *model.PhaseHistory) error
	FindByRecord(entity string, recordID uint) ([]*model.PhaseHistory, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a phase history repository.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Save persists a phase history row.
func (r *historyRepository) Save(history *model.PhaseHistory) error {
	return r.db.Save(history).Error
}

// FindByRecord lists a record's transitions in the order they happened.
func (r *historyRepository) FindByRecord(entity string, recordID uint) ([]*model.PhaseHistory, error) {
	var histories []*model.PhaseHistory
	err := r.db.Where("entity_type = ? AND record_id = ?", entity, recordID).
		Order("created_at ASC").
		Find(&histories).Error
	return histories, err
}
