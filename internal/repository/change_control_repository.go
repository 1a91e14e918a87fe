package repository

import (
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// ChangeControlRepository is the storage interface for change controls.
type ChangeControlRepository interface {
	Save(cc *model.ChangeControl) error
	FindByID(id uint) (*model.ChangeControl, error)
	FindByBusinessID(changeControlID string) (*model.ChangeControl, error)
	FindByFilter(filter *ChangeControlFilter) ([]*model.ChangeControl, error)
	Delete(id uint) error

	SaveTask(task *model.ChangeControlTask) error
	FindTaskByID(id uint) (*model.ChangeControlTask, error)
	FindTasks(changeControlID uint) ([]*model.ChangeControlTask, error)
}

// ChangeControlFilter narrows change control listings.
type ChangeControlFilter struct {
	Stage       *string
	ChangeType  *string
	RiskLevel   *string
	RequestedBy *string
}

type changeControlRepository struct {
	db *gorm.DB
}

// NewChangeControlRepository creates a change control repository.
func NewChangeControlRepository(db *gorm.DB) ChangeControlRepository {
	return &changeControlRepository{db: db}
}

// Save persists a change control record.
func (r *changeControlRepository) Save(cc *model.ChangeControl) error {
	return r.db.Save(cc).Error
}

// FindByID looks up a change control by primary key, with its tasks.
func (r *changeControlRepository) FindByID(id uint) (*model.ChangeControl, error) {
	var cc model.ChangeControl
	if err := r.db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Where("id = ?", id).First(&cc).Error; err != nil {
		return nil, err
	}
	return &cc, nil
}

// FindByBusinessID looks up a change control by its business identifier.
func (r *changeControlRepository) FindByBusinessID(changeControlID string) (*model.ChangeControl, error) {
	var cc model.ChangeControl
	if err := r.db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Where("change_control_id = ?", changeControlID).First(&cc).Error; err != nil {
		return nil, err
	}
	return &cc, nil
}

// FindByFilter lists change controls matching a filter.
func (r *changeControlRepository) FindByFilter(filter *ChangeControlFilter) ([]*model.ChangeControl, error) {
	var ccs []*model.ChangeControl
	query := r.db.Model(&model.ChangeControl{})

	if filter != nil {
		if filter.Stage != nil {
			query = query.Where("current_phase = ?", *filter.Stage)
		}
		if filter.ChangeType != nil {
			query = query.Where("change_type = ?", *filter.ChangeType)
		}
		if filter.RiskLevel != nil {
			query = query.Where("risk_level = ?", *filter.RiskLevel)
		}
		if filter.RequestedBy != nil {
			query = query.Where("requested_by = ?", *filter.RequestedBy)
		}
	}

	err := query.Order("created_at DESC").Find(&ccs).Error
	return ccs, err
}

// Delete removes a change control, its tasks, and every reference pointing
// at it.
func (r *changeControlRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.RiskMitigation{}).
			Where("change_control_id = ?", id).
			Update("change_control_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("change_control_id = ?", id).
			Delete(&model.ChangeControlTask{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChangeControl{}, id).Error
	})
}

// SaveTask persists an implementation task.
func (r *changeControlRepository) SaveTask(task *model.ChangeControlTask) error {
	return r.db.Save(task).Error
}

// FindTaskByID looks up a task by primary key.
func (r *changeControlRepository) FindTaskByID(id uint) (*model.ChangeControlTask, error) {
	var task model.ChangeControlTask
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindTasks lists the tasks of a change control in sequence order.
func (r *changeControlRepository) FindTasks(changeControlID uint) ([]*model.ChangeControlTask, error) {
	var tasks []*model.ChangeControlTask
	err := r.db.Where("change_control_id = ?", changeControlID).
		Order("sequence ASC").
		Find(&tasks).Error
	return tasks, err
}
