package repository

import (
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// DocumentRepository is the storage interface for controlled documents.
type DocumentRepository interface {
	Save(doc *model.Document) error
	FindByID(id uint) (*model.Document, error)
	FindByBusinessID(documentID string) (*model.Document, error)
	FindByFilter(filter *DocumentFilter) ([]*model.Document, error)
	FindByState(state string) ([]*model.Document, error)
	Delete(id uint) error
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	State        *string
	InfocardType *string
	Owner        *string
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a document repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Save persists a document record.
func (r *documentRepository) Save(doc *model.Document) error {
	return r.db.Save(doc).Error
}

// FindByID looks up a document by primary key.
func (r *documentRepository) FindByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByBusinessID looks up a document by its business identifier.
func (r *documentRepository) FindByBusinessID(documentID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("document_id = ?", documentID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByFilter lists documents matching a filter.
func (r *documentRepository) FindByFilter(filter *DocumentFilter) ([]*model.Document, error) {
	var docs []*model.Document
	query := r.db.Model(&model.Document{})

	if filter != nil {
		if filter.State != nil {
			query = query.Where("current_phase = ?", *filter.State)
		}
		if filter.InfocardType != nil {
			query = query.Where("infocard_type = ?", *filter.InfocardType)
		}
		if filter.Owner != nil {
			query = query.Where("owner = ?", *filter.Owner)
		}
	}

	err := query.Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// FindByState lists documents in a lifecycle state.
func (r *documentRepository) FindByState(state string) ([]*model.Document, error) {
	var docs []*model.Document
	err := r.db.Where("current_phase = ?", state).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// Delete removes a document and clears every reference pointing at it.
func (r *documentRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.RiskMitigation{}).
			Where("document_id = ?", id).
			Update("document_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Document{}).
			Where("superseded_by_id = ?", id).
			Update("superseded_by_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Document{}, id).Error
	})
}
