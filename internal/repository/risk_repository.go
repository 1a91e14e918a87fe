package repository

import (
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// RiskRepository is the storage interface for hazards, risk assessments,
// mitigations, and FMEA worksheets.
type RiskRepository interface {
	SaveHazard(h *model.Hazard) error
	FindHazardByID(id uint) (*model.Hazard, error)
	FindHazardByBusinessID(hazardID string) (*model.Hazard, error)
	FindHazards() ([]*model.Hazard, error)
	DeleteHazard(id uint) error

	SaveAssessment(a *model.RiskAssessment) error
	FindAssessments(hazardID uint) ([]*model.RiskAssessment, error)

	SaveMitigation(m *model.RiskMitigation) error
	FindMitigations(hazardID uint) ([]*model.RiskMitigation, error)

	SaveWorksheet(w *model.FMEAWorksheet) error
	FindWorksheetByID(id uint) (*model.FMEAWorksheet, error)
	SaveFMEARecord(rec *model.FMEARecord) error
	FindFMEARecords(worksheetID uint) ([]*model.FMEARecord, error)
}

type riskRepository struct {
	db *gorm.DB
}

// NewRiskRepository creates a risk repository.
func NewRiskRepository(db *gorm.DB) RiskRepository {
	return &riskRepository{db: db}
}

// SaveHazard persists a hazard.
func (r *riskRepository) SaveHazard(h *model.Hazard) error {
	return r.db.Save(h).Error
}

// FindHazardByID looks up a hazard with its assessments and mitigations.
func (r *riskRepository) FindHazardByID(id uint) (*model.Hazard, error) {
	var h model.Hazard
	if err := r.db.Preload("Assessments").Preload("Mitigations").
		Where("id = ?", id).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// FindHazardByBusinessID looks up a hazard by its business identifier.
func (r *riskRepository) FindHazardByBusinessID(hazardID string) (*model.Hazard, error) {
	var h model.Hazard
	if err := r.db.Preload("Assessments").Preload("Mitigations").
		Where("hazard_id = ?", hazardID).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// FindHazards lists all hazards, newest first.
func (r *riskRepository) FindHazards() ([]*model.Hazard, error) {
	var hazards []*model.Hazard
	err := r.db.Order("created_at DESC").Find(&hazards).Error
	return hazards, err
}

// DeleteHazard removes a hazard with its assessments and mitigations.
func (r *riskRepository) DeleteHazard(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hazard_id = ?", id).Delete(&model.RiskAssessment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("hazard_id = ?", id).Delete(&model.RiskMitigation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Hazard{}, id).Error
	})
}

// SaveAssessment persists a risk assessment.
func (r *riskRepository) SaveAssessment(a *model.RiskAssessment) error {
	return r.db.Save(a).Error
}

// FindAssessments lists the assessments of a hazard.
func (r *riskRepository) FindAssessments(hazardID uint) ([]*model.RiskAssessment, error) {
	var assessments []*model.RiskAssessment
	err := r.db.Where("hazard_id = ?", hazardID).Order("id ASC").Find(&assessments).Error
	return assessments, err
}

// SaveMitigation persists a risk mitigation.
func (r *riskRepository) SaveMitigation(m *model.RiskMitigation) error {
	return r.db.Save(m).Error
}

// FindMitigations lists the mitigations of a hazard.
func (r *riskRepository) FindMitigations(hazardID uint) ([]*model.RiskMitigation, error) {
	var mitigations []*model.RiskMitigation
	err := r.db.Where("hazard_id = ?", hazardID).Order("id ASC").Find(&mitigations).Error
	return mitigations, err
}

// SaveWorksheet persists an FMEA worksheet.
func (r *riskRepository) SaveWorksheet(w *model.FMEAWorksheet) error {
	return r.db.Save(w).Error
}

// FindWorksheetByID looks up a worksheet with its records.
func (r *riskRepository) FindWorksheetByID(id uint) (*model.FMEAWorksheet, error) {
	var w model.FMEAWorksheet
	if err := r.db.Preload("Records").Where("id = ?", id).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// SaveFMEARecord persists an FMEA line item.
func (r *riskRepository) SaveFMEARecord(rec *model.FMEARecord) error {
	return r.db.Save(rec).Error
}

// FindFMEARecords lists the line items of a worksheet.
func (r *riskRepository) FindFMEARecords(worksheetID uint) ([]*model.FMEARecord, error) {
	var records []*model.FMEARecord
	err := r.db.Where("worksheet_id = ?", worksheetID).Order("id ASC").Find(&records).Error
	return records, err
}
