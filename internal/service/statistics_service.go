package service

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// StatisticsService computes quality metrics across record types.
type StatisticsService interface {
	GetRecordStatisticsByPhase(entity string) ([]*RecordStatisticsByPhase, error)
	GetRecordStatisticsByTime(entity string) ([]*RecordStatisticsByTime, error)
	GetApprovalStatistics() (*ApprovalStatistics, error)
	GetOverdueCAPAs() ([]*model.CAPA, error)
}

// RecordStatisticsByPhase counts records per workflow phase.
type RecordStatisticsByPhase struct {
	Phase string `json:"phase"`
	Count int64  `json:"count"`
}

// RecordStatisticsByTime counts records created per day.
type RecordStatisticsByTime struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ApprovalStatistics summarizes approval chain outcomes.
type ApprovalStatistics struct {
	TotalApprovals int64   `json:"total_approvals"`
	ApprovedCount  int64   `json:"approved_count"`
	RejectedCount  int64   `json:"rejected_count"`
	PendingCount   int64   `json:"pending_count"`
	ApprovalRate   float64 `json:"approval_rate"`
}

// entityTables maps entity names to their tables.
var entityTables = map[string]string{
	"capa":           "capas",
	"change_control": "change_controls",
	"deviation":      "deviations",
	"document":       "documents",
}

type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService creates a statistics service.
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetRecordStatisticsByPhase counts one entity's records per phase.
func (s *statisticsService) GetRecordStatisticsByPhase(entity string) ([]*RecordStatisticsByPhase, error) {
	table, ok := entityTables[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity type: %s", entity)
	}

	var results []struct {
		Phase string
		Count int64
	}

	err := s.db.Table(table).
		Select("current_phase as phase, COUNT(*) as count").
		Group("current_phase").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get %s statistics by phase: %w", entity, err)
	}

	stats := make([]*RecordStatisticsByPhase, 0, len(results))
	for _, r := range results {
		stats = append(stats, &RecordStatisticsByPhase{
			Phase: r.Phase,
			Count: r.Count,
		})
	}

	return stats, nil
}

// GetRecordStatisticsByTime counts one entity's records per creation day.
func (s *statisticsService) GetRecordStatisticsByTime(entity string) ([]*RecordStatisticsByTime, error) {
	table, ok := entityTables[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity type: %s", entity)
	}

	var results []struct {
		Date  string
		Count int64
	}

	err := s.db.Table(table).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Group("DATE(created_at)").
		Order("date DESC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get %s statistics by time: %w", entity, err)
	}

	stats := make([]*RecordStatisticsByTime, 0, len(results))
	for _, r := range results {
		stats = append(stats, &RecordStatisticsByTime{
			Date:  r.Date,
			Count: r.Count,
		})
	}

	return stats, nil
}

// GetApprovalStatistics summarizes approval outcomes across all
// record types.
func (s *statisticsService) GetApprovalStatistics() (*ApprovalStatistics, error) {
	var totalCount int64
	err := s.db.Model(&model.Approval{}).Count(&totalCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}

	var approvedCount int64
	err = s.db.Model(&model.Approval{}).
		Where("status = ?", model.ApprovalApproved).
		Count(&approvedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count approved entries: %w", err)
	}

	var rejectedCount int64
	err = s.db.Model(&model.Approval{}).
		Where("status = ?", model.ApprovalRejected).
		Count(&rejectedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count rejected entries: %w", err)
	}

	var pendingCount int64
	err = s.db.Model(&model.Approval{}).
		Where("status = ?", model.ApprovalPending).
		Count(&pendingCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count pending entries: %w", err)
	}

	approvalRate := 0.0
	if totalCount > 0 {
		approvalRate = float64(approvedCount) / float64(totalCount) * 100
	}

	return &ApprovalStatistics{
		TotalApprovals: totalCount,
		ApprovedCount:  approvedCount,
		RejectedCount:  rejectedCount,
		PendingCount:   pendingCount,
		ApprovalRate:   approvalRate,
	}, nil
}

// GetOverdueCAPAs returns open CAPAs past their target completion date.
func (s *statisticsService) GetOverdueCAPAs() ([]*model.CAPA, error) {
	var capas []*model.CAPA
	err := s.db.
		Where("target_completion_date IS NOT NULL AND target_completion_date < ?", time.Now()).
		Where("current_phase <> ?", model.CAPAPhaseClosure).
		Order("target_completion_date ASC").
		Find(&capas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue CAPAs: %w", err)
	}
	return capas, nil
}
