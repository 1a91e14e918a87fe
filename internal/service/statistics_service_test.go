package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// TestStatisticsService_RecordsByPhase verifies per-phase counts.
func TestStatisticsService_RecordsByPhase(t *testing.T) {
	env := setupServiceEnv(t)
	svc := service.NewStatisticsService(env.db)

	for i, phase := range []string{
		model.CAPAPhaseInvestigation,
		model.CAPAPhaseInvestigation,
		model.CAPAPhaseClosure,
	} {
		require.NoError(t, env.db.Create(&model.CAPA{
			CAPAID:         fmt.Sprintf("CAPA-2026-%04d", i+1),
			Title:          "stat",
			CurrentPhase:   phase,
			PhaseEnteredAt: time.Now(),
			CreatedBy:      "alice",
		}).Error)
	}

	stats, err := svc.GetRecordStatisticsByPhase("capa")
	require.NoError(t, err)

	counts := make(map[string]int64, len(stats))
	for _, s := range stats {
		counts[s.Phase] = s.Count
	}
	assert.Equal(t, int64(2), counts[model.CAPAPhaseInvestigation])
	assert.Equal(t, int64(1), counts[model.CAPAPhaseClosure])
}

// TestStatisticsService_UnknownEntity verifies unmapped entities are
// rejected rather than interpolated into SQL.
func TestStatisticsService_UnknownEntity(t *testing.T) {
	env := setupServiceEnv(t)
	svc := service.NewStatisticsService(env.db)

	_, err := svc.GetRecordStatisticsByPhase("users; drop table capas")
	assert.Error(t, err)

	_, err = svc.GetRecordStatisticsByTime("widget")
	assert.Error(t, err)
}

// TestStatisticsService_ApprovalStatistics verifies the outcome summary
// and rate.
func TestStatisticsService_ApprovalStatistics(t *testing.T) {
	env := setupServiceEnv(t)
	svc := service.NewStatisticsService(env.db)

	rows := []model.Approval{
		{EntityType: "capa", RecordID: 1, Phase: model.CAPAPhasePlan, Tier: model.TierCoordinator, Approver: "a", Status: model.ApprovalApproved},
		{EntityType: "capa", RecordID: 1, Phase: model.CAPAPhasePlan, Tier: model.TierManager, Approver: "b", Status: model.ApprovalApproved},
		{EntityType: "capa", RecordID: 1, Phase: model.CAPAPhasePlan, Tier: model.TierQAHead, Approver: "c", Status: model.ApprovalRejected},
		{EntityType: "document", RecordID: 2, Phase: model.DocStateInReview, Tier: model.TierApprover, Approver: "d", Status: model.ApprovalPending},
	}
	for i := range rows {
		require.NoError(t, env.db.Create(&rows[i]).Error)
	}

	stats, err := svc.GetApprovalStatistics()
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalApprovals)
	assert.Equal(t, int64(2), stats.ApprovedCount)
	assert.Equal(t, int64(1), stats.RejectedCount)
	assert.Equal(t, int64(1), stats.PendingCount)
	assert.InDelta(t, 50.0, stats.ApprovalRate, 0.01)
}

// TestStatisticsService_OverdueCAPAs verifies only open, past-due CAPAs
// are returned, oldest first.
func TestStatisticsService_OverdueCAPAs(t *testing.T) {
	env := setupServiceEnv(t)
	svc := service.NewStatisticsService(env.db)

	past := time.Now().Add(-72 * time.Hour)
	older := time.Now().Add(-240 * time.Hour)
	future := time.Now().Add(72 * time.Hour)

	seedCAPAWithDue := func(id, phase string, due *time.Time) {
		require.NoError(t, env.db.Create(&model.CAPA{
			CAPAID:               id,
			Title:                "due check",
			CurrentPhase:         phase,
			PhaseEnteredAt:       time.Now(),
			CreatedBy:            "alice",
			TargetCompletionDate: due,
		}).Error)
	}

	seedCAPAWithDue("CAPA-2026-0001", model.CAPAPhaseImplementation, &past)
	seedCAPAWithDue("CAPA-2026-0002", model.CAPAPhaseImplementation, &older)
	seedCAPAWithDue("CAPA-2026-0003", model.CAPAPhaseClosure, &past)       // closed, not overdue
	seedCAPAWithDue("CAPA-2026-0004", model.CAPAPhaseImplementation, &future)
	seedCAPAWithDue("CAPA-2026-0005", model.CAPAPhaseImplementation, nil) // no target date

	overdue, err := svc.GetOverdueCAPAs()
	require.NoError(t, err)

	require.Len(t, overdue, 2)
	assert.Equal(t, "CAPA-2026-0002", overdue[0].CAPAID)
	assert.Equal(t, "CAPA-2026-0001", overdue[1].CAPAID)
}
