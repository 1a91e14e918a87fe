package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/risk"
)

// TestRPN verifies the risk priority number calculation.
func TestRPN(t *testing.T) {
	assert.Equal(t, 0, risk.RPN(0, 0, 0))
	assert.Equal(t, 1, risk.RPN(1, 1, 1))
	assert.Equal(t, 60, risk.RPN(3, 4, 5))
	assert.Equal(t, 125, risk.RPN(5, 5, 5))
	assert.Equal(t, 1000, risk.RPN(10, 10, 10))
}

// TestAssessmentThresholds verifies the 1-5 scale classification bands.
func TestAssessmentThresholds(t *testing.T) {
	assert.Equal(t, risk.LevelLow, risk.AssessmentThresholds.Classify(0))
	assert.Equal(t, risk.LevelLow, risk.AssessmentThresholds.Classify(19))
	assert.Equal(t, risk.LevelMedium, risk.AssessmentThresholds.Classify(20))
	assert.Equal(t, risk.LevelMedium, risk.AssessmentThresholds.Classify(49))
	assert.Equal(t, risk.LevelHigh, risk.AssessmentThresholds.Classify(50))
	assert.Equal(t, risk.LevelHigh, risk.AssessmentThresholds.Classify(99))
	assert.Equal(t, risk.LevelCritical, risk.AssessmentThresholds.Classify(100))
	assert.Equal(t, risk.LevelCritical, risk.AssessmentThresholds.Classify(125))
}

// TestFMEAThresholds verifies the 1-10 scale classification bands.
func TestFMEAThresholds(t *testing.T) {
	assert.Equal(t, risk.LevelLow, risk.FMEAThresholds.Classify(49))
	assert.Equal(t, risk.LevelMedium, risk.FMEAThresholds.Classify(50))
	assert.Equal(t, risk.LevelMedium, risk.FMEAThresholds.Classify(149))
	assert.Equal(t, risk.LevelHigh, risk.FMEAThresholds.Classify(150))
	assert.Equal(t, risk.LevelHigh, risk.FMEAThresholds.Classify(299))
	assert.Equal(t, risk.LevelCritical, risk.FMEAThresholds.Classify(300))
	assert.Equal(t, risk.LevelCritical, risk.FMEAThresholds.Classify(1000))
}

// TestTablesDiverge verifies that the same RPN classifies differently
// under the assessment and FMEA tables.
func TestTablesDiverge(t *testing.T) {
	// RPN 100 is critical on a 1-5 assessment but only medium on FMEA.
	assert.Equal(t, risk.LevelCritical, risk.AssessmentThresholds.Classify(100))
	assert.Equal(t, risk.LevelMedium, risk.FMEAThresholds.Classify(100))
}

// TestClassifyMonotonic verifies the level never decreases as the RPN grows.
func TestClassifyMonotonic(t *testing.T) {
	rank := map[string]int{
		risk.LevelLow:      0,
		risk.LevelMedium:   1,
		risk.LevelHigh:     2,
		risk.LevelCritical: 3,
	}
	for _, table := range []risk.ThresholdTable{risk.AssessmentThresholds, risk.FMEAThresholds} {
		prev := 0
		for rpn := 0; rpn <= 1000; rpn++ {
			cur := rank[table.Classify(rpn)]
			assert.GreaterOrEqual(t, cur, prev, "table %s regressed at rpn %d", table.Name, rpn)
			prev = cur
		}
	}
}
