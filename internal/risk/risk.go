// Package risk implements the risk priority number calculation and the
// tiered risk-level classification shared by CAPA, risk assessment, and
// FMEA records.
package risk

// Risk levels, ordered from low to critical.
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// RPN returns the risk priority number: severity x occurrence x detection.
func RPN(severity, occurrence, detection int) int {
	return severity * occurrence * detection
}

// ThresholdTable maps an RPN to a risk level. Risk assessments (1-5
// factors) and FMEA worksheets (1-10 factors) use different tables; the
// two must never be conflated.
type ThresholdTable struct {
	Name     string
	Critical int
	High     int
	Medium   int
}

// AssessmentThresholds classifies hazard risk assessments (1-5 scales).
var AssessmentThresholds = ThresholdTable{Name: "risk_assessment", Critical: 100, High: 50, Medium: 20}

// FMEAThresholds classifies FMEA records (1-10 scales).
var FMEAThresholds = ThresholdTable{Name: "fmea", Critical: 300, High: 150, Medium: 50}

// Classify returns the risk level for an RPN. Monotonic non-decreasing in
// the RPN for a fixed table.
func (t ThresholdTable) Classify(rpn int) string {
	switch {
	case rpn >= t.Critical:
		return LevelCritical
	case rpn >= t.High:
		return LevelHigh
	case rpn >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}
