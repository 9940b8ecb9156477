// Package risk converts Cortex analyzer verdicts into a quantitative
// financial risk score and posts the resulting report back to TheHive.
//
// The model is classic quantitative risk analysis:
//
//	likelihood (0-1) x impact ($) = ALE ($)
//
// Likelihood comes from analyzer verdicts, impact from the asset value
// and data sensitivity of the case, and the annualized loss expectancy
// drives the final classification.
package risk

import (
	"time"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/cortex"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/hive"
)

// ObservableRisk ties one observable to its analyzer verdicts and the
// likelihood computed from them.
type ObservableRisk struct {
	Observable      hive.Observable
	AnalyzerResults []cortex.AnalyzerResult
	Likelihood      float64
}

// RiskScore is the final quantitative result for a case.
type RiskScore struct {
	Likelihood    float64
	ImpactDollars float64
	ALE           float64
	Level         string
}

// CaseRiskAssessment is the full scoring context for one case.
type CaseRiskAssessment struct {
	CaseID      string
	CaseTitle   string
	AssetType   string
	Sensitivity string
	Timestamp   time.Time
	Observables []ObservableRisk
	Score       *RiskScore
}
