package risk

import (
	"math"
	"strings"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/cortex"
	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// Verdict level weights used in the likelihood average. A safe verdict
// weighs slightly below info: an analyzer positively clearing an
// observable is stronger evidence than one with nothing to say.
var verdictWeights = map[string]float64{
	cortex.LevelMalicious:  1.0,
	cortex.LevelSuspicious: 0.6,
	cortex.LevelSafe:       0.05,
	cortex.LevelInfo:       0.1,
}

// Consensus boost: when this many distinct analyzers agree on
// malicious, the averaged likelihood is multiplied by the boost.
const (
	maliciousConsensusThreshold = 2
	maliciousConsensusBoost     = 1.25
)

// Base asset values in dollars by asset type.
var assetValues = map[string]float64{
	"workstation":       50_000,
	"server":            250_000,
	"database":          500_000,
	"domain-controller": 1_000_000,
	"cloud":             300_000,
}

const (
	defaultAssetValue  = 100_000
	defaultSensitivity = "internal"
)

// Sensitivity multipliers applied to the base asset value.
var sensitivityMultipliers = map[string]float64{
	"public":       0.5,
	"internal":     1.0,
	"confidential": 2.0,
	"restricted":   4.0,
}

// Risk levels by ALE threshold.
const (
	LevelCritical = "Critical"
	LevelHigh     = "High"
	LevelMedium   = "Medium"
	LevelLow      = "Low"
	LevelInfo     = "Info"
)

var riskThresholds = []struct {
	level string
	ale   float64
}{
	{LevelCritical, 1_000_000},
	{LevelHigh, 250_000},
	{LevelMedium, 50_000},
	{LevelLow, 10_000},
}

// ComputeLikelihood turns a set of analyzer verdicts into a likelihood
// between 0 and 1: the weighted average of the verdict levels, boosted
// when independent analyzers agree on malicious, capped at 1.
func ComputeLikelihood(results []cortex.AnalyzerResult) float64 {
	if len(results) == 0 {
		return 0
	}

	sum := 0.0
	maliciousAnalyzers := make(map[string]struct{})
	for _, r := range results {
		sum += verdictWeights[r.Level]
		if r.Level == cortex.LevelMalicious {
			maliciousAnalyzers[r.AnalyzerName] = struct{}{}
		}
	}
	avg := sum / float64(len(results))

	if len(maliciousAnalyzers) >= maliciousConsensusThreshold {
		avg *= maliciousConsensusBoost
		logging.Debug("RiskCalculator", "Consensus boost applied (%d independent malicious verdicts)",
			len(maliciousAnalyzers))
	}

	return math.Min(avg, 1.0)
}

// ComputeImpact returns the dollar impact of losing an asset:
// base asset value by type, scaled by data sensitivity.
func ComputeImpact(assetType, sensitivity string) float64 {
	base, ok := assetValues[strings.ToLower(assetType)]
	if !ok {
		base = defaultAssetValue
	}
	multiplier, ok := sensitivityMultipliers[strings.ToLower(sensitivity)]
	if !ok {
		multiplier = sensitivityMultipliers[defaultSensitivity]
	}
	return base * multiplier
}

// ClassifyRisk maps an ALE value to a risk level.
func ClassifyRisk(ale float64) string {
	for _, t := range riskThresholds {
		if ale >= t.ale {
			return t.level
		}
	}
	return LevelInfo
}

// ScoreCase scores every observable of an assessment and attaches the
// case-level RiskScore. Case likelihood is the maximum across
// observables: one highly malicious indicator is enough to drive risk.
func ScoreCase(assessment *CaseRiskAssessment) *RiskScore {
	caseLikelihood := 0.0
	for i := range assessment.Observables {
		lh := ComputeLikelihood(assessment.Observables[i].AnalyzerResults)
		assessment.Observables[i].Likelihood = lh
		if lh > caseLikelihood {
			caseLikelihood = lh
		}
	}

	impact := ComputeImpact(assessment.AssetType, assessment.Sensitivity)
	ale := caseLikelihood * impact

	score := &RiskScore{
		Likelihood:    math.Round(caseLikelihood*10000) / 10000,
		ImpactDollars: impact,
		ALE:           math.Round(ale*100) / 100,
		Level:         ClassifyRisk(ale),
	}
	assessment.Score = score

	logging.Info("RiskCalculator", "Case %s scored: likelihood=%.2f impact=$%.0f ALE=$%.2f (%s)",
		assessment.CaseID, score.Likelihood, score.ImpactDollars, score.ALE, score.Level)
	return score
}

// Case tag prefixes carrying asset context, e.g. "asset:database" and
// "sensitivity:confidential".
const (
	assetTagPrefix       = "asset:"
	sensitivityTagPrefix = "sensitivity:"
)

// AssetContextFromTags derives the asset type and data sensitivity of a
// case from its tags, falling back to defaults when untagged.
func AssetContextFromTags(tags []string) (assetType, sensitivity string) {
	assetType = "workstation"
	sensitivity = defaultSensitivity
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		if v, ok := strings.CutPrefix(lower, assetTagPrefix); ok && v != "" {
			assetType = v
		}
		if v, ok := strings.CutPrefix(lower, sensitivityTagPrefix); ok && v != "" {
			sensitivity = v
		}
	}
	return assetType, sensitivity
}
