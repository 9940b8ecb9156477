package risk

import (
	"fmt"
	"sort"
	"strings"
)

func riskIndicator(level string) string {
	return map[string]string{
		LevelCritical: "[!!!]",
		LevelHigh:     "[!!]",
		LevelMedium:   "[!]",
		LevelLow:      "[-]",
		LevelInfo:     "[i]",
	}[level]
}

// verdictSummary is a one-line digest of an observable's verdicts,
// e.g. "2 malicious, 1 safe".
func verdictSummary(obs ObservableRisk) string {
	if len(obs.AnalyzerResults) == 0 {
		return "No analyzer results"
	}
	counts := make(map[string]int)
	for _, r := range obs.AnalyzerResults {
		counts[r.Level]++
	}
	levels := make([]string, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, fmt.Sprintf("%d %s", counts[level], level))
	}
	return strings.Join(parts, ", ")
}

func recommendations(level string) []string {
	switch level {
	case LevelCritical:
		return []string{
			"Escalate to incident commander immediately",
			"Isolate affected assets from the network",
			"Begin forensic evidence preservation",
			"Notify executive leadership and legal counsel",
			"Activate incident response plan",
		}
	case LevelHigh:
		return []string{
			"Escalate to senior SOC analyst",
			"Restrict access to affected assets",
			"Run full endpoint scan on associated hosts",
			"Review related cases for lateral movement indicators",
		}
	case LevelMedium:
		return []string{
			"Assign to SOC analyst for investigation",
			"Run additional Cortex analyzers for enrichment",
			"Monitor associated assets for 48 hours",
		}
	case LevelLow:
		return []string{
			"Document findings for trend analysis",
			"Schedule routine review within 7 days",
		}
	case LevelInfo:
		return []string{
			"No immediate action required",
			"Log for baseline and reporting purposes",
		}
	default:
		return []string{"Review case manually"}
	}
}

// formatDollars renders a dollar amount with thousands separators.
func formatDollars(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, fracPart = s[:idx], s[idx:]
	}

	var b strings.Builder
	n := len(intPart)
	for i, ch := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return b.String() + fracPart
}

// GenerateReport builds the full markdown risk report for a scored case.
func GenerateReport(assessment *CaseRiskAssessment) string {
	score := assessment.Score
	if score == nil {
		return "**Error:** Case has not been scored yet."
	}

	var lines []string
	add := func(ls ...string) { lines = append(lines, ls...) }

	add(
		"# Risk Assessment Report",
		"",
		fmt.Sprintf("**Case:** %s (`%s`)", assessment.CaseTitle, assessment.CaseID),
		fmt.Sprintf("**Assessed:** %s", assessment.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
		"",
		"---",
		"",
		"## Executive Summary",
		"",
		fmt.Sprintf("%s This case has a **%s** risk level with an estimated annual loss exposure of **$%s**.",
			riskIndicator(score.Level), score.Level, formatDollars(score.ALE, 2)),
		"",
		"---",
		"",
		"## Risk Calculation",
		"",
		"| Metric | Value |",
		"|--------|-------|",
		fmt.Sprintf("| Likelihood | %.2f%% |", score.Likelihood*100),
		fmt.Sprintf("| Asset Type | %s |", assessment.AssetType),
		fmt.Sprintf("| Sensitivity | %s |", assessment.Sensitivity),
		fmt.Sprintf("| Impact (SLE) | $%s |", formatDollars(score.ImpactDollars, 0)),
		fmt.Sprintf("| **ALE (Annualized Loss)** | **$%s** |", formatDollars(score.ALE, 2)),
		fmt.Sprintf("| **Risk Level** | **%s** |", score.Level),
		"",
		"> *ALE = Likelihood x Impact (Single Loss Expectancy)*",
		"",
	)

	if len(assessment.Observables) > 0 {
		add(
			"---",
			"",
			"## Observable Breakdown",
			"",
			"| Observable | Type | Likelihood | Verdicts |",
			"|------------|------|------------|----------|",
		)
		for _, obs := range assessment.Observables {
			add(fmt.Sprintf("| `%s` | %s | %.2f%% | %s |",
				obs.Observable.Data, obs.Observable.DataType, obs.Likelihood*100, verdictSummary(obs)))
		}
		add("", "### Detailed Analyzer Results", "")

		for _, obs := range assessment.Observables {
			if len(obs.AnalyzerResults) == 0 {
				continue
			}
			add(
				fmt.Sprintf("**`%s`** (%s)", obs.Observable.Data, obs.Observable.DataType),
				"",
				"| Analyzer | Verdict | Score | Detail |",
				"|----------|---------|-------|--------|",
			)
			for _, r := range obs.AnalyzerResults {
				add(fmt.Sprintf("| %s | %s | %s | %s:%s |",
					r.AnalyzerName, r.Level, r.RawValue, r.Namespace, r.Predicate))
			}
			add("")
		}
	}

	add(
		"---",
		"",
		"## Recommended Actions",
		"",
	)
	for i, rec := range recommendations(score.Level) {
		add(fmt.Sprintf("%d. %s", i+1, rec))
	}
	add(
		"",
		"---",
		"*Report generated by SOC Risk Engine*",
	)

	return strings.Join(lines, "\n")
}
