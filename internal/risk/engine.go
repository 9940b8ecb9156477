package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/cortex"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/hive"
	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// CaseSource is the TheHive surface the engine needs.
type CaseSource interface {
	ListUnscoredCases(ctx context.Context, scoredTag string) ([]hive.Case, error)
	GetCase(ctx context.Context, caseID string) (*hive.Case, error)
	GetCaseObservables(ctx context.Context, caseID string) ([]hive.Observable, error)
	FindOrCreateRiskTask(ctx context.Context, caseID string) (string, error)
	AddTaskLog(ctx context.Context, taskID, content string) error
	AddCaseTag(ctx context.Context, caseID, tag string) error
}

// VerdictSource is the Cortex surface the engine needs.
type VerdictSource interface {
	GetAnalyzerResults(ctx context.Context, observableValue, dataType string) ([]cortex.AnalyzerResult, error)
}

// Engine runs the full scoring pipeline: pull unscored cases from
// TheHive, collect Cortex verdicts per observable, score, and post the
// report back as a task log before tagging the case as scored.
type Engine struct {
	hive      CaseSource
	cortex    VerdictSource
	scoredTag string

	now func() time.Time
}

// NewEngine builds a risk engine. scoredTag marks processed cases.
func NewEngine(caseSource CaseSource, verdictSource VerdictSource, scoredTag string) *Engine {
	return &Engine{
		hive:      caseSource,
		cortex:    verdictSource,
		scoredTag: scoredTag,
		now:       time.Now,
	}
}

// Run scores every unscored open case and returns how many were
// processed. A failure on one case aborts the run so a misbehaving
// deployment is noticed instead of half-tagged.
func (e *Engine) Run(ctx context.Context) (int, error) {
	cases, err := e.hive.ListUnscoredCases(ctx, e.scoredTag)
	if err != nil {
		return 0, fmt.Errorf("listing unscored cases: %w", err)
	}

	for i, cs := range cases {
		if err := e.scoreCase(ctx, &cs); err != nil {
			return i, fmt.Errorf("scoring case %s: %w", cs.ID, err)
		}
	}
	return len(cases), nil
}

// ScoreOne scores a single case by ID regardless of its scored tag.
func (e *Engine) ScoreOne(ctx context.Context, caseID string) error {
	cs, err := e.hive.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("fetching case %s: %w", caseID, err)
	}
	if err := e.scoreCase(ctx, cs); err != nil {
		return fmt.Errorf("scoring case %s: %w", caseID, err)
	}
	return nil
}

// Assess builds and scores the risk assessment for a case without
// posting anything back.
func (e *Engine) Assess(ctx context.Context, cs *hive.Case) (*CaseRiskAssessment, error) {
	observables, err := e.hive.GetCaseObservables(ctx, cs.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching observables: %w", err)
	}

	assetType, sensitivity := AssetContextFromTags(cs.Tags)
	assessment := &CaseRiskAssessment{
		CaseID:      cs.ID,
		CaseTitle:   cs.Title,
		AssetType:   assetType,
		Sensitivity: sensitivity,
		Timestamp:   e.now(),
	}

	for _, obs := range observables {
		results, err := e.cortex.GetAnalyzerResults(ctx, obs.Data, obs.DataType)
		if err != nil {
			return nil, fmt.Errorf("analyzer results for %s: %w", obs.Data, err)
		}
		assessment.Observables = append(assessment.Observables, ObservableRisk{
			Observable:      obs,
			AnalyzerResults: results,
		})
	}

	ScoreCase(assessment)
	return assessment, nil
}

// scoreCase runs the pipeline for one case. The scored tag is applied
// only after the report is posted so a failed post leaves the case
// eligible for the next run.
func (e *Engine) scoreCase(ctx context.Context, cs *hive.Case) error {
	logging.Info("RiskEngine", "Scoring case %s (%s)", cs.ID, cs.Title)

	assessment, err := e.Assess(ctx, cs)
	if err != nil {
		return err
	}

	taskID, err := e.hive.FindOrCreateRiskTask(ctx, cs.ID)
	if err != nil {
		return fmt.Errorf("risk task: %w", err)
	}
	if err := e.hive.AddTaskLog(ctx, taskID, GenerateReport(assessment)); err != nil {
		return fmt.Errorf("posting report: %w", err)
	}
	if err := e.hive.AddCaseTag(ctx, cs.ID, e.scoredTag); err != nil {
		return fmt.Errorf("tagging case: %w", err)
	}

	logging.Info("RiskEngine", "Case %s scored %s (ALE $%.2f)",
		cs.ID, assessment.Score.Level, assessment.Score.ALE)
	return nil
}
