package risk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/cortex"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/hive"
)

type fakeHive struct {
	cases       []hive.Case
	observables map[string][]hive.Observable
	taskLogs    map[string][]string
	tags        map[string][]string

	taskErr error
	logErr  error
}

func newFakeHive(cases ...hive.Case) *fakeHive {
	return &fakeHive{
		cases:       cases,
		observables: make(map[string][]hive.Observable),
		taskLogs:    make(map[string][]string),
		tags:        make(map[string][]string),
	}
}

func (f *fakeHive) ListUnscoredCases(ctx context.Context, scoredTag string) ([]hive.Case, error) {
	return f.cases, nil
}

func (f *fakeHive) GetCase(ctx context.Context, caseID string) (*hive.Case, error) {
	for _, cs := range f.cases {
		if cs.ID == caseID {
			return &cs, nil
		}
	}
	return nil, fmt.Errorf("case %s not found", caseID)
}

func (f *fakeHive) GetCaseObservables(ctx context.Context, caseID string) ([]hive.Observable, error) {
	return f.observables[caseID], nil
}

func (f *fakeHive) FindOrCreateRiskTask(ctx context.Context, caseID string) (string, error) {
	if f.taskErr != nil {
		return "", f.taskErr
	}
	return "task-" + caseID, nil
}

func (f *fakeHive) AddTaskLog(ctx context.Context, taskID, content string) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.taskLogs[taskID] = append(f.taskLogs[taskID], content)
	return nil
}

func (f *fakeHive) AddCaseTag(ctx context.Context, caseID, tag string) error {
	f.tags[caseID] = append(f.tags[caseID], tag)
	return nil
}

type fakeCortex struct {
	results map[string][]cortex.AnalyzerResult
	err     error
}

func (f *fakeCortex) GetAnalyzerResults(ctx context.Context, observableValue, dataType string) ([]cortex.AnalyzerResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[observableValue], nil
}

func TestEngineRunScoresAndTags(t *testing.T) {
	h := newFakeHive(hive.Case{
		ID:    "~1",
		Title: "Beaconing host",
		Tags:  []string{"asset:domain-controller", "sensitivity:restricted"},
	})
	h.observables["~1"] = []hive.Observable{{Data: "203.0.113.7", DataType: "ip"}}

	c := &fakeCortex{results: map[string][]cortex.AnalyzerResult{
		"203.0.113.7": {
			{AnalyzerName: "VT", Level: cortex.LevelMalicious, RawValue: "10/90"},
		},
	}}

	engine := NewEngine(h, c, "risk-scored")
	engine.now = func() time.Time { return time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC) }

	n, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	logs := h.taskLogs["task-~1"]
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "# Risk Assessment Report")
	// domain-controller x restricted = $1M x 4.0 at likelihood 1.0.
	assert.Contains(t, logs[0], "**$4,000,000.00**")
	assert.Contains(t, logs[0], "**Critical** risk level")

	assert.Equal(t, []string{"risk-scored"}, h.tags["~1"])
}

func TestEngineDoesNotTagWhenReportPostFails(t *testing.T) {
	h := newFakeHive(hive.Case{ID: "~1", Title: "Case"})
	h.logErr = errors.New("thehive unavailable")

	engine := NewEngine(h, &fakeCortex{}, "risk-scored")

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, h.tags["~1"], "failed report post must leave the case unscored")
}

func TestEngineRunStopsOnFirstFailure(t *testing.T) {
	h := newFakeHive(
		hive.Case{ID: "~1", Title: "First"},
		hive.Case{ID: "~2", Title: "Second"},
	)
	h.taskErr = errors.New("task api broken")

	engine := NewEngine(h, &fakeCortex{}, "risk-scored")
	n, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "~1")
}

func TestEngineScoreOne(t *testing.T) {
	h := newFakeHive(hive.Case{ID: "~9", Title: "Targeted", Tags: []string{"asset:database"}})
	h.observables["~9"] = []hive.Observable{{Data: "evil.example", DataType: "domain"}}

	c := &fakeCortex{results: map[string][]cortex.AnalyzerResult{
		"evil.example": {{AnalyzerName: "OTX", Level: cortex.LevelSuspicious}},
	}}

	engine := NewEngine(h, c, "risk-scored")
	require.NoError(t, engine.ScoreOne(context.Background(), "~9"))
	assert.Len(t, h.taskLogs["task-~9"], 1)

	assert.Error(t, engine.ScoreOne(context.Background(), "~404"))
}

func TestEngineAssessBuildsAssessment(t *testing.T) {
	h := newFakeHive()
	h.observables["~3"] = []hive.Observable{
		{Data: "203.0.113.7", DataType: "ip"},
		{Data: "clean.example", DataType: "domain"},
	}

	c := &fakeCortex{results: map[string][]cortex.AnalyzerResult{
		"203.0.113.7":   {{AnalyzerName: "VT", Level: cortex.LevelMalicious}},
		"clean.example": {{AnalyzerName: "VT", Level: cortex.LevelSafe}},
	}}

	engine := NewEngine(h, c, "risk-scored")
	assessment, err := engine.Assess(context.Background(), &hive.Case{ID: "~3", Title: "Mixed"})
	require.NoError(t, err)

	require.Len(t, assessment.Observables, 2)
	require.NotNil(t, assessment.Score)
	assert.InDelta(t, 1.0, assessment.Score.Likelihood, 1e-9)
	assert.Equal(t, "workstation", assessment.AssetType)
}
