// Package hive is a thin client for the TheHive 5 REST API, covering
// the case, observable, task and tag operations the risk engine needs.
package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// RiskTaskTitle is the case task risk reports are posted under.
const RiskTaskTitle = "Risk Assessment"

// Client talks to one TheHive instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a TheHive client for the given endpoint and API key.
func New(url, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(url, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("thehive api error %d: %s", e.StatusCode, e.Body)
}

// Case is a TheHive case as returned by the v1 API.
type Case struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Severity    int      `json:"severity"`
	Tags        []string `json:"tags"`
	StartDate   int64    `json:"startDate"`
}

// Observable is one piece of evidence attached to a case.
type Observable struct {
	ID       string   `json:"_id"`
	DataType string   `json:"dataType"`
	Data     string   `json:"data"`
	TLP      int      `json:"tlp"`
	Tags     []string `json:"tags"`
}

// Task is a case task.
type Task struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Group string `json:"group"`
}

// request issues one API call and decodes the response into out when
// out is non-nil.
func (c *Client) request(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// query runs a TheHive v1 query pipeline.
func (c *Client) query(ctx context.Context, stages []map[string]any, out any) error {
	return c.request(ctx, http.MethodPost, "/api/v1/query", map[string]any{"query": stages}, out)
}

// ListUnscoredCases returns open cases that have not been risk-scored
// yet, newest first. scoredTag marks cases the engine already handled.
func (c *Client) ListUnscoredCases(ctx context.Context, scoredTag string) ([]Case, error) {
	stages := []map[string]any{
		{"_name": "listCase"},
		{"_name": "filter", "_not": map[string]any{"_field": "tags", "_value": scoredTag}},
		{"_name": "filter", "_field": "status", "_value": "New"},
		{"_name": "sort", "_fields": []map[string]any{{"_name": "startDate", "_order": "desc"}}},
	}

	var cases []Case
	if err := c.query(ctx, stages, &cases); err != nil {
		return nil, err
	}
	logging.Info("TheHive", "Found %d unscored open case(s)", len(cases))
	return cases, nil
}

// GetCase fetches a single case by ID.
func (c *Client) GetCase(ctx context.Context, caseID string) (*Case, error) {
	var out Case
	if err := c.request(ctx, http.MethodGet, "/api/v1/case/"+caseID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCaseObservables returns all observables attached to a case.
func (c *Client) GetCaseObservables(ctx context.Context, caseID string) ([]Observable, error) {
	stages := []map[string]any{
		{"_name": "getCase", "idOrName": caseID},
		{"_name": "observables"},
	}

	var observables []Observable
	if err := c.query(ctx, stages, &observables); err != nil {
		return nil, err
	}
	logging.Debug("TheHive", "Case %s has %d observable(s)", caseID, len(observables))
	return observables, nil
}

// FindOrCreateRiskTask returns the ID of the case's risk assessment
// task, creating it when absent.
func (c *Client) FindOrCreateRiskTask(ctx context.Context, caseID string) (string, error) {
	stages := []map[string]any{
		{"_name": "getCase", "idOrName": caseID},
		{"_name": "tasks"},
		{"_name": "filter", "_field": "title", "_value": RiskTaskTitle},
	}

	var existing []Task
	if err := c.query(ctx, stages, &existing); err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return existing[0].ID, nil
	}

	payload := map[string]any{
		"title":       RiskTaskTitle,
		"group":       "risk",
		"description": "Automated risk scoring",
	}
	var created Task
	if err := c.request(ctx, http.MethodPost, "/api/v1/case/"+caseID+"/task", payload, &created); err != nil {
		return "", err
	}
	logging.Info("TheHive", "Created %s task %s for case %s", RiskTaskTitle, created.ID, caseID)
	return created.ID, nil
}

// AddTaskLog posts a markdown log entry to a task.
func (c *Client) AddTaskLog(ctx context.Context, taskID, content string) error {
	payload := map[string]any{"message": content}
	return c.request(ctx, http.MethodPost, "/api/v1/task/"+taskID+"/log", payload, nil)
}

// AddCaseTag adds a tag to a case unless already present.
func (c *Client) AddCaseTag(ctx context.Context, caseID, tag string) error {
	current, err := c.GetCase(ctx, caseID)
	if err != nil {
		return err
	}
	for _, t := range current.Tags {
		if t == tag {
			return nil
		}
	}

	payload := map[string]any{"tags": append(current.Tags, tag)}
	if err := c.request(ctx, http.MethodPatch, "/api/v1/case/"+caseID, payload, nil); err != nil {
		return err
	}
	logging.Info("TheHive", "Tagged case %s with %q", caseID, tag)
	return nil
}
