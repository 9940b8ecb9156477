// Package cortex reads analyzer job results from the Cortex REST API
// and turns their taxonomies into structured verdicts.
package cortex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// Verdict levels, normalized.
const (
	LevelMalicious  = "malicious"
	LevelSuspicious = "suspicious"
	LevelSafe       = "safe"
	LevelInfo       = "info"
)

// Client talks to one Cortex instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Cortex client for the given endpoint and API key.
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
	return fmt.Sprintf("cortex api error %d: %s", e.StatusCode, e.Body)
}

// Job is a Cortex analyzer job. The search endpoint may omit the full
// report, in which case it is fetched separately.
type Job struct {
	ID           string          `json:"id"`
	AnalyzerName string          `json:"analyzerName"`
	Status       string          `json:"status"`
	Report       json.RawMessage `json:"report,omitempty"`
}

// Taxonomy is one verdict entry in a job report summary.
type Taxonomy struct {
	Level     string `json:"level"`
	Namespace string `json:"namespace"`
	Predicate string `json:"predicate"`
	Value     any    `json:"value"`
}

type reportBody struct {
	Summary struct {
		Taxonomies []Taxonomy `json:"taxonomies"`
	} `json:"summary"`
}

// AnalyzerResult is one normalized verdict from one analyzer.
type AnalyzerResult struct {
	AnalyzerName string
	Level        string
	Score        float64
	Namespace    string
	Predicate    string
	RawValue     string
}

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

// SearchJobs finds completed jobs that analyzed an observable. Cortex
// does not index jobs by TheHive observable ID, so the search is by
// data value and type.
func (c *Client) SearchJobs(ctx context.Context, observableValue, dataType string) ([]Job, error) {
	payload := map[string]any{
		"query": map[string]any{
			"_and": []map[string]any{
				{"_field": "data", "_value": observableValue},
				{"_field": "dataType", "_value": dataType},
				{"_field": "status", "_value": "Success"},
			},
		},
	}

	var jobs []Job
	if err := c.request(ctx, http.MethodPost, "/api/job/_search", payload, &jobs); err != nil {
		return nil, err
	}
	logging.Debug("Cortex", "Found %d job(s) for %s (%s)", len(jobs), observableValue, dataType)
	return jobs, nil
}

// GetJobReport fetches the full report for a completed job. Some
// Cortex versions wrap the report in a "report" envelope and some
// return it bare; a missing envelope falls back to the whole body.
func (c *Client) GetJobReport(ctx context.Context, jobID string) (json.RawMessage, error) {
	var body json.RawMessage
	if err := c.request(ctx, http.MethodGet, "/api/job/"+jobID+"/report", nil, &body); err != nil {
		return nil, err
	}

	var out struct {
		Report json.RawMessage `json:"report"`
	}
	if err := json.Unmarshal(body, &out); err == nil && len(out.Report) > 0 && string(out.Report) != "null" {
		return out.Report, nil
	}
	return body, nil
}

// ExtractVerdicts parses the taxonomies of a job report into analyzer
// results. Unknown levels normalize to info; fraction values such as
// "5/100" become their quotient.
func ExtractVerdicts(job Job) []AnalyzerResult {
	analyzer := job.AnalyzerName
	if analyzer == "" {
		analyzer = "unknown"
	}

	if len(job.Report) == 0 {
		return nil
	}
	var report reportBody
	if err := json.Unmarshal(job.Report, &report); err != nil {
		logging.Warn("Cortex", "Job %s report is not parseable: %v", job.ID, err)
		return nil
	}

	results := make([]AnalyzerResult, 0, len(report.Summary.Taxonomies))
	for _, tax := range report.Summary.Taxonomies {
		level := strings.ToLower(tax.Level)
		switch level {
		case LevelMalicious, LevelSuspicious, LevelSafe, LevelInfo:
		default:
			level = LevelInfo
		}

		raw := rawValue(tax.Value)
		results = append(results, AnalyzerResult{
			AnalyzerName: analyzer,
			Level:        level,
			Score:        parseScore(raw),
			Namespace:    tax.Namespace,
			Predicate:    tax.Predicate,
			RawValue:     raw,
		})
	}
	return results
}

// GetAnalyzerResults fetches all successful jobs for an observable and
// returns their parsed verdicts, loading reports not inlined by search.
func (c *Client) GetAnalyzerResults(ctx context.Context, observableValue, dataType string) ([]AnalyzerResult, error) {
	jobs, err := c.SearchJobs(ctx, observableValue, dataType)
	if err != nil {
		return nil, err
	}

	var all []AnalyzerResult
	for _, job := range jobs {
		if len(job.Report) == 0 || string(job.Report) == "null" {
			report, err := c.GetJobReport(ctx, job.ID)
			if err != nil {
				return nil, fmt.Errorf("report for job %s: %w", job.ID, err)
			}
			job.Report = report
		}
		all = append(all, ExtractVerdicts(job)...)
	}
	return all, nil
}

func rawValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// parseScore best-effort parses a taxonomy value into a float.
func parseScore(value string) float64 {
	if strings.Contains(value, "/") {
		parts := strings.SplitN(value, "/", 2)
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0
		}
		return num / den
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
