package cortex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportJSON(t *testing.T, taxonomies []Taxonomy) json.RawMessage {
	t.Helper()
	var body reportBody
	body.Summary.Taxonomies = taxonomies
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return b
}

func TestSearchJobsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/job/_search", r.URL.Path)
		assert.Equal(t, "Bearer cortex-key", r.Header.Get("Authorization"))

		var payload struct {
			Query struct {
				And []map[string]any `json:"_and"`
			} `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Query.And, 3)
		assert.Equal(t, "203.0.113.7", payload.Query.And[0]["_value"])
		assert.Equal(t, "ip", payload.Query.And[1]["_value"])
		assert.Equal(t, "Success", payload.Query.And[2]["_value"])

		json.NewEncoder(w).Encode([]Job{
			{ID: "j1", AnalyzerName: "VirusTotal_GetReport_3_1", Status: "Success"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "cortex-key")
	jobs, err := client.SearchJobs(context.Background(), "203.0.113.7", "ip")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].ID)
}

func TestExtractVerdicts(t *testing.T) {
	job := Job{
		ID:           "j1",
		AnalyzerName: "VirusTotal_GetReport_3_1",
	}
	job.Report = reportJSON(t, []Taxonomy{
		{Level: "Malicious", Namespace: "VT", Predicate: "GetReport", Value: "5/100"},
		{Level: "weird", Namespace: "VT", Predicate: "Other", Value: float64(3)},
	})

	results := ExtractVerdicts(job)
	require.Len(t, results, 2)

	assert.Equal(t, "VirusTotal_GetReport_3_1", results[0].AnalyzerName)
	assert.Equal(t, LevelMalicious, results[0].Level, "levels are lowercased")
	assert.InDelta(t, 0.05, results[0].Score, 1e-9, "fraction values are parsed")
	assert.Equal(t, "5/100", results[0].RawValue)
	assert.Equal(t, "VT", results[0].Namespace)

	assert.Equal(t, LevelInfo, results[1].Level, "unknown levels normalize to info")
	assert.Equal(t, float64(3), results[1].Score)
}

func TestExtractVerdictsNoReport(t *testing.T) {
	assert.Empty(t, ExtractVerdicts(Job{ID: "j1"}))
}

func TestGetAnalyzerResultsFetchesMissingReport(t *testing.T) {
	report := reportJSON(t, []Taxonomy{
		{Level: "suspicious", Namespace: "OTX", Predicate: "Pulses", Value: "2"},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/job/_search":
			// Report intentionally omitted from the search payload.
			json.NewEncoder(w).Encode([]Job{{ID: "j2", AnalyzerName: "OTXQuery_2_0", Status: "Success"}})
		case "/api/job/j2/report":
			json.NewEncoder(w).Encode(map[string]json.RawMessage{"report": report})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "k")
	results, err := client.GetAnalyzerResults(context.Background(), "evil.example", "domain")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "OTXQuery_2_0", results[0].AnalyzerName)
	assert.Equal(t, LevelSuspicious, results[0].Level)
	assert.Equal(t, float64(2), results[0].Score)
}

func TestGetJobReportWithoutEnvelope(t *testing.T) {
	report := reportJSON(t, []Taxonomy{
		{Level: "malicious", Namespace: "VT", Predicate: "GetReport", Value: "12/90"},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/job/_search":
			json.NewEncoder(w).Encode([]Job{{ID: "j3", AnalyzerName: "VirusTotal_GetReport_3_1", Status: "Success"}})
		case "/api/job/j3/report":
			// Older Cortex versions return the report bare.
			w.Write(report)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "k")
	results, err := client.GetAnalyzerResults(context.Background(), "203.0.113.7", "ip")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, LevelMalicious, results[0].Level)
	assert.Equal(t, "12/90", results[0].RawValue)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{"5/100", 0.05},
		{"0.8", 0.8},
		{"3", 3},
		{"", 0},
		{"clean", 0},
		{"1/0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseScore(tt.value), 1e-9)
		})
	}
}
