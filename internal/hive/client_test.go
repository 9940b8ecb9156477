package hive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queryStages decodes the pipeline stages of a v1 query request.
func queryStages(t *testing.T, r *http.Request) []map[string]any {
	t.Helper()
	var body struct {
		Query []map[string]any `json:"query"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body.Query
}

func TestListUnscoredCases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		stages := queryStages(t, r)
		require.Len(t, stages, 4)
		assert.Equal(t, "listCase", stages[0]["_name"])

		not, ok := stages[1]["_not"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "risk-scored", not["_value"])

		assert.Equal(t, "status", stages[2]["_field"])
		assert.Equal(t, "New", stages[2]["_value"])

		json.NewEncoder(w).Encode([]Case{
			{ID: "~1", Title: "Phishing campaign", Status: "New", Tags: []string{"phishing"}},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key")
	cases, err := client.ListUnscoredCases(context.Background(), "risk-scored")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "~1", cases[0].ID)
	assert.Equal(t, "Phishing campaign", cases[0].Title)
}

func TestGetCaseObservables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stages := queryStages(t, r)
		require.Len(t, stages, 2)
		assert.Equal(t, "getCase", stages[0]["_name"])
		assert.Equal(t, "~1", stages[0]["idOrName"])
		assert.Equal(t, "observables", stages[1]["_name"])

		json.NewEncoder(w).Encode([]Observable{
			{ID: "~o1", DataType: "ip", Data: "203.0.113.7", TLP: 2},
			{ID: "~o2", DataType: "domain", Data: "evil.example"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "k")
	obs, err := client.GetCaseObservables(context.Background(), "~1")
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "203.0.113.7", obs[0].Data)
	assert.Equal(t, "domain", obs[1].DataType)
}

func TestFindOrCreateRiskTaskReturnsExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/query", r.URL.Path)
		json.NewEncoder(w).Encode([]Task{{ID: "~t1", Title: RiskTaskTitle}})
	}))
	defer srv.Close()

	client := New(srv.URL, "k")
	taskID, err := client.FindOrCreateRiskTask(context.Background(), "~1")
	require.NoError(t, err)
	assert.Equal(t, "~t1", taskID)
}

func TestFindOrCreateRiskTaskCreates(t *testing.T) {
	var createdPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/query":
			json.NewEncoder(w).Encode([]Task{})
		case "/api/v1/case/~1/task":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createdPayload))
			json.NewEncoder(w).Encode(Task{ID: "~t9", Title: RiskTaskTitle})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "k")
	taskID, err := client.FindOrCreateRiskTask(context.Background(), "~1")
	require.NoError(t, err)
	assert.Equal(t, "~t9", taskID)
	assert.Equal(t, RiskTaskTitle, createdPayload["title"])
	assert.Equal(t, "risk", createdPayload["group"])
}

func TestAddCaseTagSkipsExisting(t *testing.T) {
	patched := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(Case{ID: "~1", Tags: []string{"risk-scored"}})
		case http.MethodPatch:
			patched = true
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "k")
	require.NoError(t, client.AddCaseTag(context.Background(), "~1", "risk-scored"))
	assert.False(t, patched, "already-tagged case must not be patched")
}

func TestAddCaseTagPatchesNewTag(t *testing.T) {
	var patchedTags []any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(Case{ID: "~1", Tags: []string{"phishing"}})
		case http.MethodPatch:
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			patchedTags = payload["tags"].([]any)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "k")
	require.NoError(t, client.AddCaseTag(context.Background(), "~1", "risk-scored"))
	assert.Equal(t, []any{"phishing", "risk-scored"}, patchedTags)
}

func TestAPIErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "authentication failed", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(srv.URL, "bad-key")
	_, err := client.ListUnscoredCases(context.Background(), "risk-scored")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "authentication failed")
}

func TestAddTaskLog(t *testing.T) {
	var message string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/task/~t1/log", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		message = payload["message"]
	}))
	defer srv.Close()

	client := New(srv.URL, "k")
	require.NoError(t, client.AddTaskLog(context.Background(), "~t1", "# Risk Assessment Report"))
	assert.Equal(t, "# Risk Assessment Report", message)
}
