package jobboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmodels "io.fixlink.jobboard/internal/models/job"
)

func newTestClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestClientDisabledWithoutBaseURL(t *testing.T) {
	c := newTestClient("", "")
	assert.False(t, c.Enabled())

	_, err := c.CreateJob(context.Background(), &jobmodels.Job{})
	assert.Error(t, err)
}

func TestCreateJobReturnsUpstreamID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var j jobmodels.Job
		require.NoError(t, json.NewDecoder(r.Body).Decode(&j))
		assert.Equal(t, "SO-1001", j.SONumber)

		json.NewEncoder(w).Encode(map[string]string{"id": "ext-42"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "secret")
	id, err := c.CreateJob(context.Background(), &jobmodels.Job{SONumber: "SO-1001"})
	require.NoError(t, err)
	assert.Equal(t, "ext-42", id)
}

func TestUpdateJobSendsPartialFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/jobs/ext-42", r.URL.Path)

		var fields map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, map[string]interface{}{"status": "completed"}, fields)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	err := c.UpdateJob(context.Background(), "ext-42", map[string]interface{}{"status": "completed"})
	assert.NoError(t, err)
}

func TestAssignJobPostsVendor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs/ext-42/assign", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v1", body["vendorId"])
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	assert.NoError(t, c.AssignJob(context.Background(), "ext-42", "v1"))
}

func TestDeleteJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/jobs/ext-42", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	assert.NoError(t, c.DeleteJob(context.Background(), "ext-42"))
}

func TestErrorStatusIncludesBodySnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream maintenance"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	err := c.DeleteJob(context.Background(), "ext-42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream maintenance")
}
