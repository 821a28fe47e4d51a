package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{Endpoint: srv.URL, Key: "key", Index: "regulations"}, logrus.New())
}

func TestSubcategories(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("api-key"))
		assert.Contains(t, r.URL.Path, "/indexes/regulations/docs/search")

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"subcategory,count:100"}, req.Facets)
		assert.Zero(t, req.Top)

		_, _ = w.Write([]byte(`{
			"@search.facets": {
				"subcategory": [
					{"value": "threats", "count": 12},
					{"value": "harassment", "count": 7}
				]
			},
			"value": []
		}`))
	})

	labels, err := client.Subcategories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"threats", "harassment"}, labels)
}

func TestTopBySubcategory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "subcategory eq 'threats'", req.Filter)
		assert.Equal(t, 3, req.Top)

		_, _ = w.Write([]byte(`{
			"value": [
				{
					"@search.score": 1.0,
					"category": "violence",
					"subcategory": "threats",
					"regulation": "Criminal Act",
					"article": "Article 283",
					"content": "A person who intimidates another...",
					"penalty": "Up to 3 years imprisonment"
				},
				{"@search.score": 0.5, "subcategory": "threats", "regulation": "Other"}
			]
		}`))
	})

	record, err := client.TopBySubcategory(context.Background(), "threats")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Criminal Act", record.Regulation)
	assert.Equal(t, "Article 283", record.Article)
	assert.Equal(t, 1.0, record.MatchScore)
}

func TestTopBySubcategory_EscapesQuotes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "subcategory eq 'worker''s rights'", req.Filter)
		_, _ = w.Write([]byte(`{"value": []}`))
	})

	record, err := client.TopBySubcategory(context.Background(), "worker's rights")

	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestSearch_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index not found", http.StatusNotFound)
	})

	_, err := client.Subcategories(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
