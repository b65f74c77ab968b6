package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second), srv
}

func TestSearchUsersSendsQueryAndParsesTotal(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/search", r.URL.Path)
		assert.Equal(t, "kim", r.URL.Query().Get("search"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "40", r.URL.Query().Get("offset"))
		assert.Equal(t, "real_name", r.URL.Query().Get("order_by"))
		assert.Equal(t, "DESC", r.URL.Query().Get("order_direction"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"users":[{"id":1,"real_name":"김"}],"total":45}}`))
	})
	defer srv.Close()

	users, total, err := c.SearchUsers(context.Background(), "tok", SearchQuery{
		Term: "kim", Limit: 20, Offset: 40, OrderBy: "real_name", OrderDirection: "DESC",
	})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 45, total)
}

func TestSearchUsersOmitsOrderWhenUnsorted(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("order_by"))
		assert.False(t, r.URL.Query().Has("order_direction"))
		w.Write([]byte(`{"status":"success","data":{"users":[],"total":0}}`))
	})
	defer srv.Close()

	_, _, err := c.SearchUsers(context.Background(), "tok", SearchQuery{Term: "x", Limit: 20})
	require.NoError(t, err)
}

func TestNon2xxSynthesizesStatusMessage(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`not json at all`))
	})
	defer srv.Close()

	_, _, err := c.SearchUsers(context.Background(), "tok", SearchQuery{Term: "x", Limit: 20})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "HTTP error status 502", apiErr.Error())
}

func TestNon2xxSurfacesEnvelopeMessage(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"error","message":"권한이 없습니다"}`))
	})
	defer srv.Close()

	err := c.ToggleSubscription(context.Background(), "tok", 1, 2, "reason")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "권한이 없습니다", apiErr.Message)
}

func TestMalformedJSONReportedDistinctly(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":`))
	})
	defer srv.Close()

	_, err := c.GetNote(context.Background(), "tok", 5)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestDomainFailureEnvelopeIsRecoverableError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"duplicate tag name"}`))
	})
	defer srv.Close()

	_, err := c.CreateNote(context.Background(), "tok", &NoteRecord{Content: "t"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "duplicate tag name", apiErr.Message)
}

func TestNoPostsIsTypedSentinel(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"No posts found"}`))
	})
	defer srv.Close()

	_, err := c.LatestOngoingNote(context.Background(), "tok", 7)
	assert.ErrorIs(t, err, ErrNoNotes)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestBulkTogglePartialSuccessParsed(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/bulk-toggle-subscription", r.URL.Path)
		w.Write([]byte(`{"status":"success","data":{"results":{
			"success":[{"user_id":1},{"user_id":3}],
			"failed":[{"user_id":2}]}}}`))
	})
	defer srv.Close()

	res, err := c.BulkToggleSubscription(context.Background(), "tok", []int64{1, 2, 3}, 9, "why")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, res.Succeeded)
	assert.Equal(t, []int64{2}, res.Failed)
}

func TestTransportFailureWrapped(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)

	_, _, err := c.SearchUsers(context.Background(), "tok", SearchQuery{Term: "x", Limit: 1})
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not APIErrors")
}
